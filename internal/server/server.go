package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/riskuniversalis/staffportal/internal/avatar"
	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/handler"
	"github.com/riskuniversalis/staffportal/internal/server/middleware"
	"github.com/riskuniversalis/staffportal/internal/service"
	"github.com/riskuniversalis/staffportal/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string // empty: same-origin only
	CORSMethods     []string
	EnableUI        bool
	RateLimit       int // requests per minute per staff member on /dashboard/api; 0 disables
	TLSCertFile     string
	TLSKeyFile      string
	Version         string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		EnableUI:        true,
		RateLimit:       300,
	}
}

// Server is the staff dashboard HTTP server. It owns the Chi router, the
// moderation backend client and the avatar resolver factory.
type Server struct {
	cfg        Config
	router     chi.Router
	client     *backend.Client
	svc        *service.Service
	avatars    *avatar.Factory
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. avatars may be nil to disable avatar lookups.
func New(cfg Config, client *backend.Client, svc *service.Service, avatars *avatar.Factory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		client:   client,
		svc:      svc,
		avatars:  avatars,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

// corsHandler allows the configured origins. Cookies are only allowed for
// explicitly listed origins, never for "*".
func corsHandler(cfg Config) func(http.Handler) http.Handler {
	methods := cfg.CORSMethods
	if len(methods) == 0 {
		methods = DefaultConfig().CORSMethods
	}
	credentials := true
	for _, o := range cfg.CORSOrigins {
		if o == "*" {
			credentials = false
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: credentials,
		MaxAge:           300,
	})
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(corsHandler(s.cfg))
	}
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- OpenAPI spec (no auth required) ---
	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.Version).ServeSpec)

	// --- Discord login happens on the backend ---
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.client.LoginURL(), http.StatusFound)
	})
	r.Get("/logout", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.client.LogoutURL(), http.StatusFound)
	})

	// --- Dashboard API ---
	r.Route("/dashboard/api", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(middleware.RateLimitByIP(s.cfg.RateLimit * middleware.IPBurstFactor))
		}
		r.Use(middleware.Session(s.client, s.logger))
		if s.cfg.RateLimit > 0 {
			r.Use(middleware.RateLimitByStaff(s.cfg.RateLimit))
		}
		handler.NewDashboardHandler(s.client, s.svc, s.avatars, s.logger).Routes(r)
	})

	// --- Embedded dashboard UI ---
	if s.cfg.EnableUI {
		distFS, err := fs.Sub(ui.Dist, "dist")
		if err != nil {
			s.logger.Error("failed to create sub filesystem for UI", "error", err)
		} else {
			// The placeholder keeps the name avatar.Placeholder points at.
			r.Get(avatar.Placeholder, func(w http.ResponseWriter, r *http.Request) {
				serveFile(w, r, distFS, "no-profile.svg", "image/svg+xml")
			})
			// SPA fallback: serve index.html for all UI routes
			spaHandler := func(w http.ResponseWriter, r *http.Request) {
				serveFile(w, r, distFS, "index.html", "text/html; charset=utf-8")
			}
			r.Get("/", spaHandler)
			r.Get("/bans", spaHandler)
			r.Get("/playtime", spaHandler)
			r.Get("/audit", spaHandler)
		}
	}

	s.router = r
}

func serveFile(w http.ResponseWriter, r *http.Request, fsys fs.FS, name, contentType string) {
	f, err := fsys.Open(name)
	if err != nil {
		http.Error(w, "UI not available", http.StatusNotFound)
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		http.Error(w, "UI not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, name, stat.ModTime(), f.(io.ReadSeeker))
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the moderation backend
// answers, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx); err != nil {
		checks["backend"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before stopping background avatar fetches.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "backend", s.client.BaseURL())
		var err error
		if s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
