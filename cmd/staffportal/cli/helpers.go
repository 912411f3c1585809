package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/riskuniversalis/staffportal/internal/avatar"
	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/config"
	"github.com/riskuniversalis/staffportal/internal/service"
)

var (
	// dataDir holds the --data-dir persistent flag value.
	dataDir string

	jsonOutput bool
	devMode    bool
)

// resolveDataDir returns the data directory from --data-dir flag,
// STAFFPORTAL_DATA_DIR env var, or ~/.staffportal as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("STAFFPORTAL_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".staffportal")
}

// loadConfig returns the effective configuration: file, environment and
// defaults, validated.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newLogger builds the slog logger described by the logging section.
// --dev forces debug level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(cfg.Logging.Level)); err == nil {
		level = parsed
	}
	if devMode {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// sessionCookie returns backend.session_cookie or the session saved by
// login. A missing session is only an error when required.
func sessionCookie(cfg *config.Config, required bool) (string, error) {
	if s := strings.TrimSpace(cfg.Backend.SessionCookie); s != "" {
		return s, nil
	}
	s, err := config.LoadSession(resolveDataDir())
	if err != nil {
		if errors.Is(err, config.ErrNoSession) && !required {
			return "", nil
		}
		return "", err
	}
	return s, nil
}

// newClient returns a backend client carrying the CLI session.
func newClient(cfg *config.Config, logger *slog.Logger, requireSession bool) (*backend.Client, error) {
	session, err := sessionCookie(cfg, requireSession)
	if err != nil {
		return nil, err
	}
	return newClientWithSession(cfg, logger, session)
}

func newClientWithSession(cfg *config.Config, logger *slog.Logger, session string) (*backend.Client, error) {
	return backend.NewClient(backend.Options{
		BaseURL:       cfg.Backend.URL,
		SessionCookie: session,
		CookieName:    cfg.Backend.CookieName,
		Timeout:       config.Duration(cfg.Backend.Timeout, 10*time.Second),
		Logger:        logger,
	})
}

func newThumbnails(cfg *config.Config) *avatar.Thumbnails {
	return avatar.NewThumbnails(cfg.Thumbnails.Host, config.Duration(cfg.Thumbnails.Timeout, 10*time.Second))
}

// newAvatars builds the avatar resolver factory, backed by redis when
// thumbnails.redis_url is set. The returned func closes the redis client.
func newAvatars(ctx context.Context, cfg *config.Config, thumbs avatar.Fetcher, logger *slog.Logger) (*avatar.Factory, func(), error) {
	opts := avatar.Options{
		BatchSize: cfg.Thumbnails.BatchSize,
		Retries:   cfg.Thumbnails.Retries,
		Backoff:   config.Duration(cfg.Thumbnails.Backoff, 250*time.Millisecond),
		Logger:    logger,
	}
	closeStore := func() {}
	if url := cfg.Thumbnails.RedisURL; url != "" {
		client, err := avatar.OpenRedis(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		opts.Store = avatar.NewRedisStore(client,
			cfg.Thumbnails.RedisPrefix,
			config.Duration(cfg.Thumbnails.RedisTTL, 24*time.Hour))
		closeStore = func() { client.Close() }
		logger.Info("avatar cache backed by redis", "prefix", cfg.Thumbnails.RedisPrefix)
	}
	return avatar.NewFactory(thumbs, opts), closeStore, nil
}

// app is what most commands need: config, logger, client and forms.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *backend.Client
	thumbs *avatar.Thumbnails
	svc    *service.Service
	loc    *time.Location
}

// newApp loads config and builds the backend client. Commands talking to
// the backend need a saved session.
func newApp(requireSession bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	client, err := newClient(cfg, logger, requireSession)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	thumbs := newThumbnails(cfg)
	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		thumbs: thumbs,
		svc:    service.New(client, thumbs, logger),
		loc:    loc,
	}, nil
}

// printJSON writes v indented to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// terminalWidth returns the stdout width, or 100 when stdout is not a
// terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}

// truncate shortens s to n runes, marking the cut with "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// describeError turns backend failures into something a staff member can
// act on.
func describeError(op string, err error) error {
	var vErr *service.ValidationError
	var mErr *backend.MutationError
	switch {
	case errors.Is(err, backend.ErrUnauthenticated):
		return fmt.Errorf("%s: session expired (run 'staffportal login')", op)
	case errors.Is(err, backend.ErrUserNotFound):
		return fmt.Errorf("%s: no Roblox user with that username", op)
	case errors.As(err, &vErr):
		return errors.New(vErr.Message)
	case errors.As(err, &mErr):
		return fmt.Errorf("%s: %s", op, backend.UserMessage(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
