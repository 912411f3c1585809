package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/riskuniversalis/staffportal/internal/config"
	"github.com/riskuniversalis/staffportal/internal/server"
	"github.com/riskuniversalis/staffportal/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		noUI   bool
		detach bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the staff dashboard server",
		Long: `Start the HTTP server hosting the staff dashboard and its JSON API. Each
browser signs in with Discord through the backend; the server forwards the
browser's session cookie on every backend call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if detach {
				pid, err := startDetached()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dashboard server started in the background (PID %d)\n", pid)
				fmt.Fprintf(cmd.OutOrStdout(), "  Logs: %s\n", logFilePath())
				fmt.Fprintln(cmd.OutOrStdout(), "  Stop: staffportal stop")
				return nil
			}
			return runServe(cmd, noUI)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the embedded dashboard UI")
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Run in the background (see 'staffportal status' and 'staffportal stop')")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(cmd *cobra.Command, noUI bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	// No CLI session here: every request carries its own browser cookies.
	client, err := newClientWithSession(cfg, logger, "")
	if err != nil {
		return err
	}
	thumbs := newThumbnails(cfg)
	avatars, release, err := newAvatars(cmd.Context(), cfg, thumbs, logger)
	if err != nil {
		return err
	}
	defer release()

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: config.Duration(cfg.Server.ShutdownTimeout, 30*time.Second),
		CORSOrigins:     cfg.Server.CORS.Origins,
		CORSMethods:     cfg.Server.CORS.Methods,
		EnableUI:        !noUI,
		RateLimit:       cfg.Server.RateLimit,
		Version:         versionString(),
	}
	if devMode {
		srvCfg.CORSOrigins = []string{"*"}
	}
	if cfg.Server.TLS.Enabled {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			return fmt.Errorf("%w: server.tls needs cert_file and key_file", config.ErrInvalid)
		}
		srvCfg.TLSCertFile = cfg.Server.TLS.CertFile
		srvCfg.TLSKeyFile = cfg.Server.TLS.KeyFile
	}

	srv := server.New(srvCfg, client, service.New(client, thumbs, logger), avatars, logger)

	scheme := "http"
	if srvCfg.TLSCertFile != "" {
		scheme = "https"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "→ staffportal %s\n", versionString())
	fmt.Fprintf(out, "→ Listening on %s://%s:%d\n", scheme, srvCfg.Host, srvCfg.Port)
	if !noUI {
		fmt.Fprintf(out, "→ Dashboard:  %s://%s:%d/\n", scheme, srvCfg.Host, srvCfg.Port)
	}
	fmt.Fprintf(out, "→ OpenAPI:    %s://%s:%d/openapi.json\n", scheme, srvCfg.Host, srvCfg.Port)
	fmt.Fprintf(out, "→ Backend:    %s\n", client.BaseURL())
	fmt.Fprintln(out)

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("could not write PID file", "path", pidFilePath(), "error", err)
	}
	defer removePID()

	return srv.ListenAndServe()
}
