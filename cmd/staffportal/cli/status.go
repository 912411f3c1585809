package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the dashboard server is running",
		Long:  "Check the dashboard server started with 'staffportal serve': process state and HTTP health.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	pid, err := readPID()
	if err != nil {
		fmt.Fprintln(out, "Server is not running (no PID file found).")
		return nil
	}
	if !isProcessRunning(pid) {
		removePID()
		fmt.Fprintln(out, "Server is not running (stale PID file removed).")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	healthAddr := fmt.Sprintf("%s://%s:%d/readyz", scheme, host, cfg.Server.Port)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(healthAddr)
	if err != nil {
		fmt.Fprintf(out, "Server process is running (PID %d) but not responding to HTTP.\n", pid)
		fmt.Fprintf(out, "  Logs: %s\n", logFilePath())
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()

	fmt.Fprintf(out, "Server is running (PID %d)\n", pid)
	fmt.Fprintf(out, "  Ready:   %s (%d) %s\n", healthAddr, resp.StatusCode, strings.TrimSpace(string(body)))
	fmt.Fprintf(out, "  Logs:    %s\n", logFilePath())
	return nil
}
