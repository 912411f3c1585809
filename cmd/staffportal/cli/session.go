package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/riskuniversalis/staffportal/internal/config"
	"github.com/riskuniversalis/staffportal/internal/display"
)

// ---------- login ----------

func newLoginCmd() *cobra.Command {
	var cookie string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save your staff session for CLI and MCP use",
		Long: `Sign in through Discord in a browser, then paste the value of the backend's
session cookie. The session is checked against the backend and saved in the
data directory, readable only by you.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), cmd.OutOrStdout(), cookie)
		},
	}

	cmd.Flags().StringVar(&cookie, "cookie", "", "Session cookie value (prompted if omitted)")

	return cmd
}

func runLogin(ctx context.Context, out io.Writer, cookie string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cookie == "" {
		probe, err := newClientWithSession(cfg, logger, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "1. Sign in at %s\n", probe.LoginURL())
		fmt.Fprintf(out, "2. Copy the %q cookie for %s\n\n", probe.CookieName(), probe.BaseURL())
		cookie, err = promptSecret(out, "Session cookie: ")
		if err != nil {
			return err
		}
	}

	client, err := newClientWithSession(cfg, logger, cookie)
	if err != nil {
		return err
	}
	me, err := client.Me(ctx)
	if err != nil {
		return describeError("verify session", err)
	}
	if err := config.SaveSession(resolveDataDir(), cookie); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Fprintf(out, "Signed in as %s (%s)\n", me.Username, me.Rank)
	return nil
}

// promptSecret reads a line without echo when stdin is a terminal.
func promptSecret(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read session cookie: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read session cookie: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ---------- logout ----------

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved staff session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearSession(resolveDataDir()); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

// ---------- whoami ----------

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the staff member the saved session belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runWhoami(ctx context.Context, out io.Writer) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return describeError("whoami", err)
	}

	if jsonOutput {
		return printJSON(out, map[string]interface{}{
			"username":  me.Username,
			"rank":      me.Rank,
			"rankid":    me.RankID,
			"robloxid":  me.RobloxID,
			"discordid": me.DiscordID,
			"color":     display.RoleColor(me.Rank),
		})
	}

	fmt.Fprintf(out, "%s\n", me.Username)
	fmt.Fprintf(out, "  rank:    %s (%d)\n", me.Rank, me.RankID)
	if me.RobloxID > 0 {
		fmt.Fprintf(out, "  roblox:  %s\n", display.ProfileURL(me.RobloxID))
	}
	if me.DiscordID != "" {
		fmt.Fprintf(out, "  discord: %s\n", me.DiscordID)
	}
	return nil
}
