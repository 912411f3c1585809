package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/display"
	"github.com/riskuniversalis/staffportal/internal/expiry"
	"github.com/riskuniversalis/staffportal/internal/model"
	"github.com/riskuniversalis/staffportal/internal/service"
)

func newBansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bans",
		Short: "List, create, modify and remove bans",
	}

	cmd.AddCommand(newBansListCmd())
	cmd.AddCommand(newBansAddCmd())
	cmd.AddCommand(newBansModifyCmd())
	cmd.AddCommand(newBansRemoveCmd())
	cmd.AddCommand(newBansHistoryCmd())

	return cmd
}

// ---------- bans list ----------

func newBansListCmd() *cobra.Command {
	var (
		search       string
		page         int
		unappealable bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active bans, newest first",
		Example: `  staffportal bans list
  staffportal bans list --search builder --page 2
  staffportal bans list --unappealable --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBansList(cmd.Context(), cmd.OutOrStdout(), backend.BanQuery{
				Search:           search,
				Page:             max(page, 1),
				OnlyUnappealable: unappealable,
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Username search text")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().BoolVar(&unappealable, "unappealable", false, "Only unappealable bans")

	return cmd
}

func runBansList(ctx context.Context, out io.Writer, q backend.BanQuery) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	res, err := a.client.ListBans(ctx, q)
	if err != nil {
		return describeError("list bans", err)
	}

	if jsonOutput {
		return printJSON(out, model.PageResponse[model.Ban]{Rows: res.Rows, Page: q.Page, PageCount: max(res.PageCount, 1)})
	}
	if len(res.Rows) == 0 {
		fmt.Fprintln(out, "No bans found.")
		return nil
	}
	printBans(out, res.Rows, a.loc, terminalWidth())
	printPageFooter(out, q.Page, res.PageCount)
	return nil
}

// ---------- bans add ----------

func newBansAddCmd() *cobra.Command {
	var (
		form    service.BanForm
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Ban a Roblox user",
		Long: `Ban a Roblox user. Give one or more --reason presets and/or --additional
text, and a --logs link. --duration takes "<n> days|months|years"; anything
else, or nothing, bans permanently.

Reason presets: ` + strings.Join(service.ReasonPresets, ", "),
		Example: `  staffportal bans add Exploiter123 --reason Exploiting --logs https://discord.com/channels/1/2/3 --duration "7 days"
  staffportal bans add Griefer --reason Griefing --reason Toxicity --additional "repeat offender" --logs <link> --unappealable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Username = args[0]
			return runBansAdd(cmd.Context(), cmd.OutOrStdout(), form, confirm)
		},
	}

	cmd.Flags().StringArrayVarP(&form.Reasons, "reason", "r", nil, "Preset reason (repeatable)")
	cmd.Flags().StringVar(&form.Additional, "additional", "", "Additional reason text")
	cmd.Flags().StringVarP(&form.LogsLink, "logs", "l", "", "Link to the logs backing the ban")
	cmd.Flags().StringVarP(&form.Duration, "duration", "d", "", "Ban length, e.g. \"7 days\" (default permanent)")
	cmd.Flags().BoolVar(&form.Unappealable, "unappealable", false, "Mark the ban as not appealable")
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runBansAdd(ctx context.Context, out io.Writer, form service.BanForm, confirm bool) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return describeError("ban", err)
	}

	if !confirm {
		prompt := fmt.Sprintf("Ban %s (expires: %s)? [y/N] ",
			strings.TrimSpace(form.Username), expiry.Describe(form.Duration, time.Now()))
		if !askYesNo(out, prompt) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	sent, err := a.svc.CreateBan(ctx, form)
	if err != nil {
		return describeError("ban "+form.Username, err)
	}
	if jsonOutput {
		return printJSON(out, sent)
	}
	fmt.Fprintf(out, "Banned %s (%s)\n", sent.User, expiresText(sent.ExpiresIn, a))
	fmt.Fprintf(out, "  reason: %s\n", sent.Reason)
	return nil
}

// ---------- bans modify ----------

func newBansModifyCmd() *cobra.Command {
	var form service.ModifyForm

	cmd := &cobra.Command{
		Use:   "modify <username>",
		Short: "Replace the reason and expiry of an active ban",
		Example: `  staffportal bans modify Exploiter123 --reason "Exploiting; appeal denied" --duration "1 year"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Username = args[0]
			return runBansModify(cmd.Context(), cmd.OutOrStdout(), form)
		},
	}

	cmd.Flags().StringVarP(&form.Reason, "reason", "r", "", "New ban reason (required)")
	cmd.Flags().StringVarP(&form.Duration, "duration", "d", "", "New ban length from now (default permanent)")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func runBansModify(ctx context.Context, out io.Writer, form service.ModifyForm) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	sent, err := a.svc.ModifyBan(ctx, form)
	if err != nil {
		return describeError("modify ban", err)
	}
	if jsonOutput {
		return printJSON(out, sent)
	}
	fmt.Fprintf(out, "Modified the ban of %s (%s)\n", strings.TrimSpace(form.Username), expiresText(sent.Expiration, a))
	return nil
}

// ---------- bans remove ----------

func newBansRemoveCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:     "remove <username>",
		Aliases: []string{"unban"},
		Short:   "Lift a user's ban",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBansRemove(cmd.Context(), cmd.OutOrStdout(), args[0], confirm)
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runBansRemove(ctx context.Context, out io.Writer, username string, confirm bool) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	if !confirm && !askYesNo(out, fmt.Sprintf("Remove the ban of %s? [y/N] ", username)) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err := a.svc.RemoveBan(ctx, username); err != nil {
		return describeError("remove ban", err)
	}
	fmt.Fprintf(out, "Removed the ban of %s\n", strings.TrimSpace(username))
	return nil
}

// ---------- bans history ----------

func newBansHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <username>",
		Short: "Show every ban on record for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBansHistory(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func runBansHistory(ctx context.Context, out io.Writer, username string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	h, err := a.svc.History(ctx, username)
	if err != nil {
		return describeError("ban history", err)
	}
	if jsonOutput {
		return printJSON(out, h)
	}

	status := "not banned"
	if h.IsBanned {
		status = "BANNED"
	}
	fmt.Fprintf(out, "%s (%d): %s\n", h.Username, h.UserID, status)
	fmt.Fprintf(out, "  profile: %s\n", display.ProfileURL(h.UserID))
	if h.Avatar != "" {
		fmt.Fprintf(out, "  avatar:  %s\n", h.Avatar)
	}
	if len(h.Bans) == 0 {
		fmt.Fprintln(out, "\nNo bans on record.")
		return nil
	}
	for _, b := range h.Bans {
		fmt.Fprintln(out)
		printBanDetail(out, b, a.loc)
	}
	return nil
}

// askYesNo prompts on out and reads an answer from stdin.
func askYesNo(out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func expiresText(unix *int64, a *app) string {
	if unix == nil {
		return expiry.Permanent
	}
	return "until " + display.BanTime(*unix, a.loc)
}
