package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/model"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Moderation audit log",
	}

	cmd.AddCommand(newAuditListCmd())

	return cmd
}

func newAuditListCmd() *cobra.Command {
	var (
		q      backend.AuditQuery
		action string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries, newest first",
		Example: `  staffportal audit list
  staffportal audit list --admin AdminBob --action ban`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if action != "" {
				a, err := model.ParseAuditAction(action)
				if err != nil {
					return err
				}
				q.Action = string(a)
			}
			q.Page = max(q.Page, 1)
			return runAuditList(cmd.Context(), cmd.OutOrStdout(), q)
		},
	}

	cmd.Flags().StringVar(&q.Admin, "admin", "", "Admin username")
	cmd.Flags().StringVar(&q.Target, "target", "", "Target player username")
	cmd.Flags().StringVar(&action, "action", "", "ban, modify or unban")
	cmd.Flags().IntVarP(&q.Page, "page", "p", 1, "Page number")

	return cmd
}

func runAuditList(ctx context.Context, out io.Writer, q backend.AuditQuery) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	res, err := a.client.ListAuditLogs(ctx, q)
	if err != nil {
		return describeError("list audit logs", err)
	}

	if jsonOutput {
		return printJSON(out, model.PageResponse[model.AuditEntry]{Rows: res.Rows, Page: q.Page, PageCount: max(res.PageCount, 1)})
	}
	if len(res.Rows) == 0 {
		fmt.Fprintln(out, "No audit log entries.")
		return nil
	}
	printAudit(out, res.Rows, a.loc, terminalWidth())
	printPageFooter(out, q.Page, res.PageCount)
	return nil
}
