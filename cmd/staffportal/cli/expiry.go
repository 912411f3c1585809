package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskuniversalis/staffportal/internal/expiry"
)

func newExpiryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expiry <duration>",
		Short: "Preview when a ban duration expires",
		Example: `  staffportal expiry 7 days
  staffportal expiry "6 months"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpiry(cmd.OutOrStdout(), strings.Join(args, " "), time.Now())
		},
	}
}

func runExpiry(out io.Writer, text string, now time.Time) error {
	exp := expiry.Unix(text, now)
	if jsonOutput {
		return printJSON(out, map[string]interface{}{
			"text":        text,
			"permanent":   exp == nil,
			"expires":     exp,
			"description": expiry.Describe(text, now),
		})
	}
	if exp == nil {
		fmt.Fprintln(out, expiry.Permanent)
		return nil
	}
	fmt.Fprintf(out, "%s (unix %d)\n", expiry.Describe(text, now), *exp)
	return nil
}
