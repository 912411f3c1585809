package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/display"
	"github.com/riskuniversalis/staffportal/internal/model"
)

func newPlaytimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playtime",
		Short: "Staff playtime tracker",
	}

	cmd.AddCommand(newPlaytimeListCmd())
	cmd.AddCommand(newPlaytimeRanksCmd())

	return cmd
}

func newPlaytimeListCmd() *cobra.Command {
	var (
		search string
		page   int
		days   int
		rank   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the playtime leaderboard",
		Example: `  staffportal playtime list
  staffportal playtime list --days 7 --rank Moderator`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days != 7 && days != 30 {
				return fmt.Errorf("--days must be 7 or 30")
			}
			rankID, err := parseRank(rank)
			if err != nil {
				return err
			}
			return runPlaytimeList(cmd.Context(), cmd.OutOrStdout(), backend.PlaytimeQuery{
				Search: search,
				Page:   max(page, 1),
				Days:   days,
				RankID: rankID,
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Username search text")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&days, "days", 30, "Window in days: 7 or 30")
	cmd.Flags().StringVar(&rank, "rank", "", "Only this rank (name or id, see 'playtime ranks')")

	return cmd
}

// parseRank accepts a rank id or a case-insensitive rank name.
func parseRank(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if id, err := strconv.Atoi(s); err == nil {
		if _, ok := display.RankByID(id); ok {
			return id, nil
		}
		return 0, fmt.Errorf("unknown rank id %d", id)
	}
	for _, r := range display.Ranks {
		if strings.EqualFold(r.Name, s) {
			return r.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q (see 'staffportal playtime ranks')", s)
}

func runPlaytimeList(ctx context.Context, out io.Writer, q backend.PlaytimeQuery) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	res, err := a.client.ListPlaytime(ctx, q)
	if err != nil {
		return describeError("list playtime", err)
	}

	if jsonOutput {
		return printJSON(out, model.PageResponse[model.PlaytimeEntry]{Rows: res.Rows, Page: q.Page, PageCount: max(res.PageCount, 1)})
	}
	if len(res.Rows) == 0 {
		fmt.Fprintln(out, "No playtime recorded.")
		return nil
	}
	printPlaytime(out, res.Rows, (q.Page-1)*backend.PlaytimePageSize)
	printPageFooter(out, q.Page, res.PageCount)
	return nil
}

func newPlaytimeRanksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranks",
		Short: "List staff ranks and their ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, display.Ranks)
			}
			fmt.Fprintf(out, "%-5s %-24s %s\n", "ID", "NAME", "COLOR")
			fmt.Fprintf(out, "%-5s %-24s %s\n", "--", "----", "-----")
			for _, r := range display.Ranks {
				fmt.Fprintf(out, "%-5d %-24s %s\n", r.ID, r.Name, r.Color)
			}
			return nil
		},
	}
}
