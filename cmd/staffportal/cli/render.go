package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/riskuniversalis/staffportal/internal/display"
	"github.com/riskuniversalis/staffportal/internal/model"
)

// Tables are padded with Printf widths; the last column takes whatever the
// terminal has left.

func printBans(w io.Writer, rows []model.Ban, loc *time.Location, width int) {
	const fixed = 20 + 16 + 24 + 6 + 4
	reasonWidth := max(width-fixed, 20)
	fmt.Fprintf(w, "%-20s %-16s %-24s %-6s %s\n", "USER", "BANNED BY", "EXPIRES", "APPEAL", "REASON")
	fmt.Fprintf(w, "%-20s %-16s %-24s %-6s %s\n", "----", "---------", "-------", "------", "------")
	for _, b := range rows {
		appeal := "yes"
		if !b.Appealable.IsAppealable() {
			appeal = "no"
		}
		fmt.Fprintf(w, "%-20s %-16s %-24s %-6s %s\n",
			truncate(b.BannedUser, 20),
			truncate(b.BannedBy, 16),
			display.Expires(b, loc),
			appeal,
			truncate(oneLine(b.Reason), reasonWidth))
	}
}

func printBanDetail(w io.Writer, b model.Ban, loc *time.Location) {
	fmt.Fprintf(w, "#%d %s\n", b.ID, b.BannedUser)
	fmt.Fprintf(w, "  banned by: %s\n", b.BannedBy)
	fmt.Fprintf(w, "  logged:    %s\n", display.BanTime(b.LoggedAt, loc))
	fmt.Fprintf(w, "  expires:   %s\n", display.Expires(b, loc))
	fmt.Fprintf(w, "  appeal:    %t\n", b.Appealable.IsAppealable())
	fmt.Fprintf(w, "  reason:    %s\n", b.Reason)
	if b.LogsLink != "" {
		fmt.Fprintf(w, "  logs:      %s\n", b.LogsLink)
	}
}

func printPlaytime(w io.Writer, rows []model.PlaytimeEntry, offset int) {
	fmt.Fprintf(w, "%-4s %-20s %-24s %s\n", "#", "USER", "ROLE", "TIME")
	fmt.Fprintf(w, "%-4s %-20s %-24s %s\n", "-", "----", "----", "----")
	for i, p := range rows {
		fmt.Fprintf(w, "%-4d %-20s %-24s %s\n",
			offset+i+1,
			truncate(p.Username, 20),
			truncate(p.Role, 24),
			display.Playtime(p.Seconds))
	}
}

func printAudit(w io.Writer, rows []model.AuditEntry, loc *time.Location, width int) {
	const fixed = 28 + 12 + 2
	fmt.Fprintf(w, "%-28s %-12s %s\n", "WHEN", "ACTION", "WHAT")
	fmt.Fprintf(w, "%-28s %-12s %s\n", "----", "------", "----")
	for _, e := range rows {
		fmt.Fprintf(w, "%-28s %-12s %s\n",
			display.AuditTime(e.Timestamp, loc),
			e.Action.Label(),
			truncate(display.AuditSentence(e), max(width-fixed, 20)))
	}
}

func printPageFooter(w io.Writer, page, pageCount int) {
	fmt.Fprintf(w, "\nPage %d of %d\n", page, max(pageCount, 1))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
