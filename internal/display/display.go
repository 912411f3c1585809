// Package display formats moderation records for people: timestamps,
// playtime durations, rank colours and audit sentences.
package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskuniversalis/staffportal/internal/expiry"
	"github.com/riskuniversalis/staffportal/internal/model"
)

// AuditTime formats a unix timestamp as "2nd January 2024 3:04PM".
func AuditTime(unix int64, loc *time.Location) string {
	t := inLocation(unix, loc)
	return strconv.Itoa(t.Day()) + expiry.Ordinal(t.Day()) + t.Format(" January 2006 3:04PM")
}

// BanTime formats a unix timestamp as "Jan 02, 2024, 3:04 PM".
func BanTime(unix int64, loc *time.Location) string {
	return inLocation(unix, loc).Format("Jan 02, 2006, 3:04 PM")
}

// Expires renders a ban's expiry column.
func Expires(b model.Ban, loc *time.Location) string {
	if b.Expires == nil {
		return expiry.Permanent
	}
	return BanTime(*b.Expires, loc)
}

func inLocation(unix int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc)
}

// Playtime renders a number of seconds as "1 hour, 2 minutes, 5 seconds".
// Zero components are omitted; non-positive input yields "0 seconds".
func Playtime(seconds int64) string {
	if seconds <= 0 {
		return "0 seconds"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	var parts []string
	if h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	if s > 0 {
		parts = append(parts, plural(s, "second"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// AuditSentence describes an audit entry in one line.
func AuditSentence(e model.AuditEntry) string {
	admin, target := e.Admin(), e.Target()
	switch e.Action {
	case model.ActionBan:
		return admin + " banned " + target
	case model.ActionUnban:
		return admin + " unbanned " + target
	case model.ActionModify:
		return admin + " modified " + target + "'s ban!"
	}
	return fmt.Sprintf("%s performed %q on %s", admin, string(e.Action), target)
}

// ProfileURL links to a player's Roblox profile.
func ProfileURL(userID int64) string {
	return "https://www.roblox.com/users/" + strconv.FormatInt(userID, 10) + "/profile"
}
