// Package expiry turns the free-text ban duration typed by staff
// ("7 days", "1 month", "2 yrs") into a concrete expiry time.
package expiry

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Permanent is the text shown when a duration does not parse.
const Permanent = "Permanent"

var durationPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*(day|days|d|month|months|m|year|years|y|yr|ds|ms|yrs)\s*$`)

// Presets offered as quick buttons by the new-ban form.
var NewBanPresets = []string{"7 days", "1 month", "6 months", Permanent}

// Presets offered as quick buttons by the modify-ban form.
var ModifyBanPresets = []string{"14 days", "1 month", "6 months", Permanent}

// Latest is the last instant a JavaScript Date can hold (8.64e15 ms after
// the epoch). Expiries past it are treated as permanent.
var Latest = time.UnixMilli(8_640_000_000_000_000).UTC()

// Amount ceilings per unit, each a little past Latest from any present-day
// now. They keep AddDate away from integer overflow.
const (
	maxDays   = 100_000_000
	maxMonths = 3_310_000
	maxYears  = 276_000
)

// Parse returns the expiry for text relative to now. ok is false when the
// text is empty, does not match "<integer> <unit>", or the expiry does not
// land between now and Latest; callers treat that as a permanent ban.
func Parse(text string, now time.Time) (t time.Time, ok bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, false
	}
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	switch strings.ToLower(m[2]) {
	case "day", "days", "d", "ds":
		if amount > maxDays {
			return time.Time{}, false
		}
		t = now.AddDate(0, 0, amount)
	case "month", "months", "m", "ms":
		if amount > maxMonths {
			return time.Time{}, false
		}
		t = now.AddDate(0, amount, 0)
	case "year", "years", "y", "yr", "yrs":
		if amount > maxYears {
			return time.Time{}, false
		}
		t = now.AddDate(amount, 0, 0)
	default:
		return time.Time{}, false
	}
	if t.Before(now) || t.After(Latest) {
		return time.Time{}, false
	}
	return t, true
}

// Unix parses text and returns the expiry as unix seconds, or nil for a
// permanent ban. This is the shape the backend expects for expiresIn and
// expiration.
func Unix(text string, now time.Time) *int64 {
	return UnixPtr(Parse(text, now))
}

// UnixPtr converts a Parse result to unix seconds, nil when !ok.
func UnixPtr(t time.Time, ok bool) *int64 {
	if !ok {
		return nil
	}
	secs := t.Unix()
	return &secs
}

// Describe renders the parsed expiry the way the ban forms preview it:
// "Permanent" or a long date such as "January 2nd, 2006".
func Describe(text string, now time.Time) string {
	t, ok := Parse(text, now)
	if !ok {
		return Permanent
	}
	return LongDate(t)
}

// LongDate formats t as "January 2nd, 2006".
func LongDate(t time.Time) string {
	return t.Format("January ") + strconv.Itoa(t.Day()) + Ordinal(t.Day()) + t.Format(", 2006")
}

// Ordinal returns the English ordinal suffix for a day of the month.
func Ordinal(n int) string {
	if n > 3 && n < 21 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
