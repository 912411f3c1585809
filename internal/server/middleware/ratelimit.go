package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// IPBurstFactor is how many staff sessions' worth of requests one IP may send
// before the session check runs. Staff sharing an office IP stay under it.
const IPBurstFactor = 4

// RateLimitByIP limits requests per client IP to the specified number per
// minute. It runs before Session so unauthenticated traffic cannot fan out
// into /api/auth calls.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// RateLimitByStaff limits requests per signed-in staff member. It must run
// after Session; requests without a staff member are keyed by IP.
func RateLimitByStaff(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if staff := GetStaff(r.Context()); staff != nil {
				return staffKey(staff.DiscordID, staff.RobloxID, staff.Username), nil
			}
			return httprate.KeyByIP(r)
		}),
	)
}

func staffKey(discordID string, robloxID int64, username string) string {
	if discordID != "" {
		return "discord:" + discordID
	}
	if robloxID != 0 {
		return "roblox:" + strconv.FormatInt(robloxID, 10)
	}
	return "user:" + username
}
