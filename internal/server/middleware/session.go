package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/model"
)

type contextKeyStaff string

// StaffKey is the context key for the signed-in staff member.
const StaffKey contextKeyStaff = "staff_member"

// LoginPath is where unauthenticated dashboard clients are sent.
const LoginPath = "/login"

// SessionChecker resolves the staff member behind the request's cookies.
type SessionChecker interface {
	Me(ctx context.Context) (*model.StaffMember, error)
}

// Session returns an HTTP middleware that forwards the caller's cookies to
// the moderation backend and asks it who they are. Requests without a valid
// session get a 401 JSON response pointing at LoginPath.
//
// The cookies stay attached to the request context, so handlers further
// down the chain talk to the backend as the same staff member.
func Session(checker SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := backend.WithCookies(r.Context(), r.Cookies())

			staff, err := checker.Me(ctx)
			if err != nil {
				if !errors.Is(err, backend.ErrUnauthenticated) {
					logger.Warn("session check failed", "error", err, "request_id", GetRequestID(r.Context()))
				}
				writeAuthError(w, http.StatusUnauthorized, "Authentication required. Log in with Discord.")
				return
			}

			ctx = context.WithValue(ctx, StaffKey, staff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetStaff extracts the signed-in staff member from the context.
// Returns nil outside the Session middleware.
func GetStaff(ctx context.Context) *model.StaffMember {
	if s, ok := ctx.Value(StaffKey).(*model.StaffMember); ok {
		return s
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error:    model.ErrorDetail{Code: status, Message: message},
		Redirect: LoginPath,
	})
}
