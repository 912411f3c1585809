package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskuniversalis/staffportal/internal/model"
)

// Me returns the staff member the session belongs to.
func (c *Client) Me(ctx context.Context) (*model.StaffMember, error) {
	var out struct {
		Success bool               `json:"success"`
		Data    *model.StaffMember `json:"data"`
	}
	if err := c.getJSON(ctx, "get current staff", "/api/auth", nil, &out); err != nil {
		var reqErr *RequestError
		if errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
		if errors.As(err, &reqErr) && reqErr.StatusCode != 0 && reqErr.StatusCode < http.StatusInternalServerError {
			return nil, &RequestError{Op: reqErr.Op, StatusCode: reqErr.StatusCode, Err: ErrUnauthenticated}
		}
		return nil, err
	}
	if !out.Success || out.Data == nil {
		return nil, ErrUnauthenticated
	}
	return out.Data, nil
}

// Ping reports whether the backend answers HTTP at all. Any status counts
// as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping backend", http.MethodGet, "/api/auth", nil, nil)
	return err
}

// LookupUserID resolves a Roblox username to its user id.
func (c *Client) LookupUserID(ctx context.Context, username string) (int64, error) {
	if strings.TrimSpace(username) == "" {
		return 0, ErrUserNotFound
	}
	var out struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, "lookup user id", "/api/get-user-id/"+segment(username), nil, &out); err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if !out.Success {
		return 0, ErrUserNotFound
	}
	id, ok := parseID(out.Data)
	if !ok {
		return 0, ErrUserNotFound
	}
	return id, nil
}

// parseID accepts a positive id sent as a JSON number or a numeric string.
func parseID(raw json.RawMessage) (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
