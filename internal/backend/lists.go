package backend

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskuniversalis/staffportal/internal/model"
)

// Page sizes used by the dashboard views.
const (
	BanPageSize      = 15
	PlaytimePageSize = 15
	AuditPageSize    = 20
)

// BanQuery selects one page of bans.
type BanQuery struct {
	Search           string
	Page             int
	Limit            int
	OnlyUnappealable bool
}

// PlaytimeQuery selects one page of the playtime leaderboard.
type PlaytimeQuery struct {
	Search string
	Page   int
	Limit  int
	Days   int // 7 or 30; 0 means 30
	RankID int // 0 means every rank
}

// AuditQuery selects one page of the audit log.
type AuditQuery struct {
	Admin  string
	Target string
	Action string
	Page   int
	Limit  int
}

// ListBans returns a page of bans, searching by username when Search is set.
func (c *Client) ListBans(ctx context.Context, q BanQuery) (model.ListResult[model.Ban], error) {
	path := "/api/bans/get-all-bans"
	if s := strings.TrimSpace(q.Search); s != "" {
		path = "/api/bans/search-bans/" + segment(s)
	}
	v := pageValues(q.Page, q.Limit, BanPageSize)
	v.Set("onlyUnappealables", strconv.FormatBool(q.OnlyUnappealable))
	return getList[model.Ban](ctx, c, "list bans", path, v)
}

// ListPlaytime returns a page of staff playtime totals.
func (c *Client) ListPlaytime(ctx context.Context, q PlaytimeQuery) (model.ListResult[model.PlaytimeEntry], error) {
	path := "/api/playtime/get-playtimes"
	if s := strings.TrimSpace(q.Search); s != "" {
		path = "/api/playtime/search-playtimes/" + segment(s)
	}
	days := q.Days
	if days <= 0 {
		days = 30
	}
	v := pageValues(q.Page, q.Limit, PlaytimePageSize)
	v.Set("days", strconv.Itoa(days))
	if q.RankID > 0 {
		v.Set("rankId", strconv.Itoa(q.RankID))
	}
	return getList[model.PlaytimeEntry](ctx, c, "list playtime", path, v)
}

// ListAuditLogs returns a page of the audit log.
func (c *Client) ListAuditLogs(ctx context.Context, q AuditQuery) (model.ListResult[model.AuditEntry], error) {
	v := pageValues(q.Page, q.Limit, AuditPageSize)
	if s := strings.TrimSpace(q.Admin); s != "" {
		v.Set("admin", s)
	}
	if s := strings.TrimSpace(q.Target); s != "" {
		v.Set("target", s)
	}
	if s := strings.TrimSpace(q.Action); s != "" {
		v.Set("action", s)
	}
	return getList[model.AuditEntry](ctx, c, "list audit logs", "/api/get-audit-logs", v)
}

func pageValues(page, limit, defaultLimit int) url.Values {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("page", strconv.Itoa(page))
	return v
}

func getList[T any](ctx context.Context, c *Client, op, path string, q url.Values) (model.ListResult[T], error) {
	var out model.ListResult[T]
	if err := c.getJSON(ctx, op, path, q, &out); err != nil {
		return model.ListResult[T]{}, err
	}
	if out.Rows == nil {
		return model.ListResult[T]{}, &RequestError{Op: op, Err: ErrMissingRows}
	}
	return out, nil
}
