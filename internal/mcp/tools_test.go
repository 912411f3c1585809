package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/model"
	"github.com/riskuniversalis/staffportal/internal/service"
)

// fakeBackend serves both the read tools and the service's form calls.
type fakeBackend struct {
	meErr error

	bans     []model.Ban
	playtime []model.PlaytimeEntry
	audit    []model.AuditEntry

	lastBanQuery      backend.BanQuery
	lastPlaytimeQuery backend.PlaytimeQuery
	lastAuditQuery    backend.AuditQuery

	posted   []model.PostBanRequest
	modified map[string]model.ModifyBanRequest
	deleted  []string
	postErr  error
}

func (f *fakeBackend) Me(ctx context.Context) (*model.StaffMember, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &model.StaffMember{RankID: 20, Rank: "Moderator", Username: "ModMia", RobloxID: 11}, nil
}

func (f *fakeBackend) ListBans(ctx context.Context, q backend.BanQuery) (model.ListResult[model.Ban], error) {
	f.lastBanQuery = q
	return model.ListResult[model.Ban]{Rows: f.bans, PageCount: 3}, nil
}

func (f *fakeBackend) ListPlaytime(ctx context.Context, q backend.PlaytimeQuery) (model.ListResult[model.PlaytimeEntry], error) {
	f.lastPlaytimeQuery = q
	return model.ListResult[model.PlaytimeEntry]{Rows: f.playtime, PageCount: 1}, nil
}

func (f *fakeBackend) ListAuditLogs(ctx context.Context, q backend.AuditQuery) (model.ListResult[model.AuditEntry], error) {
	f.lastAuditQuery = q
	return model.ListResult[model.AuditEntry]{Rows: f.audit}, nil
}

func (f *fakeBackend) PostBan(ctx context.Context, req model.PostBanRequest) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, req)
	return nil
}

func (f *fakeBackend) ModifyBan(ctx context.Context, username string, req model.ModifyBanRequest) error {
	if f.modified == nil {
		f.modified = make(map[string]model.ModifyBanRequest)
	}
	f.modified[username] = req
	return nil
}

func (f *fakeBackend) DeleteBan(ctx context.Context, username string) error {
	f.deleted = append(f.deleted, username)
	return nil
}

func (f *fakeBackend) BanHistory(ctx context.Context, username string) (*model.BanHistory, error) {
	return &model.BanHistory{IsBanned: true, Bans: []model.Ban{{ID: 1, BannedUser: username}}}, nil
}

func (f *fakeBackend) LookupUserID(ctx context.Context, username string) (int64, error) {
	if username == "Ghost" {
		return 0, backend.ErrUserNotFound
	}
	return 77, nil
}

func newTestServer(t *testing.T) (*MCPServer, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewMCPServer(fb, service.New(fb, nil, logger), "test", logger)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return s, fb
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, v interface{}) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestNewMCPServer(t *testing.T) {
	s, _ := newTestServer(t)
	if s.Server() == nil {
		t.Fatal("Server() returned nil")
	}
}

func TestWhoami(t *testing.T) {
	s, fb := newTestServer(t)

	res, err := s.handleWhoami(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var me map[string]interface{}
	decodeResult(t, res, &me)
	if me["username"] != "ModMia" || me["color"] != "#e0982cff" {
		t.Errorf("whoami = %v", me)
	}

	fb.meErr = backend.ErrUnauthenticated
	res, _ = s.handleWhoami(context.Background(), callRequest(nil))
	if !res.IsError {
		t.Error("expected error result for expired session")
	}
}

func TestListBans(t *testing.T) {
	s, fb := newTestServer(t)
	exp := int64(1700000000)
	fb.bans = []model.Ban{
		{ID: 1, BannedUser: "A", BannedUserID: 5},
		{ID: 2, BannedUser: "B", Expires: &exp},
	}

	res, err := s.handleListBans(context.Background(), callRequest(map[string]interface{}{
		"search":       "a",
		"page":         float64(2),
		"unappealable": true,
	}))
	if err != nil {
		t.Fatal(err)
	}

	var page struct {
		Rows []struct {
			BannedUser  string `json:"banned_user"`
			ExpiresText string `json:"expires_text"`
			Profile     string `json:"profile_url"`
		} `json:"rows"`
		Page      int `json:"page"`
		PageCount int `json:"pageCount"`
	}
	decodeResult(t, res, &page)

	if fb.lastBanQuery.Search != "a" || fb.lastBanQuery.Page != 2 || !fb.lastBanQuery.OnlyUnappealable {
		t.Errorf("query = %+v", fb.lastBanQuery)
	}
	if page.Page != 2 || page.PageCount != 3 || len(page.Rows) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Rows[0].ExpiresText != "Permanent" {
		t.Errorf("expires_text = %q, want Permanent", page.Rows[0].ExpiresText)
	}
	if page.Rows[1].ExpiresText == "Permanent" {
		t.Error("timed ban rendered as permanent")
	}
	if page.Rows[0].Profile != "https://www.roblox.com/users/5/profile" {
		t.Errorf("profile_url = %q", page.Rows[0].Profile)
	}
}

func TestCreateBan(t *testing.T) {
	s, fb := newTestServer(t)

	res, err := s.handleCreateBan(context.Background(), callRequest(map[string]interface{}{
		"username":   "  Exploiter  ",
		"reasons":    []interface{}{"exploiting", "Toxicity"},
		"additional": "flew around",
		"logs_link":  "https://discord.com/channels/1/2/3",
		"duration":   "3 days",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if len(fb.posted) != 1 {
		t.Fatalf("posted %d bans, want 1", len(fb.posted))
	}
	got := fb.posted[0]
	if got.User != "Exploiter" || got.Reason != "Exploiting; Toxicity; flew around" {
		t.Errorf("posted = %+v", got)
	}
	if got.ExpiresIn == nil || !got.Appealable {
		t.Errorf("posted = %+v", got)
	}
}

func TestCreateBan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"no username", map[string]interface{}{"reasons": []interface{}{"Griefing"}, "logs_link": "x"}, `"username"`},
		{"no reason", map[string]interface{}{"username": "A", "logs_link": "x"}, service.MsgInvalidReason},
		{"no logs", map[string]interface{}{"username": "A", "reasons": []interface{}{"Griefing"}}, service.MsgInvalidLogsLink},
		{"unknown preset", map[string]interface{}{"username": "A", "reasons": []interface{}{"Speeding"}, "logs_link": "x"}, "Speeding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fb := newTestServer(t)
			res, err := s.handleCreateBan(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Fatal("expected error result")
			}
			if text := resultText(t, res); !strings.Contains(text, tt.want) {
				t.Errorf("text = %q, want it to contain %q", text, tt.want)
			}
			if len(fb.posted) != 0 {
				t.Error("invalid ban reached the backend")
			}
		})
	}
}

func TestCreateBan_Rejected(t *testing.T) {
	s, fb := newTestServer(t)
	fb.postErr = &backend.MutationError{Status: 400, Message: "User is already banned!"}

	res, _ := s.handleCreateBan(context.Background(), callRequest(map[string]interface{}{
		"username":  "A",
		"reasons":   []interface{}{"Griefing"},
		"logs_link": "x",
	}))
	if !res.IsError || !strings.Contains(resultText(t, res), "User is already banned!") {
		t.Errorf("result = %+v", res)
	}
}

func TestModifyAndRemoveBan(t *testing.T) {
	s, fb := newTestServer(t)

	res, _ := s.handleModifyBan(context.Background(), callRequest(map[string]interface{}{
		"username": "A",
		"reason":   "Griefing",
	}))
	if res.IsError {
		t.Fatalf("modify: %s", resultText(t, res))
	}
	if m, ok := fb.modified["A"]; !ok || m.Reason != "Griefing" || m.Expiration != nil {
		t.Errorf("modified = %+v", fb.modified)
	}

	res, _ = s.handleModifyBan(context.Background(), callRequest(map[string]interface{}{"username": "A"}))
	if !res.IsError {
		t.Error("modify without reason should fail")
	}

	res, _ = s.handleRemoveBan(context.Background(), callRequest(map[string]interface{}{"username": "A"}))
	if res.IsError {
		t.Fatalf("remove: %s", resultText(t, res))
	}
	if len(fb.deleted) != 1 || fb.deleted[0] != "A" {
		t.Errorf("deleted = %v", fb.deleted)
	}
}

func TestBanHistory(t *testing.T) {
	s, _ := newTestServer(t)

	res, _ := s.handleBanHistory(context.Background(), callRequest(map[string]interface{}{"username": "Bob"}))
	var h struct {
		UserID   int64 `json:"userId"`
		IsBanned bool  `json:"isBanned"`
		Bans     []any `json:"bans"`
	}
	decodeResult(t, res, &h)
	if h.UserID != 77 || !h.IsBanned || len(h.Bans) != 1 {
		t.Errorf("history = %+v", h)
	}

	res, _ = s.handleBanHistory(context.Background(), callRequest(map[string]interface{}{"username": "Ghost"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "no Roblox user") {
		t.Errorf("unknown user result = %+v", res)
	}
}

func TestListPlaytime(t *testing.T) {
	s, fb := newTestServer(t)
	fb.playtime = []model.PlaytimeEntry{{UserID: 1, Username: "ModMia", Role: "Moderator", Seconds: 3725}}

	res, _ := s.handleListPlaytime(context.Background(), callRequest(map[string]interface{}{
		"days":    float64(7),
		"rank_id": float64(20),
	}))
	var page struct {
		Rows []struct {
			Time  string `json:"time"`
			Color string `json:"color"`
		} `json:"rows"`
	}
	decodeResult(t, res, &page)
	if fb.lastPlaytimeQuery.Days != 7 || fb.lastPlaytimeQuery.RankID != 20 {
		t.Errorf("query = %+v", fb.lastPlaytimeQuery)
	}
	if len(page.Rows) != 1 || page.Rows[0].Time != "1 hour, 2 minutes, 5 seconds" || page.Rows[0].Color != "#e0982cff" {
		t.Errorf("rows = %+v", page.Rows)
	}

	for _, args := range []map[string]interface{}{
		{"days": float64(14)},
		{"rank_id": float64(999)},
	} {
		res, _ := s.handleListPlaytime(context.Background(), callRequest(args))
		if !res.IsError {
			t.Errorf("args %v should be rejected", args)
		}
	}
}

func TestAuditLogs(t *testing.T) {
	s, fb := newTestServer(t)
	admin, target := "AdminBob", "Exploiter"
	fb.audit = []model.AuditEntry{{ActionID: 1, AdminName: &admin, TargetName: &target, Action: model.ActionBan}}

	res, _ := s.handleAuditLogs(context.Background(), callRequest(map[string]interface{}{
		"admin":  "AdminBob",
		"action": "ban",
	}))
	var page struct {
		Rows []struct {
			Summary string `json:"summary"`
		} `json:"rows"`
		PageCount int `json:"pageCount"`
	}
	decodeResult(t, res, &page)
	if fb.lastAuditQuery.Admin != "AdminBob" || fb.lastAuditQuery.Action != "ban" {
		t.Errorf("query = %+v", fb.lastAuditQuery)
	}
	if len(page.Rows) != 1 || page.Rows[0].Summary != "AdminBob banned Exploiter" {
		t.Errorf("rows = %+v", page.Rows)
	}
	if page.PageCount != 1 {
		t.Errorf("pageCount = %d, want 1", page.PageCount)
	}

	res, _ = s.handleAuditLogs(context.Background(), callRequest(map[string]interface{}{"action": "kick"}))
	if !res.IsError {
		t.Error("unknown action should be rejected")
	}
}

func TestParseDuration(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		text      string
		permanent bool
		desc      string
	}{
		{"3 days", false, "January 4th, 2024"},
		{"forever", true, "Permanent"},
	}
	for _, tt := range tests {
		res, _ := s.handleParseDuration(context.Background(), callRequest(map[string]interface{}{"text": tt.text}))
		var out struct {
			Permanent   bool   `json:"permanent"`
			Description string `json:"description"`
		}
		decodeResult(t, res, &out)
		if out.Permanent != tt.permanent || out.Description != tt.desc {
			t.Errorf("%q: got %+v", tt.text, out)
		}
	}
}

func TestRanksResource(t *testing.T) {
	s, _ := newTestServer(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = ranksURI
	contents, err := s.handleRanksResource(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content is %T", contents[0])
	}
	var ranks []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(text.Text), &ranks); err != nil {
		t.Fatal(err)
	}
	if len(ranks) == 0 || ranks[len(ranks)-1].Name != "Founder" {
		t.Errorf("ranks = %+v", ranks)
	}
}
