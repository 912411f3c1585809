package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskuniversalis/staffportal/internal/avatar"
	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/model"
)

// mockBackend records calls and returns canned errors.
type mockBackend struct {
	posted   *model.PostBanRequest
	modified *model.ModifyBanRequest
	modUser  string
	deleted  string
	err      error
	ids      map[string]int64
	history  *model.BanHistory
}

func (m *mockBackend) PostBan(_ context.Context, req model.PostBanRequest) error {
	m.posted = &req
	return m.err
}

func (m *mockBackend) ModifyBan(_ context.Context, user string, req model.ModifyBanRequest) error {
	m.modUser = user
	m.modified = &req
	return m.err
}

func (m *mockBackend) DeleteBan(_ context.Context, user string) error {
	m.deleted = user
	return m.err
}

func (m *mockBackend) BanHistory(_ context.Context, user string) (*model.BanHistory, error) {
	if m.history == nil {
		return &model.BanHistory{Bans: []model.Ban{}}, nil
	}
	return m.history, nil
}

func (m *mockBackend) LookupUserID(_ context.Context, user string) (int64, error) {
	id, ok := m.ids[user]
	if !ok {
		return 0, backend.ErrUserNotFound
	}
	return id, nil
}

type fixedHeadshots map[int64]string

func (f fixedHeadshots) Headshots(_ context.Context, ids []int64) ([]avatar.Thumbnail, error) {
	var out []avatar.Thumbnail
	for _, id := range ids {
		if u, ok := f[id]; ok {
			out = append(out, avatar.Thumbnail{TargetID: id, State: avatar.StateCompleted, ImageURL: u})
		}
	}
	return out, nil
}

var fixedNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestService(b *mockBackend) *Service {
	s := New(b, fixedHeadshots{42: "https://img/42"}, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestBuildReason(t *testing.T) {
	tests := []struct {
		name       string
		presets    []string
		additional string
		want       string
	}{
		{"additional only", nil, "  spawn killing  ", "spawn killing"},
		{"presets and additional", []string{"Griefing", "Toxicity"}, "repeat offender", "Griefing; Toxicity; repeat offender"},
		{"presets only", []string{"Exploiting"}, "", "Exploiting;"},
		{"nothing", nil, "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildReason(tt.presets, tt.additional); got != tt.want {
				t.Errorf("BuildReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreateBanValidation(t *testing.T) {
	tests := []struct {
		name string
		form BanForm
		want string
	}{
		{"no reason", BanForm{Username: "x", LogsLink: "l"}, MsgInvalidReason},
		{"no username", BanForm{Additional: "r", LogsLink: "l"}, MsgInvalidUsername},
		{"blank username", BanForm{Username: "  ", Additional: "r", LogsLink: "l"}, MsgInvalidUsername},
		{"no logs", BanForm{Username: "x", Reasons: []string{"Trolling"}}, MsgInvalidLogsLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			_, err := newTestService(b).CreateBan(context.Background(), tt.form)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if vErr.Message != tt.want {
				t.Errorf("message = %q, want %q", vErr.Message, tt.want)
			}
			if b.posted != nil {
				t.Error("invalid form reached the backend")
			}
		})
	}
}

func TestCreateBanUnknownPreset(t *testing.T) {
	_, err := newTestService(&mockBackend{}).CreateBan(context.Background(), BanForm{
		Username: "x", Reasons: []string{"Littering"}, LogsLink: "l",
	})
	if !IsValidation(err) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestCreateBan(t *testing.T) {
	b := &mockBackend{}
	req, err := newTestService(b).CreateBan(context.Background(), BanForm{
		Username:     " Griefer ",
		Reasons:      []string{"griefing", "TOS violation"},
		Additional:   "burned spawn",
		LogsLink:     "https://discord.com/channels/1/2/3",
		Duration:     "7 days",
		Unappealable: true,
	})
	if err != nil {
		t.Fatalf("CreateBan: %v", err)
	}
	if b.posted == nil {
		t.Fatal("backend not called")
	}
	if req.User != "Griefer" || req.Reason != "Griefing; TOS Violation; burned spawn" {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.Appealable {
		t.Error("unappealable ban sent as appealable")
	}
	if req.ExpiresIn == nil || *req.ExpiresIn != fixedNow.Unix()+7*86400 {
		t.Errorf("ExpiresIn = %v", req.ExpiresIn)
	}
}

func TestCreateBanPermanent(t *testing.T) {
	b := &mockBackend{}
	req, err := newTestService(b).CreateBan(context.Background(), BanForm{
		Username: "x", Additional: "r", LogsLink: "l", Duration: "Permanent",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.ExpiresIn != nil || !req.Appealable {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestCreateBanBackendRejection(t *testing.T) {
	b := &mockBackend{err: &backend.MutationError{Status: 409, Message: "User is already banned!"}}
	_, err := newTestService(b).CreateBan(context.Background(), BanForm{Username: "x", Additional: "r", LogsLink: "l"})
	if backend.UserMessage(err) != "User is already banned!" {
		t.Errorf("UserMessage() = %q", backend.UserMessage(err))
	}
}

func TestModifyBan(t *testing.T) {
	b := &mockBackend{}
	s := newTestService(b)

	if _, err := s.ModifyBan(context.Background(), ModifyForm{Username: "x", Reason: "   "}); !IsValidation(err) {
		t.Errorf("blank reason error = %v", err)
	}
	if _, err := s.ModifyBan(context.Background(), ModifyForm{Reason: "r"}); !IsValidation(err) {
		t.Errorf("blank username error = %v", err)
	}

	req, err := s.ModifyBan(context.Background(), ModifyForm{Username: "Griefer", Reason: " shorter ", Duration: "1 month"})
	if err != nil {
		t.Fatalf("ModifyBan: %v", err)
	}
	if b.modUser != "Griefer" || req.Reason != "shorter" {
		t.Errorf("unexpected call: user=%q req=%+v", b.modUser, req)
	}
	if want := fixedNow.AddDate(0, 1, 0).Unix(); req.Expiration == nil || *req.Expiration != want {
		t.Errorf("Expiration = %v, want %d", req.Expiration, want)
	}
}

func TestRemoveBan(t *testing.T) {
	b := &mockBackend{}
	s := newTestService(b)
	if err := s.RemoveBan(context.Background(), ""); !IsValidation(err) {
		t.Errorf("empty username error = %v", err)
	}
	if err := s.RemoveBan(context.Background(), " Griefer "); err != nil {
		t.Fatal(err)
	}
	if b.deleted != "Griefer" {
		t.Errorf("deleted = %q", b.deleted)
	}
}

func TestHistory(t *testing.T) {
	b := &mockBackend{
		ids:     map[string]int64{"Griefer": 42},
		history: &model.BanHistory{IsBanned: true, Bans: []model.Ban{{ID: 1}}},
	}
	s := newTestService(b)

	h, err := s.History(context.Background(), "Griefer")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if h.UserID != 42 || h.Avatar != "https://img/42" || !h.IsBanned || len(h.Bans) != 1 {
		t.Errorf("unexpected history: %+v", h)
	}

	if _, err := s.History(context.Background(), "Nobody"); !errors.Is(err, backend.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestProfileWithoutHeadshot(t *testing.T) {
	s := newTestService(&mockBackend{})
	if _, ok := s.Profile(context.Background(), 7); ok {
		t.Error("user without headshot should not be ok")
	}
	if _, ok := New(&mockBackend{}, nil, nil).Profile(context.Background(), 42); ok {
		t.Error("service without avatars should not be ok")
	}
}
