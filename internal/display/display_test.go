package display

import (
	"testing"
	"time"

	"github.com/riskuniversalis/staffportal/internal/model"
)

func TestAuditTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC).Unix()
	if got, want := AuditTime(ts, time.UTC), "2nd January 2024 3:04PM"; got != want {
		t.Errorf("AuditTime() = %q, want %q", got, want)
	}

	ts = time.Date(2024, 3, 13, 9, 30, 0, 0, time.UTC).Unix()
	if got, want := AuditTime(ts, time.UTC), "13th March 2024 9:30AM"; got != want {
		t.Errorf("AuditTime() = %q, want %q", got, want)
	}
}

func TestBanTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC).Unix()
	if got, want := BanTime(ts, time.UTC), "Jan 02, 2024, 3:04 PM"; got != want {
		t.Errorf("BanTime() = %q, want %q", got, want)
	}
}

func TestExpires(t *testing.T) {
	if got := Expires(model.Ban{}, time.UTC); got != "Permanent" {
		t.Errorf("Expires(permanent) = %q", got)
	}
	ts := time.Date(2025, 7, 4, 0, 5, 0, 0, time.UTC).Unix()
	if got, want := Expires(model.Ban{Expires: &ts}, time.UTC), "Jul 04, 2025, 12:05 AM"; got != want {
		t.Errorf("Expires() = %q, want %q", got, want)
	}
}

func TestPlaytime(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0 seconds"},
		{-5, "0 seconds"},
		{1, "1 second"},
		{59, "59 seconds"},
		{60, "1 minute"},
		{3600, "1 hour"},
		{3725, "1 hour, 2 minutes, 5 seconds"},
		{7261, "2 hours, 1 minute, 1 second"},
		{90000, "25 hours"},
	}
	for _, tt := range tests {
		if got := Playtime(tt.seconds); got != tt.want {
			t.Errorf("Playtime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestAuditSentence(t *testing.T) {
	admin, target := "ModAlice", "Griefer"
	tests := []struct {
		action model.AuditAction
		want   string
	}{
		{model.ActionBan, "ModAlice banned Griefer"},
		{model.ActionUnban, "ModAlice unbanned Griefer"},
		{model.ActionModify, "ModAlice modified Griefer's ban!"},
	}
	for _, tt := range tests {
		e := model.AuditEntry{Action: tt.action, AdminName: &admin, TargetName: &target}
		if got := AuditSentence(e); got != tt.want {
			t.Errorf("AuditSentence(%s) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestRoleColor(t *testing.T) {
	if got := RoleColor("Moderator"); got != "#e0982cff" {
		t.Errorf("RoleColor(Moderator) = %q", got)
	}
	if got := RoleColor("Janitor"); got != DefaultRoleColor {
		t.Errorf("RoleColor(unknown) = %q, want default", got)
	}
}

func TestRankByID(t *testing.T) {
	r, ok := RankByID(255)
	if !ok || r.Name != "Founder" {
		t.Errorf("RankByID(255) = %+v, %v", r, ok)
	}
	if _, ok := RankByID(7); ok {
		t.Error("RankByID(7) should not exist")
	}
}

func TestProfileURL(t *testing.T) {
	if got, want := ProfileURL(42), "https://www.roblox.com/users/42/profile"; got != want {
		t.Errorf("ProfileURL() = %q, want %q", got, want)
	}
}
