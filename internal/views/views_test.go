package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskuniversalis/staffportal/internal/avatar"
	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/listview"
	"github.com/riskuniversalis/staffportal/internal/model"
)

// fakeBackend implements every lister and records the last query.
type fakeBackend struct {
	mu       sync.Mutex
	bans     backend.BanQuery
	playtime backend.PlaytimeQuery
	audit    backend.AuditQuery
}

func (f *fakeBackend) ListBans(_ context.Context, q backend.BanQuery) (model.ListResult[model.Ban], error) {
	f.mu.Lock()
	f.bans = q
	f.mu.Unlock()
	return model.ListResult[model.Ban]{
		Rows:      []model.Ban{{ID: 1, BannedUserID: 100}, {ID: 2, BannedUserID: 101}, {ID: 3, BannedUserID: 100}},
		PageCount: 2,
	}, nil
}

func (f *fakeBackend) ListPlaytime(_ context.Context, q backend.PlaytimeQuery) (model.ListResult[model.PlaytimeEntry], error) {
	f.mu.Lock()
	f.playtime = q
	f.mu.Unlock()
	return model.ListResult[model.PlaytimeEntry]{Rows: []model.PlaytimeEntry{{UserID: 5}}}, nil
}

func (f *fakeBackend) ListAuditLogs(_ context.Context, q backend.AuditQuery) (model.ListResult[model.AuditEntry], error) {
	f.mu.Lock()
	f.audit = q
	f.mu.Unlock()
	return model.ListResult[model.AuditEntry]{Rows: []model.AuditEntry{{AdminID: 7, TargetID: 8}, {AdminID: 7, TargetID: 0}}}, nil
}

// headshots resolves every id and records requested batches.
type headshots struct {
	mu      sync.Mutex
	batches [][]int64
}

func (h *headshots) Headshots(_ context.Context, ids []int64) ([]avatar.Thumbnail, error) {
	h.mu.Lock()
	h.batches = append(h.batches, append([]int64(nil), ids...))
	h.mu.Unlock()
	out := make([]avatar.Thumbnail, len(ids))
	for i, id := range ids {
		out[i] = avatar.Thumbnail{TargetID: id, State: avatar.StateCompleted, ImageURL: "img"}
	}
	return out, nil
}

// manualClock never fires on its own.
type manualClock struct {
	mu sync.Mutex
	fn []func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (c *manualClock) AfterFunc(_ time.Duration, f func()) listview.Timer {
	c.mu.Lock()
	c.fn = append(c.fn, f)
	c.mu.Unlock()
	return noopTimer{}
}

func (c *manualClock) fireLast() {
	c.mu.Lock()
	f := c.fn[len(c.fn)-1]
	c.mu.Unlock()
	f()
}

func TestBansViewResolvesAvatars(t *testing.T) {
	be := &fakeBackend{}
	hs := &headshots{}
	v := NewBans(be, Deps{Avatars: hs, Clock: &manualClock{}})
	defer v.Close()

	v.Refresh()
	v.Wait()
	v.Resolver().Wait()

	if v.Avatar(100) != "img" || v.Avatar(101) != "img" {
		t.Errorf("avatars not resolved: %v", v.Resolver().Snapshot())
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if len(hs.batches) != 1 || len(hs.batches[0]) != 2 {
		t.Errorf("batches = %v, want one batch of 2 distinct ids", hs.batches)
	}

	be.mu.Lock()
	defer be.mu.Unlock()
	if be.bans.Limit != backend.BanPageSize || be.bans.OnlyUnappealable {
		t.Errorf("unexpected ban query: %+v", be.bans)
	}
}

func TestBansFilter(t *testing.T) {
	be := &fakeBackend{}
	clock := &manualClock{}
	v := NewBans(be, Deps{Avatars: &headshots{}, Clock: clock})
	defer v.Close()

	if err := v.SetFilter(FilterUnappealable, "maybe"); err == nil {
		t.Error("expected validation error")
	}
	if err := v.SetFilter("days", "7"); err == nil {
		t.Error("bans view should reject unknown filters")
	}
	if err := v.SetFilter(FilterUnappealable, "true"); err != nil {
		t.Fatal(err)
	}
	clock.fireLast()
	v.Wait()

	be.mu.Lock()
	defer be.mu.Unlock()
	if !be.bans.OnlyUnappealable {
		t.Error("onlyUnappealables filter not forwarded")
	}
}

func TestPlaytimeView(t *testing.T) {
	be := &fakeBackend{}
	clock := &manualClock{}
	v := NewPlaytime(be, Deps{Avatars: &headshots{}, Clock: clock})
	defer v.Close()

	v.Refresh()
	v.Wait()
	be.mu.Lock()
	if be.playtime.Days != 30 || be.playtime.Limit != backend.PlaytimePageSize {
		t.Errorf("default playtime query = %+v", be.playtime)
	}
	be.mu.Unlock()

	if err := v.SetFilter(FilterDays, "14"); err == nil {
		t.Error("days=14 should be rejected")
	}
	if err := v.SetFilter(FilterRank, "abc"); err == nil {
		t.Error("non-numeric rank should be rejected")
	}
	if err := v.SetFilter(FilterRank, "20"); err != nil {
		t.Fatal(err)
	}
	if err := v.SetFilter(FilterDays, "7"); err != nil {
		t.Fatal(err)
	}
	v.SetSearch("bob")
	clock.fireLast()
	v.Wait()

	be.mu.Lock()
	defer be.mu.Unlock()
	if be.playtime.Days != 7 || be.playtime.RankID != 20 || be.playtime.Search != "bob" {
		t.Errorf("playtime query = %+v", be.playtime)
	}
}

func TestAuditViewIDs(t *testing.T) {
	be := &fakeBackend{}
	hs := &headshots{}
	clock := &manualClock{}
	v := NewAudit(be, Deps{Avatars: hs, Clock: clock})
	defer v.Close()

	if err := v.SetFilter(FilterAction, "kick"); err == nil {
		t.Error("unknown action should be rejected")
	}
	if err := v.SetFilter(FilterAction, "unban"); err != nil {
		t.Fatal(err)
	}
	if err := v.SetFilter(FilterAdmin, "Alice"); err != nil {
		t.Fatal(err)
	}
	clock.fireLast()
	v.Wait()
	v.Resolver().Wait()

	be.mu.Lock()
	if be.audit.Action != "unban" || be.audit.Admin != "Alice" || be.audit.Limit != backend.AuditPageSize {
		t.Errorf("audit query = %+v", be.audit)
	}
	be.mu.Unlock()

	snap := v.Resolver().Snapshot()
	if len(snap) != 2 {
		t.Errorf("resolved %v, want admin 7 and target 8 only", snap)
	}
	if got := v.AvatarIDs([]model.AuditEntry{{AdminID: 1, TargetID: 2}}); len(got) != 2 {
		t.Errorf("AvatarIDs() = %v", got)
	}
}

func TestSharedResolverNotClosed(t *testing.T) {
	shared := avatar.NewResolver(&headshots{}, avatar.Options{})
	v := NewBans(&fakeBackend{}, Deps{Resolver: shared, Clock: &manualClock{}})
	v.Refresh()
	v.Wait()
	v.Close()

	shared.Show([]int64{555})
	shared.Wait()
	if _, ok := shared.Lookup(555); !ok {
		t.Error("shared resolver should keep working after the view closed")
	}
	shared.Close()
}
