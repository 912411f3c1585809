package views

import (
	"context"
	"fmt"
	"strconv"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/listview"
	"github.com/riskuniversalis/staffportal/internal/model"
)

// Filter names, matching the backend query parameters.
const (
	FilterUnappealable = "onlyUnappealables"
	FilterDays         = "days"
	FilterRank         = "rankId"
	FilterAdmin        = "admin"
	FilterTarget       = "target"
	FilterAction       = "action"
)

// BanLister lists bans.
type BanLister interface {
	ListBans(ctx context.Context, q backend.BanQuery) (model.ListResult[model.Ban], error)
}

// PlaytimeLister lists playtime totals.
type PlaytimeLister interface {
	ListPlaytime(ctx context.Context, q backend.PlaytimeQuery) (model.ListResult[model.PlaytimeEntry], error)
}

// AuditLister lists audit log entries.
type AuditLister interface {
	ListAuditLogs(ctx context.Context, q backend.AuditQuery) (model.ListResult[model.AuditEntry], error)
}

// BanFetcher adapts a BanLister to the list controller.
func BanFetcher(l BanLister) listview.Fetcher[model.Ban] {
	return func(ctx context.Context, q listview.Query) (model.ListResult[model.Ban], error) {
		return l.ListBans(ctx, backend.BanQuery{
			Search:           q.Search,
			Page:             q.Page,
			Limit:            q.PageSize,
			OnlyUnappealable: q.Filter(FilterUnappealable) == "true",
		})
	}
}

// PlaytimeFetcher adapts a PlaytimeLister to the list controller.
func PlaytimeFetcher(l PlaytimeLister) listview.Fetcher[model.PlaytimeEntry] {
	return func(ctx context.Context, q listview.Query) (model.ListResult[model.PlaytimeEntry], error) {
		days, _ := strconv.Atoi(q.Filter(FilterDays))
		rank, _ := strconv.Atoi(q.Filter(FilterRank))
		return l.ListPlaytime(ctx, backend.PlaytimeQuery{
			Search: q.Search,
			Page:   q.Page,
			Limit:  q.PageSize,
			Days:   days,
			RankID: rank,
		})
	}
}

// AuditFetcher adapts an AuditLister to the list controller. The audit log
// has no free-text search; the admin and target filters play that role.
func AuditFetcher(l AuditLister) listview.Fetcher[model.AuditEntry] {
	return func(ctx context.Context, q listview.Query) (model.ListResult[model.AuditEntry], error) {
		return l.ListAuditLogs(ctx, backend.AuditQuery{
			Admin:  q.Filter(FilterAdmin),
			Target: q.Filter(FilterTarget),
			Action: q.Filter(FilterAction),
			Page:   q.Page,
			Limit:  q.PageSize,
		})
	}
}

// NewBans returns the ban management view.
func NewBans(l BanLister, d Deps) *View[model.Ban] {
	return newView("bans", BanFetcher(l), backend.BanPageSize,
		map[string]string{FilterUnappealable: "false"},
		map[string]func(string) error{FilterUnappealable: oneOf("true", "false")},
		func(b model.Ban) []int64 { return []int64{b.BannedUserID} },
		d)
}

// NewPlaytime returns the playtime tracker view.
func NewPlaytime(l PlaytimeLister, d Deps) *View[model.PlaytimeEntry] {
	return newView("playtime", PlaytimeFetcher(l), backend.PlaytimePageSize,
		map[string]string{FilterDays: "30"},
		map[string]func(string) error{
			FilterDays: oneOf("7", "30"),
			FilterRank: positiveInt,
		},
		func(p model.PlaytimeEntry) []int64 { return []int64{p.UserID} },
		d)
}

// NewAudit returns the audit log view.
func NewAudit(l AuditLister, d Deps) *View[model.AuditEntry] {
	return newView("audit", AuditFetcher(l), backend.AuditPageSize,
		nil,
		map[string]func(string) error{
			FilterAdmin:  anyValue,
			FilterTarget: anyValue,
			FilterAction: func(s string) error {
				_, err := model.ParseAuditAction(s)
				return err
			},
		},
		func(e model.AuditEntry) []int64 { return []int64{e.AdminID, e.TargetID} },
		d)
}

func oneOf(allowed ...string) func(string) error {
	return func(s string) error {
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %v", s, allowed)
	}
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("%q is not a positive integer", s)
	}
	return nil
}

func anyValue(string) error { return nil }
