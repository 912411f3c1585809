// Package views binds the list controller and the avatar resolver to the
// three staff pages: bans, playtime and the audit log.
package views

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/riskuniversalis/staffportal/internal/avatar"
	"github.com/riskuniversalis/staffportal/internal/listview"
)

// Deps are shared by every view constructor.
type Deps struct {
	// Avatars fetches headshots for a view-owned resolver. Ignored when
	// Resolver is set.
	Avatars avatar.Fetcher

	// Resolver is a shared resolver. The view does not close it.
	Resolver *avatar.Resolver

	Debounce time.Duration
	Clock    listview.Clock
	Logger   *slog.Logger
}

// View is one list page: a controller plus the avatars of its rows.
type View[T any] struct {
	*listview.Controller[T]

	name        string
	resolver    *avatar.Resolver
	ownResolver bool
	ids         func(T) []int64
	filters     map[string]func(string) error
	unsubscribe func()
}

func newView[T any](name string, fetch listview.Fetcher[T], pageSize int, initial map[string]string,
	filters map[string]func(string) error, ids func(T) []int64, d Deps) *View[T] {

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("view", name)

	v := &View[T]{
		name:    name,
		ids:     ids,
		filters: filters,
	}
	v.Controller = listview.New(fetch, listview.Options{
		PageSize: pageSize,
		Debounce: d.Debounce,
		Filters:  initial,
		Clock:    d.Clock,
		Logger:   logger,
	})
	if d.Resolver != nil {
		v.resolver = d.Resolver
	} else {
		v.resolver = avatar.NewResolver(d.Avatars, avatar.Options{Logger: logger})
		v.ownResolver = true
	}
	v.unsubscribe = v.Controller.Subscribe(v.showAvatars)
	return v
}

// Name is the view's short name.
func (v *View[T]) Name() string { return v.name }

// Resolver returns the avatar resolver used for the rows.
func (v *View[T]) Resolver() *avatar.Resolver { return v.resolver }

// Avatar returns the image URL for id, or "" while it is unresolved.
func (v *View[T]) Avatar(id int64) string {
	u, _ := v.resolver.Lookup(id)
	return u
}

// Filters lists the filter names the view accepts.
func (v *View[T]) Filters() []string {
	names := make([]string, 0, len(v.filters))
	for n := range v.filters {
		names = append(names, n)
	}
	return names
}

// SetFilter validates and sets a filter. An empty value clears it.
func (v *View[T]) SetFilter(name, value string) error {
	check, ok := v.filters[name]
	if !ok {
		return fmt.Errorf("%s view has no filter %q", v.name, name)
	}
	if value != "" {
		if err := check(value); err != nil {
			return fmt.Errorf("filter %s: %w", name, err)
		}
	}
	v.Controller.SetFilter(name, value)
	return nil
}

// showAvatars asks the resolver for the ids on the visible page.
func (v *View[T]) showAvatars(st listview.State[T]) {
	if !st.Loaded || len(st.Rows) == 0 {
		return
	}
	var ids []int64
	for _, row := range st.Rows {
		for _, id := range v.ids(row) {
			if id > 0 {
				ids = append(ids, id)
			}
		}
	}
	v.resolver.Show(ids)
}

// AvatarIDs returns the user ids shown for rows, in row order.
func (v *View[T]) AvatarIDs(rows []T) []int64 {
	var ids []int64
	for _, row := range rows {
		ids = append(ids, v.ids(row)...)
	}
	return ids
}

// Close tears down the controller and, when the view owns it, the resolver.
func (v *View[T]) Close() {
	v.unsubscribe()
	v.Controller.Close()
	v.Controller.Wait()
	if v.ownResolver {
		v.resolver.Close()
	}
}
