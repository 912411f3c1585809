package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/config"
	"github.com/riskuniversalis/staffportal/internal/listview"
	"github.com/riskuniversalis/staffportal/internal/model"
	"github.com/riskuniversalis/staffportal/internal/views"
)

const browseHelp = `Commands:
  n, next          next page
  p, prev          previous page
  g <page>         go to page
  /<text>          search (a bare / clears it)
  f <name>=<value> set a filter (empty value clears it)
  r                reload page 1
  a                show avatar URLs for this page
  ?                this help
  q                quit
`

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through bans, playtime or the audit log interactively",
		Long: `Open a list view in the terminal. Type commands at the prompt to page,
search and filter; searches are debounced like the dashboard's search box.

` + browseHelp,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "bans",
		Short: "Browse active bans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBrowser(cmd, func(a *app, d views.Deps) error {
				v := views.NewBans(a.client, d)
				defer v.Close()
				return runBrowse(cmd.Context(), os.Stdin, cmd.OutOrStdout(), v, true,
					func(w io.Writer, rows []model.Ban) { printBans(w, rows, a.loc, terminalWidth()) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "playtime",
		Short: "Browse the playtime leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBrowser(cmd, func(a *app, d views.Deps) error {
				v := views.NewPlaytime(a.client, d)
				defer v.Close()
				return runBrowse(cmd.Context(), os.Stdin, cmd.OutOrStdout(), v, true,
					func(w io.Writer, rows []model.PlaytimeEntry) {
						page := v.State().Query.Page
						printPlaytime(w, rows, (page-1)*backend.PlaytimePageSize)
					})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "audit",
		Short: "Browse the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBrowser(cmd, func(a *app, d views.Deps) error {
				v := views.NewAudit(a.client, d)
				defer v.Close()
				return runBrowse(cmd.Context(), os.Stdin, cmd.OutOrStdout(), v, false,
					func(w io.Writer, rows []model.AuditEntry) { printAudit(w, rows, a.loc, terminalWidth()) })
			})
		},
	})

	return cmd
}

// withBrowser builds the app and a shared avatar resolver for one view.
func withBrowser(cmd *cobra.Command, run func(*app, views.Deps) error) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	avatars, release, err := newAvatars(cmd.Context(), a.cfg, a.thumbs, a.logger)
	if err != nil {
		return err
	}
	defer release()
	resolver := avatars.New()
	defer resolver.Close()

	return run(a, views.Deps{
		Resolver: resolver,
		Debounce: config.Duration(a.cfg.Lists.Debounce, listview.DefaultDebounce),
		Logger:   a.logger,
	})
}

// browseView is what the browse loop drives; views.View satisfies it.
type browseView[T any] interface {
	Name() string
	State() listview.State[T]
	Subscribe(fn func(listview.State[T])) func()
	SetSearch(text string)
	SetFilter(name, value string) error
	Filters() []string
	SetPage(n int) error
	NextPage() error
	PrevPage() error
	Refresh()
	AvatarIDs(rows []T) []int64
	Avatar(id int64) string
}

// browseTimeout bounds how long the loop waits for a page.
var browseTimeout = 30 * time.Second

// runBrowse reads commands from in until "q" or EOF, rendering the view to
// out after every change.
func runBrowse[T any](ctx context.Context, in io.Reader, out io.Writer, v browseView[T], searchable bool, render func(io.Writer, []T)) error {
	idle := make(chan struct{}, 1)
	unsubscribe := v.Subscribe(func(st listview.State[T]) {
		if isIdle(st) {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	wait := func() error {
		deadline := time.NewTimer(browseTimeout)
		defer deadline.Stop()
		for !isIdle(v.State()) {
			select {
			case <-idle:
			case <-deadline.C:
				return fmt.Errorf("%s: timed out waiting for the backend", v.Name())
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	show := func() {
		st := v.State()
		if len(st.Rows) == 0 {
			fmt.Fprintln(out, "(no rows)")
		} else {
			render(out, st.Rows)
		}
		fmt.Fprintf(out, "\nPage %d of %d", st.Query.Page, max(st.MaxPages, 1))
		if st.Query.Search != "" {
			fmt.Fprintf(out, "  search=%q", st.Query.Search)
		}
		for _, name := range sortedKeys(st.Query.Filters) {
			fmt.Fprintf(out, "  %s=%s", name, st.Query.Filters[name])
		}
		fmt.Fprintln(out)
		if st.Err != nil {
			fmt.Fprintf(out, "(could not load %s: %v)\n", v.Name(), st.Err)
		}
	}

	v.Refresh()
	if err := wait(); err != nil {
		return err
	}
	show()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", v.Name())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		drain(idle)
		var err error
		switch {
		case line == "":
			continue
		case line == "q" || line == "quit":
			return nil
		case line == "?" || line == "h" || line == "help":
			fmt.Fprint(out, browseHelp)
			continue
		case line == "n" || line == "next":
			err = v.NextPage()
		case line == "p" || line == "prev":
			err = v.PrevPage()
		case strings.HasPrefix(line, "g "):
			n, convErr := strconv.Atoi(strings.TrimSpace(line[2:]))
			if convErr != nil {
				err = fmt.Errorf("not a page number: %q", line[2:])
			} else {
				err = v.SetPage(n)
			}
		case strings.HasPrefix(line, "/"):
			if !searchable {
				err = fmt.Errorf("%s has no search; use filters (%s)", v.Name(), strings.Join(sortedNames(v.Filters()), ", "))
			} else {
				v.SetSearch(strings.TrimSpace(line[1:]))
			}
		case strings.HasPrefix(line, "f "):
			name, value, ok := strings.Cut(strings.TrimSpace(line[2:]), "=")
			if !ok {
				err = fmt.Errorf("usage: f <name>=<value> (filters: %s)", strings.Join(sortedNames(v.Filters()), ", "))
			} else {
				err = v.SetFilter(strings.TrimSpace(name), strings.TrimSpace(value))
			}
		case line == "r":
			v.Refresh()
		case line == "a":
			printAvatars(out, v)
			continue
		default:
			err = fmt.Errorf("unknown command %q (? for help)", line)
		}

		if err != nil {
			fmt.Fprintln(out, browseErrorText(err))
			continue
		}
		if err := wait(); err != nil {
			return err
		}
		show()
	}
}

func isIdle[T any](st listview.State[T]) bool {
	return st.Loaded && !st.Loading && !st.Pending
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func printAvatars[T any](out io.Writer, v browseView[T]) {
	ids := v.AvatarIDs(v.State().Rows)
	if len(ids) == 0 {
		fmt.Fprintln(out, "(no users on this page)")
		return
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		u := v.Avatar(id)
		if u == "" {
			u = "(not resolved yet)"
		}
		fmt.Fprintf(out, "%-14d %s\n", id, u)
	}
}

func browseErrorText(err error) string {
	switch {
	case errors.Is(err, listview.ErrPageOutOfRange):
		return "No such page."
	case errors.Is(err, listview.ErrBusy):
		return "Still loading, try again."
	case errors.Is(err, listview.ErrNotLoaded):
		return "Nothing loaded yet."
	}
	return err.Error()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
