// Package listview implements the paginated, debounced, filterable list
// behind every staff dashboard page.
package listview

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/riskuniversalis/staffportal/internal/model"
)

// DefaultDebounce is the quiet period after a search or filter change.
const DefaultDebounce = 500 * time.Millisecond

var (
	ErrNotLoaded      = errors.New("listview: no page loaded")
	ErrBusy           = errors.New("listview: fetch in flight")
	ErrPageOutOfRange = errors.New("listview: page out of range")
	ErrClosed         = errors.New("listview: controller closed")

	// ErrNoRows is recorded when a fetcher succeeds without a row collection.
	ErrNoRows = errors.New("listview: result has no rows")
)

// Query is what a fetcher is asked to load.
type Query struct {
	Search   string
	Filters  map[string]string
	Page     int
	PageSize int
}

// Filter returns the value of a named filter.
func (q Query) Filter(name string) string {
	return q.Filters[name]
}

// Fetcher loads one page.
type Fetcher[T any] func(ctx context.Context, q Query) (model.ListResult[T], error)

// State is a snapshot of a controller.
type State[T any] struct {
	Query    Query
	MaxPages int
	Rows     []T

	// Loaded is true once a fetch for the current query completed.
	Loaded bool

	// Loading is true exactly while a fetch is outstanding.
	Loading bool

	// Pending is true while the debounce timer is armed.
	Pending bool

	// Err is the cause of the last failed fetch. A failed fetch looks like
	// an empty single page; Err is only there for logging.
	Err error
}

// Options configures a Controller.
type Options struct {
	PageSize int
	Debounce time.Duration
	Filters  map[string]string
	Clock    Clock
	Logger   *slog.Logger
}

// Controller owns the query, rows and paging of one list view.
type Controller[T any] struct {
	fetch    Fetcher[T]
	clock    Clock
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	query    Query
	maxPages int
	rows     []T
	loaded   bool
	loading  bool
	err      error
	closed   bool

	token    uint64
	cancel   context.CancelFunc
	timer    Timer
	timerGen uint64

	subs    map[int]func(State[T])
	nextSub int

	// notifyMu keeps subscriber calls in state order.
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// New returns an idle controller. Call Refresh to load the first page.
func New[T any](fetch Fetcher[T], opts Options) *Controller[T] {
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	filters := make(map[string]string, len(opts.Filters))
	for k, v := range opts.Filters {
		if v != "" {
			filters[k] = v
		}
	}
	return &Controller[T]{
		fetch:    fetch,
		clock:    clock,
		debounce: debounce,
		logger:   logger,
		query:    Query{Filters: filters, Page: 1, PageSize: opts.PageSize},
		maxPages: 1,
		subs:     make(map[int]func(State[T])),
	}
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller[T]) snapshot() State[T] {
	q := c.query
	q.Filters = maps.Clone(c.query.Filters)
	var rows []T
	if c.rows != nil {
		rows = append(make([]T, 0, len(c.rows)), c.rows...)
	}
	return State[T]{
		Query:    q,
		MaxPages: c.maxPages,
		Rows:     rows,
		Loaded:   c.loaded,
		Loading:  c.loading,
		Pending:  c.timer != nil,
		Err:      c.err,
	}
}

// Subscribe registers fn to be called after every state change. fn must not
// call back into the controller synchronously. The returned func removes
// the subscription.
func (c *Controller[T]) Subscribe(fn func(State[T])) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// unlockAndNotify releases c.mu and delivers the state it held.
func (c *Controller[T]) unlockAndNotify() {
	st := c.snapshot()
	subs := make([]func(State[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// SetSearch changes the search text.
func (c *Controller[T]) SetSearch(text string) {
	c.mutate(func(q *Query) { q.Search = text })
}

// SetFilter sets a named filter. An empty value clears it.
func (c *Controller[T]) SetFilter(name, value string) {
	c.mutate(func(q *Query) {
		if value == "" {
			delete(q.Filters, name)
			return
		}
		q.Filters[name] = value
	})
}

// mutate applies a query change, resets paging and restarts the debounce.
func (c *Controller[T]) mutate(change func(*Query)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	change(&c.query)
	c.query.Page = 1
	c.maxPages = 1
	c.rows = nil
	c.loaded = false
	c.abortFetch()
	c.schedule()
	c.unlockAndNotify()
}

// schedule arms the debounce timer, replacing any armed one.
func (c *Controller[T]) schedule() {
	c.stopTimer()
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(gen) })
}

func (c *Controller[T]) stopTimer() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller[T]) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.startFetch(1)
	c.unlockAndNotify()
}

// SetPage loads page n immediately. It is refused while nothing is loaded,
// while a fetch is in flight, or when n is outside 1..MaxPages.
func (c *Controller[T]) SetPage(n int) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case !c.loaded:
		c.mu.Unlock()
		return ErrNotLoaded
	case c.loading:
		c.mu.Unlock()
		return ErrBusy
	case n < 1 || n > c.maxPages:
		c.mu.Unlock()
		return ErrPageOutOfRange
	}
	c.startFetch(n)
	c.unlockAndNotify()
	return nil
}

// NextPage moves one page forward.
func (c *Controller[T]) NextPage() error {
	return c.SetPage(c.State().Query.Page + 1)
}

// PrevPage moves one page back.
func (c *Controller[T]) PrevPage() error {
	return c.SetPage(c.State().Query.Page - 1)
}

// Refresh drops any pending debounce and reloads page 1 now.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimer()
	c.maxPages = 1
	c.startFetch(1)
	c.unlockAndNotify()
}

// abortFetch invalidates the outstanding fetch, if any.
func (c *Controller[T]) abortFetch() {
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
}

// startFetch issues a fetch for page under a fresh token. Called with c.mu held.
func (c *Controller[T]) startFetch(page int) {
	c.abortFetch()
	token := c.token
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.loading = true

	q := c.query
	q.Filters = maps.Clone(c.query.Filters)
	q.Page = page

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.fetch(ctx, q)
		c.finish(token, q, res, err)
	}()
}

func (c *Controller[T]) finish(token uint64, q Query, res model.ListResult[T], err error) {
	c.mu.Lock()
	if c.closed || token != c.token {
		c.mu.Unlock()
		c.logger.Debug("discarding stale list response", "page", q.Page)
		return
	}
	c.cancel()
	c.cancel = nil
	c.loading = false
	c.loaded = true

	if err == nil && res.Rows == nil {
		err = ErrNoRows
	}
	if err != nil {
		c.logger.Warn("list fetch failed", "search", q.Search, "page", q.Page, "error", err)
		c.query.Page = 1
		c.maxPages = 1
		c.rows = []T{}
		c.err = err
	} else {
		c.query.Page = q.Page
		if res.PageCount > 0 {
			c.maxPages = res.PageCount
		}
		c.rows = res.Rows
		c.err = nil
	}
	c.unlockAndNotify()
}

// Close stops the debounce timer and cancels the outstanding fetch.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimer()
	c.abortFetch()
	c.closed = true
	c.mu.Unlock()
}

// Wait blocks until every fetch goroutine has returned.
func (c *Controller[T]) Wait() {
	c.wg.Wait()
}
