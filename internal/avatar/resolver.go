package avatar

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// Options tunes a Resolver.
type Options struct {
	// BatchSize caps ids per thumbnail request. Zero or anything above
	// MaxBatch means MaxBatch.
	BatchSize int

	// Retries is how many extra attempts a failed batch gets. Zero skips a
	// failed batch straight away.
	Retries int
	Backoff time.Duration

	// Store is an optional shared cache tier.
	Store Store

	Logger *slog.Logger
}

// Resolver maps user ids to headshot URLs. Entries are only ever added.
type Resolver struct {
	fetcher   Fetcher
	store     Store
	batchSize int
	retries   int
	backoff   time.Duration
	logger    *slog.Logger

	mu     sync.RWMutex
	urls   map[int64]string
	subs   map[int]func(map[int64]string)
	nextID int

	showMu sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewResolver returns a resolver fetching through f.
func NewResolver(f Fetcher, opts Options) *Resolver {
	size := opts.BatchSize
	if size <= 0 || size > MaxBatch {
		size = MaxBatch
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fetcher:   f,
		store:     opts.Store,
		batchSize: size,
		retries:   max(opts.Retries, 0),
		backoff:   backoff,
		logger:    logger,
		urls:      make(map[int64]string),
		subs:      make(map[int]func(map[int64]string)),
	}
}

// Lookup returns the cached URL for id.
func (r *Resolver) Lookup(id int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.urls[id]
	return u, ok
}

// Snapshot returns a copy of the cache.
func (r *Resolver) Snapshot() map[int64]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.urls)
}

// Subscribe registers fn to receive a snapshot after every applied batch.
// The returned func removes the subscription.
func (r *Resolver) Subscribe(fn func(map[int64]string)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Missing returns the distinct ids without a cached URL, in first-seen order.
func (r *Resolver) Missing(ids []int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{}, len(ids))
	var out []int64
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := r.urls[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Resolve fetches every missing id in sequential batches, applying each
// successful batch before requesting the next. A failed batch is skipped and
// its ids stay unresolved. Resolve only returns an error when ctx ends.
func (r *Resolver) Resolve(ctx context.Context, ids []int64) error {
	missing := r.Missing(ids)
	if len(missing) == 0 {
		return nil
	}

	if r.store != nil {
		cached, err := r.store.GetMany(ctx, missing)
		if err != nil {
			r.logger.Warn("avatar store read failed", "error", err)
		} else if len(cached) > 0 {
			if !r.apply(ctx, cached) {
				return ctx.Err()
			}
			missing = r.Missing(missing)
		}
	}

	for start := 0; start < len(missing); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := missing[start:min(start+r.batchSize, len(missing))]

		thumbs, err := r.fetch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("avatar batch skipped", "ids", len(batch), "error", err)
			continue
		}

		resolved := make(map[int64]string, len(batch))
		for _, id := range batch {
			resolved[id] = Placeholder
		}
		for _, th := range thumbs {
			if _, ok := resolved[th.TargetID]; ok && th.State == StateCompleted && th.ImageURL != "" {
				resolved[th.TargetID] = th.ImageURL
			}
		}
		if !r.apply(ctx, resolved) {
			return ctx.Err()
		}
		if r.store != nil {
			r.persist(ctx, resolved)
		}
	}
	return nil
}

// persist writes real headshots to the store. Placeholders stand for pending
// or missing thumbnails and stay local to this resolver.
func (r *Resolver) persist(ctx context.Context, resolved map[int64]string) {
	urls := make(map[int64]string, len(resolved))
	for id, u := range resolved {
		if u != Placeholder {
			urls[id] = u
		}
	}
	if err := r.store.SetMany(ctx, urls); err != nil {
		r.logger.Warn("avatar store write failed", "error", err)
	}
}

// fetch requests one batch, retrying with exponential backoff.
func (r *Resolver) fetch(ctx context.Context, batch []int64) ([]Thumbnail, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(r.backoff << (attempt - 1))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
		thumbs, err := r.fetcher.Headshots(ctx, batch)
		if err == nil && len(thumbs) == 0 {
			err = errEmptyBatch
		}
		if err == nil {
			return thumbs, nil
		}
		lastErr = err
		if errors.Is(err, ErrTooManyIDs) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// apply merges urls into the cache unless ctx was cancelled, then notifies
// subscribers. It reports whether anything was applied.
func (r *Resolver) apply(ctx context.Context, urls map[int64]string) bool {
	r.mu.Lock()
	if ctx.Err() != nil {
		r.mu.Unlock()
		return false
	}
	for id, u := range urls {
		if _, ok := r.urls[id]; !ok {
			r.urls[id] = u
		}
	}
	snap := maps.Clone(r.urls)
	subs := make([]func(map[int64]string), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// Show resolves ids in the background. A later Show or Close cancels the
// pass started here; batches it already applied stay cached.
func (r *Resolver) Show(ids []int64) {
	r.showMu.Lock()
	defer r.showMu.Unlock()

	if r.closed {
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if len(r.Missing(ids)) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Resolve(ctx, ids); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Debug("avatar pass ended", "error", err)
		}
	}()
}

// Wait blocks until background passes have finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels the running pass and waits for it to stop.
func (r *Resolver) Close() {
	r.showMu.Lock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.showMu.Unlock()
	r.wg.Wait()
}

// Factory hands out short-lived resolvers sharing one fetcher and Options.
// Servers use one resolver per request and share results through the Store.
type Factory struct {
	fetcher Fetcher
	opts    Options
}

// NewFactory returns a Factory building resolvers over f.
func NewFactory(f Fetcher, opts Options) *Factory {
	return &Factory{fetcher: f, opts: opts}
}

// New returns a fresh resolver with an empty cache. The caller closes it.
func (f *Factory) New() *Resolver {
	return NewResolver(f.fetcher, f.opts)
}
