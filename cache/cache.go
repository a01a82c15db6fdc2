package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/keycache/internal/keylock"
	"github.com/IvanBrykalov/keycache/internal/util"
)

// cache composes the store, the key lock registry and the sweeper.
// All methods are safe for concurrent use by multiple goroutines.
type cache[K comparable, V any] struct {
	st    *store[K, V]
	locks *keylock.Registry[K]
	sw    *sweeper

	opt     Options[K, V]
	log     *zap.Logger
	dispose atomic.Bool
	closed  atomic.Bool

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_         util.CacheLinePad
	hits      util.Counter
	misses    util.Counter
	fetches   util.Counter
	fetchErrs util.Counter
	expired   util.Counter
	renewed   util.Counter
	removed   util.Counter
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics             -> NoopMetrics
//   - nil Logger              -> zap.NewNop()
//   - ExpirationInterval <= 0 -> DefaultExpirationInterval
//
// The sweep timer is not started until an expirable entry is stored.
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	c := &cache[K, V]{
		st:  newStore[K, V](),
		opt: opt,
		log: opt.Logger,
	}
	c.locks = keylock.NewRegistry[K](&c.st.mu)
	c.sw = newSweeper(opt.ExpirationInterval, c.sweep, c.st.expirable)
	c.dispose.Store(opt.DisposeValuesOnRemoval)

	// return pointer-to-impl as the interface (avoids unexported-return lint)
	return c
}

// ---- Cache[K,V] implementation ----

// Get returns the cached value for k, or ErrNotFound.
func (c *cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	var zero V
	k, err := c.key(k)
	if err != nil {
		return zero, err
	}
	_, unlock, err := c.lock(ctx, k)
	if err != nil {
		return zero, err
	}
	defer unlock()

	e, ok := c.st.load(k)
	if !ok {
		c.miss()
		return zero, ErrNotFound
	}
	c.hit()
	return e.val, nil
}

// Contains reports whether k is cached.
func (c *cache[K, V]) Contains(ctx context.Context, k K) (bool, error) {
	k, err := c.key(k)
	if err != nil {
		return false, err
	}
	_, unlock, err := c.lock(ctx, k)
	if err != nil {
		return false, err
	}
	defer unlock()

	_, ok := c.st.load(k)
	return ok, nil
}

// GetOrFetch returns the cached value for k, calling fetch under the key's
// lock on miss or when WithOverride is given.
func (c *cache[K, V]) GetOrFetch(ctx context.Context, k K, fetch FetchFunc[V], opts ...FetchOption) (V, error) {
	var zero V
	if fetch == nil {
		return zero, ErrNilFetch
	}
	k, err := c.key(k)
	if err != nil {
		return zero, err
	}
	return c.getOrFetch(ctx, k, fetch, opts)
}

func (c *cache[K, V]) getOrFetch(ctx context.Context, k K, fetch FetchFunc[V], opts []FetchOption) (V, error) {
	var zero V
	var o fetchOptions
	for _, fn := range opts {
		fn(&o)
	}

	ctx, unlock, err := c.lock(ctx, k)
	if err != nil {
		return zero, err
	}
	defer unlock()

	if !o.override {
		if e, ok := c.st.load(k); ok {
			c.hit()
			return e.val, nil
		}
		c.miss()
	}

	start := time.Now()
	v, err := fetch(ctx)
	c.fetches.Add(1)
	c.opt.Metrics.Fetch(time.Since(start), err)
	if err != nil {
		c.fetchErrs.Add(1)
		return zero, err
	}

	if !c.opt.StoreNilValues && keylock.IsNil(v) {
		return v, nil
	}
	c.storeLocked(k, v, o)
	return v, nil
}

// GetOrFetchAsync runs GetOrFetch on a new goroutine.
func (c *cache[K, V]) GetOrFetchAsync(ctx context.Context, k K, fetch FetchFunc[V], opts ...FetchOption) <-chan Result[V] {
	out := make(chan Result[V], 1)

	// Argument errors are reported before any goroutine or lock is involved.
	if fetch == nil {
		out <- Result[V]{Err: ErrNilFetch}
		close(out)
		return out
	}
	k, err := c.key(k)
	if err != nil {
		out <- Result[V]{Err: err}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		v, err := c.getOrFetch(ctx, k, fetch, opts)
		out <- Result[V]{Value: v, Err: err}
	}()
	return out
}

// Add stores v under k unless k is present (or WithOverride is given).
func (c *cache[K, V]) Add(ctx context.Context, k K, v V, opts ...FetchOption) error {
	k, err := c.key(k)
	if err != nil {
		return err
	}
	if !c.opt.StoreNilValues && keylock.IsNil(v) {
		return ErrNilValue
	}
	_, err = c.getOrFetch(ctx, k, func(context.Context) (V, error) { return v, nil }, opts)
	return err
}

// Remove deletes k without raising expiration events.
func (c *cache[K, V]) Remove(ctx context.Context, k K, beforeRemove func(V)) (bool, error) {
	k, err := c.key(k)
	if err != nil {
		return false, err
	}
	_, unlock, err := c.lock(ctx, k)
	if err != nil {
		return false, err
	}
	defer unlock()

	e, ok := c.st.load(k)
	if !ok {
		return false, nil
	}
	if beforeRemove != nil {
		beforeRemove(e.val)
	}
	c.dropLocked(k, RemoveExplicit)
	return true, nil
}

// Clear removes all entries key by key and stops the sweep timer.
func (c *cache[K, V]) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	keys, gen := c.st.keys()
	for _, k := range keys {
		_, unlock, err := c.locks.Get(k).Acquire(ctx)
		if err != nil {
			return fmt.Errorf("cache: clear: %w", err)
		}
		c.dropLocked(k, RemoveCleared)
		unlock()
	}
	c.sw.stopIdle(func() bool { return c.st.settle(gen, false) })
	c.log.Debug("cache: cleared", zap.Int("entries", len(keys)))
	return nil
}

// Keys returns a snapshot of the cached keys.
func (c *cache[K, V]) Keys() []K {
	keys, _ := c.st.keys()
	return keys
}

// Len returns the number of cached entries.
func (c *cache[K, V]) Len() int { return c.st.len() }

// DisposeValuesOnRemoval reports whether removed values are closed.
func (c *cache[K, V]) DisposeValuesOnRemoval() bool { return c.dispose.Load() }

// SetDisposeValuesOnRemoval changes the setting for later removals.
func (c *cache[K, V]) SetDisposeValuesOnRemoval(dispose bool) { c.dispose.Store(dispose) }

// ExpirationInterval returns the sweep period.
func (c *cache[K, V]) ExpirationInterval() time.Duration { return c.sw.getInterval() }

// SetExpirationInterval changes the sweep period; a running timer is
// rescheduled, not recreated. Non-positive values restore the default.
func (c *cache[K, V]) SetExpirationInterval(d time.Duration) { c.sw.setInterval(d) }

// Stats returns a snapshot of internal counters.
func (c *cache[K, V]) Stats() Stats {
	n := util.Snapshot(&c.hits, &c.misses, &c.fetches, &c.fetchErrs, &c.expired, &c.renewed, &c.removed)
	return Stats{
		Hits:        n[0],
		Misses:      n[1],
		Fetches:     n[2],
		FetchErrors: n[3],
		Expirations: n[4],
		Renewals:    n[5],
		Removals:    n[6],
		Entries:     c.st.len(),
		KeyLocks:    c.locks.Len(),
	}
}

// Close stops the sweep timer and marks the cache closed.
func (c *cache[K, V]) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.sw.close()
	return nil
}

// ---- helpers ----

// key validates k and maps it to its canonical form.
func (c *cache[K, V]) key(k K) (K, error) {
	if c.closed.Load() {
		return k, ErrClosed
	}
	if keylock.IsNil(k) {
		return k, ErrNilKey
	}
	if c.opt.KeyNormalizer != nil {
		k = c.opt.KeyNormalizer(k)
	}
	return k, nil
}

// lock acquires k's lock for the flow identified by ctx.
func (c *cache[K, V]) lock(ctx context.Context, k K) (context.Context, func(), error) {
	return c.locks.Get(k).Acquire(ctx)
}

// storeLocked wraps v in a fresh entry and stores it. k's lock must be held.
func (c *cache[K, V]) storeLocked(k K, v V, o fetchOptions) {
	p := o.policy
	if !o.hasPolicy && c.opt.DefaultPolicy != nil {
		p = c.opt.DefaultPolicy()
	}
	e := newEntry(v, p, c.now())
	c.opt.Metrics.Size(c.st.put(k, e))
	if e.canExpire() {
		c.sw.ensure()
	}
}

// dropLocked removes k outside of the sweep and disposes the value if
// configured. k's lock must be held.
func (c *cache[K, V]) dropLocked(k K, reason RemoveReason) {
	e, ok, n := c.st.remove(k)
	if !ok {
		return
	}
	c.removed.Add(1)
	c.opt.Metrics.Remove(reason)
	c.opt.Metrics.Size(n)
	if c.dispose.Load() {
		e.dispose(c.log, k)
	}
}

func (c *cache[K, V]) hit() {
	c.hits.Add(1)
	c.opt.Metrics.Hit()
}

func (c *cache[K, V]) miss() {
	c.misses.Add(1)
	c.opt.Metrics.Miss()
}

func (c *cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}
