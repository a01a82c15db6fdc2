package cache

import (
	"context"
	"time"
)

// FetchFunc computes a value on a cache miss. ctx carries the hold on the
// key's lock; pass it to nested cache calls for the same key.
//
// Anything started with ctx counts as the lock holder, goroutines included.
// A GetOrFetchAsync (or a goroutine calling GetOrFetch) with WithOverride on
// the same key from inside fetch re-enters the lock and runs its fetch
// concurrently with this one. Use a context not derived from ctx for work
// that must wait its turn.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Result is delivered by GetOrFetchAsync.
type Result[V any] struct {
	Value V
	Err   error
}

// Cache is a keyed cache with per-key mutual exclusion and deferred,
// sweep-driven expiration.
// All methods are safe for concurrent use by multiple goroutines.
//
// Every keyed operation serializes on the key's lock. The context passed in
// identifies the calling flow: a flow that already holds a key's lock (e.g.
// inside a FetchFunc) re-enters it instead of deadlocking. Waiting for a lock
// is abandoned when ctx is done.
type Cache[K comparable, V any] interface {
	// Get returns the cached value for k, or ErrNotFound.
	// It never populates the cache.
	Get(ctx context.Context, k K) (V, error)

	// Contains reports whether k is cached.
	Contains(ctx context.Context, k K) (bool, error)

	// GetOrFetch returns the cached value for k; on miss (or with
	// WithOverride) it calls fetch and stores the result.
	// At most one fetch per key runs at any time. Errors from fetch are
	// returned unchanged and nothing is stored.
	GetOrFetch(ctx context.Context, k K, fetch FetchFunc[V], opts ...FetchOption) (V, error)

	// GetOrFetchAsync is GetOrFetch on a new goroutine. Argument errors are
	// delivered immediately; the channel receives exactly one Result.
	GetOrFetchAsync(ctx context.Context, k K, fetch FetchFunc[V], opts ...FetchOption) <-chan Result[V]

	// Add stores v under k unless k is present (see WithOverride).
	Add(ctx context.Context, k K, v V, opts ...FetchOption) error

	// Remove deletes k. beforeRemove, if non-nil, runs under the key's lock
	// just before the entry is dropped. Expiration handlers are not invoked.
	// It reports whether k was present.
	Remove(ctx context.Context, k K, beforeRemove func(V)) (bool, error)

	// Clear removes every entry through the per-key removal path and stops
	// the sweep timer.
	Clear(ctx context.Context) error

	// Keys returns a snapshot of the cached keys, in no particular order.
	Keys() []K

	// Len returns the number of cached entries.
	Len() int

	// DisposeValuesOnRemoval reports whether removed values are closed.
	DisposeValuesOnRemoval() bool
	// SetDisposeValuesOnRemoval changes the setting for later removals.
	SetDisposeValuesOnRemoval(dispose bool)

	// ExpirationInterval returns the sweep period.
	ExpirationInterval() time.Duration
	// SetExpirationInterval changes the sweep period, rescheduling a pending
	// pass. Non-positive values restore DefaultExpirationInterval.
	SetExpirationInterval(d time.Duration)

	// Stats returns a snapshot of internal counters.
	Stats() Stats

	// Close stops the sweep timer. Keyed operations on a closed cache return
	// ErrClosed.
	Close() error
}

// FetchOption customizes a single GetOrFetch or Add call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	policy    Policy
	hasPolicy bool
	override  bool
}

// WithPolicy sets the expiration policy of the stored entry, overriding
// Options.DefaultPolicy.
func WithPolicy(p Policy) FetchOption {
	return func(o *fetchOptions) {
		o.policy = p
		o.hasPolicy = true
	}
}

// WithOverride makes the call fetch and store even if k is already cached.
func WithOverride() FetchOption {
	return func(o *fetchOptions) { o.override = true }
}
