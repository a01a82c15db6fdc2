// Package cache provides a generic, in-memory keyed cache with per-key
// mutual exclusion, get-or-fetch semantics and deferred, sweep-driven
// expiration with a veto hook.
//
// Design
//
//   - Two lock tiers: one structural mutex guards the key→entry map and the
//     key→lock registry (held briefly, never while user code runs), and one
//     lock per key serializes everything done to that key, including the
//     user's fetch func. Hence at most one fetch per key runs at a time,
//     while different keys proceed fully in parallel.
//
//   - Key locks are created on first use and never released, so lock
//     identity is stable for the cache's lifetime. Bound the key
//     cardinality; the lock table grows with every distinct key seen.
//
//   - Key locks are reentrant per logical flow. The flow is identified by
//     the context: a FetchFunc receives a context carrying its hold, and
//     passing it to nested calls for the same key re-enters instead of
//     deadlocking. Lock waits honor context cancellation.
//
//   - Expiration: each entry carries a Policy (never, absolute deadline,
//     or a fixed duration after caching). Stale entries stay visible until
//     the sweeper evicts them; reads do not extend lifetimes.
//
//   - Sweeper: a timer (default every second) scans for stale entries and,
//     under each key's lock, asks Options.OnExpiring whether to evict. A
//     handler can veto and supply a replacement policy. After eviction
//     Options.OnExpired decides whether to dispose (io.Closer) the value.
//     The timer only runs while expirable entries exist.
//
//   - Remove and Clear never raise expiration events.
//
// Basic usage
//
//	c := cache.New[string, *Profile](cache.Options[string, *Profile]{})
//	defer c.Close()
//
//	p, err := c.GetOrFetch(ctx, "user:42", func(ctx context.Context) (*Profile, error) {
//	    return db.LoadProfile(ctx, 42) // runs at most once concurrently per key
//	}, cache.WithPolicy(cache.ExpireAfter(time.Minute)))
//
// Vetoing an eviction
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{
//	    OnExpiring: func(ctx context.Context, ev cache.ExpiringEvent[string, []byte]) cache.ExpiringDecision {
//	        if stillNeeded(ev.Key) {
//	            p := cache.ExpireAfter(30 * time.Second)
//	            return cache.ExpiringDecision{Cancel: true, Policy: &p}
//	        }
//	        return cache.ExpiringDecision{}
//	    },
//	})
//
// Failure handling
//
// Errors returned by a FetchFunc are passed through unchanged and nothing is
// stored. Panics in OnExpiring/OnExpired and failures while disposing values
// are recovered and logged through Options.Logger (zap); the sweep carries on
// with the remaining keys.
package cache
