package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultExpirationInterval is the sweep period used when
// Options.ExpirationInterval is not set.
const DefaultExpirationInterval = time.Second

// RemoveReason explains why an entry left the cache.
type RemoveReason int

const (
	// RemoveExplicit means the entry was removed by Remove.
	RemoveExplicit RemoveReason = iota
	// RemoveExpired means the entry was evicted by the expiration sweep.
	RemoveExpired
	// RemoveCleared means the entry was removed by Clear.
	RemoveCleared
)

func (r RemoveReason) String() string {
	switch r {
	case RemoveExpired:
		return "expired"
	case RemoveCleared:
		return "cleared"
	default:
		return "explicit"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	// Fetch is reported once per fetch func invocation, with its duration
	// and whether it returned an error.
	Fetch(d time.Duration, err error)
	Remove(reason RemoveReason)
	// Renew is reported when an expiring handler vetoes a removal.
	Renew()
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// ExpiringEvent describes an entry the sweep is about to evict.
type ExpiringEvent[K comparable, V any] struct {
	Key    K
	Value  V
	Policy Policy
}

// ExpiringDecision is returned by an ExpiringFunc.
// With Cancel set the entry is kept and re-created with Policy (or with its
// current policy when Policy is nil); its creation time is reset to now.
type ExpiringDecision struct {
	Cancel bool
	Policy *Policy
}

// ExpiringFunc is consulted before every sweep-driven eviction.
// It runs while the key's lock is held; ctx identifies that hold, so calls
// back into the cache for the same key must pass ctx.
type ExpiringFunc[K comparable, V any] func(ctx context.Context, ev ExpiringEvent[K, V]) ExpiringDecision

// ExpiredEvent describes an entry the sweep has just evicted.
// Dispose carries the cache's DisposeValuesOnRemoval setting.
type ExpiredEvent[K comparable, V any] struct {
	Key     K
	Value   V
	Dispose bool
}

// ExpiredFunc is called after every sweep-driven eviction and returns whether
// the value should be disposed (closed).
type ExpiredFunc[K comparable, V any] func(ctx context.Context, ev ExpiredEvent[K, V]) (dispose bool)

// Options configures the cache behavior. Zero values are safe;
// sane defaults are applied in New():
//   - nil DefaultPolicy       => NoExpiration
//   - ExpirationInterval <= 0 => DefaultExpirationInterval
//   - nil Metrics             => NoopMetrics
//   - nil Logger              => zap.NewNop()
type Options[K comparable, V any] struct {
	// DefaultPolicy produces the policy for operations that do not pass
	// WithPolicy. It is called once per stored entry.
	DefaultPolicy func() Policy

	// StoreNilValues makes nil results of a fetch (nil pointers, interfaces,
	// maps, slices, ...) cacheable. When false, nil results are returned to
	// the caller but not stored, and Add rejects nil values.
	StoreNilValues bool

	// KeyNormalizer maps every key to its canonical form before lookup, e.g.
	// strings.ToLower for case-insensitive keys. Keys() reports canonical keys.
	KeyNormalizer func(K) K

	// DisposeValuesOnRemoval closes values implementing io.Closer when they
	// leave the cache. Can be changed at runtime.
	DisposeValuesOnRemoval bool

	// ExpirationInterval is the sweep period. Can be changed at runtime.
	ExpirationInterval time.Duration

	// OnExpiring may veto an eviction; OnExpired observes it.
	// Both run on the sweep goroutine under the key's lock; keep them short.
	// An OnExpiring handler that removes or replaces the entry through its
	// ctx voids the eviction: no OnExpired event is raised.
	OnExpiring ExpiringFunc[K, V]
	OnExpired  ExpiredFunc[K, V]

	// Observability
	Metrics Metrics
	Logger  *zap.Logger

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock
}
