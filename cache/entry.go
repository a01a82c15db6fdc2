package cache

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/keycache/internal/keylock"
)

// entry wraps a cached value with its expiration policy.
// Entries are never mutated after creation: overwrites and renewals
// replace the whole entry in the store.
type entry[V any] struct {
	val    V
	policy Policy

	// Creation time in UnixNano, taken from the cache Clock.
	created int64
	// Precomputed stale instant in UnixNano; 0 means "never".
	exp int64
}

func newEntry[V any](v V, p Policy, now int64) *entry[V] {
	return &entry[V]{val: v, policy: p, created: now, exp: p.horizon(now)}
}

// canExpire reports whether the entry needs sweeping at all.
func (e *entry[V]) canExpire() bool { return e.policy.CanExpire() }

// expired reports whether the entry is stale at now (UnixNano).
func (e *entry[V]) expired(now int64) bool {
	if !e.canExpire() {
		return false
	}
	return now >= e.exp
}

// dispose closes the value if it implements io.Closer.
// Failures (errors and panics) are logged and swallowed so that one bad value
// cannot abort a sweep or a Clear.
func (e *entry[V]) dispose(log *zap.Logger, key any) {
	c, ok := any(e.val).(io.Closer)
	if !ok || keylock.IsNil(e.val) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("cache: dispose panicked",
				zap.String("key", fmt.Sprint(key)),
				zap.Any("panic", r))
		}
	}()
	if err := c.Close(); err != nil {
		log.Warn("cache: dispose failed",
			zap.String("key", fmt.Sprint(key)),
			zap.Error(err))
	}
}
