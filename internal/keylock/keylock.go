// Package keylock provides per-key exclusive locks that can be acquired
// reentrantly by a single logical flow.
//
// Go has no goroutine identity, so the holder of a lock is identified by a
// token carried in a context.Context. Acquire returns a derived context that
// carries the token; passing that context (or any descendant) back into
// Acquire for the same lock increments a depth counter instead of blocking.
// Goroutines started with such a context share the holder identity and are
// therefore NOT excluded from each other.
package keylock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// holder identifies one logical flow of execution. It must not be zero-sized:
// distinct zero-size allocations may share an address.
type holder struct{ _ byte }

type holderKey struct{}

// holderFrom returns the holder token carried by ctx, or nil.
func holderFrom(ctx context.Context) *holder {
	h, _ := ctx.Value(holderKey{}).(*holder)
	return h
}

// Lock is an exclusive lock with context-aware, FIFO acquisition.
// The zero value is not usable; locks are created by a Registry or NewLock.
type Lock struct {
	sem *semaphore.Weighted

	// ---- guarded by mu ----
	mu    sync.Mutex
	owner *holder
	depth int
}

// NewLock returns an unlocked Lock.
func NewLock() *Lock {
	return &Lock{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the lock is held by the flow identified by ctx, or ctx
// is done. It returns a context carrying the holder token and an unlock func
// that must be called exactly once.
//
// If the flow already holds the lock, Acquire returns immediately and the
// matching unlock only decrements the depth.
func (l *Lock) Acquire(ctx context.Context) (context.Context, func(), error) {
	h := holderFrom(ctx)
	if h != nil {
		l.mu.Lock()
		if l.owner == h {
			l.depth++
			l.mu.Unlock()
			return ctx, l.unlocker(h), nil
		}
		l.mu.Unlock()
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return ctx, nil, err
	}
	if h == nil {
		h = &holder{}
		ctx = context.WithValue(ctx, holderKey{}, h)
	}

	l.mu.Lock()
	l.owner = h
	l.depth = 1
	l.mu.Unlock()

	return ctx, l.unlocker(h), nil
}

// TryAcquire is the non-blocking variant of Acquire. ok is false when another
// flow holds the lock.
func (l *Lock) TryAcquire(ctx context.Context) (_ context.Context, unlock func(), ok bool) {
	h := holderFrom(ctx)
	if h != nil {
		l.mu.Lock()
		if l.owner == h {
			l.depth++
			l.mu.Unlock()
			return ctx, l.unlocker(h), true
		}
		l.mu.Unlock()
	}
	if !l.sem.TryAcquire(1) {
		return ctx, nil, false
	}
	if h == nil {
		h = &holder{}
		ctx = context.WithValue(ctx, holderKey{}, h)
	}
	l.mu.Lock()
	l.owner = h
	l.depth = 1
	l.mu.Unlock()
	return ctx, l.unlocker(h), true
}

// HeldBy reports whether the flow identified by ctx currently holds the lock.
func (l *Lock) HeldBy(ctx context.Context) bool {
	h := holderFrom(ctx)
	if h == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner == h
}

// unlocker returns a release func for one level of h's hold. Extra calls
// are ignored.
func (l *Lock) unlocker(h *holder) func() {
	var once sync.Once
	return func() { once.Do(func() { l.release(h) }) }
}

func (l *Lock) release(h *holder) {
	l.mu.Lock()
	if l.owner != h || l.depth == 0 {
		l.mu.Unlock()
		panic("keylock: unlock of lock not held by this flow")
	}
	l.depth--
	if l.depth > 0 {
		l.mu.Unlock()
		return
	}
	l.owner = nil
	l.mu.Unlock()
	l.sem.Release(1)
}
