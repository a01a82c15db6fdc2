package keylock

import (
	"reflect"
	"sync"
)

// Registry hands out one Lock per key and never forgets it.
//
// Locks are created lazily and retained for the registry's lifetime so that
// every caller asking for the same key gets the same Lock. Dropping locks
// once unused would let a late caller create a second Lock for a key that is
// still held, which breaks mutual exclusion. Memory grows with the number of
// distinct keys ever seen; bound the key cardinality, not the registry.
type Registry[K comparable] struct {
	mu     sync.Locker // structural lock, shared with the owner's map
	locks  map[K]*Lock
	nilKey *Lock
}

// NewRegistry returns a Registry whose creation path is guarded by mu.
// Passing the owner's structural lock keeps lock creation and map membership
// changes under the same mutex. A nil mu gets a private mutex.
func NewRegistry[K comparable](mu sync.Locker) *Registry[K] {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Registry[K]{
		mu:     mu,
		locks:  make(map[K]*Lock),
		nilKey: NewLock(),
	}
}

// Get returns the Lock for key, creating it on first use.
// Nil keys (for pointer, interface, map, chan, func and slice kinds) share
// a single fixed Lock.
func (r *Registry[K]) Get(key K) *Lock {
	if IsNil(key) {
		return r.nilKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(key)
}

// GetLocked is Get for callers already holding the structural lock.
func (r *Registry[K]) GetLocked(key K) *Lock {
	if IsNil(key) {
		return r.nilKey
	}
	return r.getLocked(key)
}

func (r *Registry[K]) getLocked(key K) *Lock {
	l, ok := r.locks[key]
	if !ok {
		l = NewLock()
		r.locks[key] = l
	}
	return l
}

// Len returns the number of keyed locks created so far (the nil-key lock is
// not counted).
func (r *Registry[K]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// IsNil reports whether v is a nil pointer, interface, map, chan, func or
// slice. Values of other kinds are never nil.
func IsNil[T any](v T) bool {
	a := any(v)
	if a == nil {
		return true
	}
	rv := reflect.ValueOf(a)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func,
		reflect.Slice, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
