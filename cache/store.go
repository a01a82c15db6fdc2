package cache

import "sync"

// store is the key→entry mapping. Its mutex is the cache's structural lock:
// it guards membership changes and snapshots, and it is also handed to the
// key lock registry so that lock creation is serialized with them.
// The structural lock is never held while user code runs.
type store[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu sync.Mutex
	m  map[K]*entry[V]

	// hasExpirable is true while at least one entry may need sweeping.
	hasExpirable bool
	// gen is bumped on every insert of an expirable entry, so that a sweep
	// (or Clear) can tell whether new work arrived after its snapshot.
	gen uint64
}

func newStore[K comparable, V any]() *store[K, V] {
	return &store[K, V]{m: make(map[K]*entry[V])}
}

// load returns the entry for k.
func (s *store[K, V]) load(k K) (*entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[k]
	return e, ok
}

// put inserts or replaces the entry for k and returns the resident count.
func (s *store[K, V]) put(k K, e *entry[V]) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = e
	if e.canExpire() {
		s.hasExpirable = true
		s.gen++
	}
	return len(s.m)
}

// remove deletes k and returns the removed entry, if any, and the resident count.
func (s *store[K, V]) remove(k K) (*entry[V], bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[k]
	if ok {
		delete(s.m, k)
	}
	return e, ok, len(s.m)
}

// keys returns a snapshot of the resident keys and the current generation.
func (s *store[K, V]) keys() ([]K, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]K, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	return out, s.gen
}

func (s *store[K, V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// expirable reports whether the sweep still has work to do.
func (s *store[K, V]) expirable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasExpirable
}

// scan collects the keys of entries stale at now. still reports whether any
// remaining entry can expire later.
func (s *store[K, V]) scan(now int64) (cands []K, still bool, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasExpirable {
		return nil, false, s.gen
	}
	for k, e := range s.m {
		switch {
		case e.expired(now):
			cands = append(cands, k)
		case e.canExpire():
			still = true
		}
	}
	return cands, still, s.gen
}

// settle records the outcome of a sweep (or Clear) that started at gen.
// The flag is only lowered when no expirable entry was inserted meanwhile.
// It returns the new flag value.
func (s *store[K, V]) settle(gen uint64, still bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasExpirable = still || s.gen != gen
	return s.hasExpirable
}
