package cache

import (
	"sync"
	"time"
)

// sweeper drives the periodic expiration pass.
//
// The timer is created on first use and re-armed after each pass only while
// pending() reports work, so an idle cache has no wakeups. Passes never
// overlap.
type sweeper struct {
	pass    func()      // one expiration pass
	pending func() bool // whether expirable entries remain

	passMu sync.Mutex

	// ---- guarded by mu ----
	mu       sync.Mutex
	timer    *time.Timer
	interval time.Duration
	armed    bool
	closed   bool
}

func newSweeper(interval time.Duration, pass func(), pending func() bool) *sweeper {
	if interval <= 0 {
		interval = DefaultExpirationInterval
	}
	return &sweeper{pass: pass, pending: pending, interval: interval}
}

// ensure arms the timer if it is idle.
func (s *sweeper) ensure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.armed {
		return
	}
	s.armed = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.interval, s.fire)
		return
	}
	s.timer.Reset(s.interval)
}

func (s *sweeper) fire() {
	s.passMu.Lock()
	s.pass()
	s.passMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.armed {
		return
	}
	// pending is read under mu: an insert that raced with the pass either
	// shows up here or calls ensure after we disarm.
	if s.pending() {
		s.timer.Reset(s.interval)
		return
	}
	s.armed = false
}

// runNow performs a pass synchronously on the caller's goroutine.
func (s *sweeper) runNow() {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	s.pass()
}

func (s *sweeper) getInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// setInterval changes the period, rescheduling the existing timer if armed.
func (s *sweeper) setInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultExpirationInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	if s.armed && s.timer != nil {
		s.timer.Reset(d)
	}
}

// isArmed reports whether a pass is scheduled.
func (s *sweeper) isArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// stopIdle disables the timer unless busy reports pending work. busy runs
// under mu for the same reason pending does in fire. ensure re-enables it.
func (s *sweeper) stopIdle(busy func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if busy() {
		return
	}
	s.armed = false
	if s.timer != nil {
		s.timer.Stop()
	}
}

// close stops the timer for good.
func (s *sweeper) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.armed = false
	if s.timer != nil {
		s.timer.Stop()
	}
}
