package cache

import (
	"fmt"
	"time"
)

// PolicyKind tells how an entry's expiration horizon is computed.
type PolicyKind int

const (
	// PolicyNone means the entry never expires.
	PolicyNone PolicyKind = iota
	// PolicyAbsolute means the entry expires at a fixed wall-clock instant.
	PolicyAbsolute
	// PolicySliding means the entry expires a fixed duration after it was cached.
	// The horizon is NOT extended by reads.
	PolicySliding
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyAbsolute:
		return "absolute"
	case PolicySliding:
		return "sliding"
	default:
		return "none"
	}
}

// Policy describes when a cached entry becomes stale. It is an immutable value;
// the zero Policy never expires.
type Policy struct {
	kind     PolicyKind
	deadline int64 // UnixNano, PolicyAbsolute only
	ttl      time.Duration
}

// NoExpiration returns a policy under which entries never expire.
func NoExpiration() Policy { return Policy{} }

// ExpireAt returns a policy under which entries expire at t.
// A t in the past yields entries that are stale as soon as they are cached.
func ExpireAt(t time.Time) Policy {
	return Policy{kind: PolicyAbsolute, deadline: t.UnixNano()}
}

// ExpireAfter returns a policy under which entries expire d after they were
// cached. A non-positive d yields entries that are stale immediately.
func ExpireAfter(d time.Duration) Policy {
	if d < 0 {
		d = 0
	}
	return Policy{kind: PolicySliding, ttl: d}
}

// Kind returns the policy kind.
func (p Policy) Kind() PolicyKind { return p.kind }

// Deadline returns the absolute expiration instant (zero time unless Kind is PolicyAbsolute).
func (p Policy) Deadline() time.Time {
	if p.kind != PolicyAbsolute {
		return time.Time{}
	}
	return time.Unix(0, p.deadline)
}

// Duration returns the relative lifetime (zero unless Kind is PolicySliding).
func (p Policy) Duration() time.Duration { return p.ttl }

// CanExpire reports whether entries under p can ever become stale.
func (p Policy) CanExpire() bool { return p.kind != PolicyNone }

// horizon returns the UnixNano instant at which an entry created at created
// becomes stale, or 0 when it never does.
func (p Policy) horizon(created int64) int64 {
	switch p.kind {
	case PolicyAbsolute:
		return p.deadline
	case PolicySliding:
		return created + int64(p.ttl)
	default:
		return 0
	}
}

func (p Policy) String() string {
	switch p.kind {
	case PolicyAbsolute:
		return fmt.Sprintf("absolute(%s)", p.Deadline().Format(time.RFC3339Nano))
	case PolicySliding:
		return fmt.Sprintf("sliding(%s)", p.ttl)
	default:
		return "none"
	}
}
