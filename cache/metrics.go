package cache

import "time"

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                       {}
func (NoopMetrics) Miss()                      {}
func (NoopMetrics) Fetch(time.Duration, error) {}
func (NoopMetrics) Remove(RemoveReason)        {}
func (NoopMetrics) Renew()                     {}
func (NoopMetrics) Size(int)                   {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// Stats is a point-in-time snapshot of the cache's internal counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Fetches     int64
	FetchErrors int64
	Expirations int64
	Renewals    int64
	Removals    int64
	Entries     int
	KeyLocks    int
}
