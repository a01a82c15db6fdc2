// Package prom exports cache metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/keycache/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	fetches     *prometheus.CounterVec
	fetchTime   prometheus.Histogram
	removals    *prometheus.CounterVec
	renewals    prometheus.Counter
	sizeEntries prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "fetches_total",
				Help:        "Fetch func invocations by outcome",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		fetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "fetch_duration_seconds",
			Help:        "Time spent in fetch funcs",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
		removals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "removals_total",
				Help:        "Entries removed by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		renewals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "renewals_total",
			Help:        "Evictions vetoed by the expiring handler",
			ConstLabels: constLabels,
		}),
		sizeEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.fetches, a.fetchTime, a.removals, a.renewals, a.sizeEntries)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Fetch records one fetch func call.
func (a *Adapter) Fetch(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	a.fetches.WithLabelValues(result).Inc()
	a.fetchTime.Observe(d.Seconds())
}

// Remove increments the removal counter with a reason label.
func (a *Adapter) Remove(r cache.RemoveReason) {
	a.removals.WithLabelValues(r.String()).Inc()
}

// Renew increments the renewal counter.
func (a *Adapter) Renew() { a.renewals.Inc() }

// Size updates the resident entries gauge.
func (a *Adapter) Size(entries int) { a.sizeEntries.Set(float64(entries)) }

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
