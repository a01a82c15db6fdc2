// Command bench runs a synthetic fetch/expire workload against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/keycache/cache"
	pmet "github.com/IvanBrykalov/keycache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "share of plain Get calls [0..100]; the rest are GetOrFetch")
		rmPct    = flag.Int("removes", 2, "share of Remove calls [0..100]")

		keys      = flag.Int("keys", 100_000, "keyspace size")
		zipfS     = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV     = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		ttl       = flag.Duration("ttl", 2*time.Second, "entry lifetime (0 = never expire)")
		fetchCost = flag.Duration("fetch", 200*time.Microsecond, "simulated fetch latency")
		sweep     = flag.Duration("sweep", cache.DefaultExpirationInterval, "sweep interval")
		vetoPct   = flag.Int("veto", 0, "share of evictions vetoed by the expiring handler [0..100]")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	cfg := zap.NewProductionConfig()
	if *debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Info("pprof: serving", zap.String("addr", *pprofAddr))
			log.Warn("pprof: stopped", zap.Error(http.ListenAndServe(*pprofAddr, nil)))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "keycache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info("metrics: serving", zap.String("addr", *metricsAddr))
		log.Warn("metrics: stopped", zap.Error(http.ListenAndServe(*metricsAddr, nil)))
	}()

	// ---- Build cache ----
	veto := *vetoPct
	var vetoes atomic.Int64
	opt := cache.Options[string, string]{
		ExpirationInterval: *sweep,
		Metrics:            metrics,
		Logger:             log,
	}
	if *ttl > 0 {
		p := cache.ExpireAfter(*ttl)
		opt.DefaultPolicy = func() cache.Policy { return p }
	}
	if veto > 0 {
		opt.OnExpiring = func(_ context.Context, ev cache.ExpiringEvent[string, string]) cache.ExpiringDecision {
			if int(vetoes.Add(1)%100) < veto {
				return cache.ExpiringDecision{Cancel: true}
			}
			return cache.ExpiringDecision{}
		}
	}
	c := cache.New[string, string](opt)
	defer func() { _ = c.Close() }()

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	rmPctVal := *rmPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	cost := *fetchCost
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var gets, fetchCalls, removes, notFound, total atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workersN; w++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(w)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)

			for gctx.Err() == nil {
				total.Add(1)
				k := "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
				switch n := int(localR.Int31n(100)); {
				case n < rmPctVal:
					removes.Add(1)
					if _, err := c.Remove(gctx, k, nil); err != nil && gctx.Err() == nil {
						return err
					}
				case n < rmPctVal+readPctVal:
					gets.Add(1)
					if _, err := c.Get(gctx, k); errors.Is(err, cache.ErrNotFound) {
						notFound.Add(1)
					}
				default:
					_, err := c.GetOrFetch(gctx, k, func(context.Context) (string, error) {
						fetchCalls.Add(1)
						time.Sleep(cost)
						return "v:" + k, nil
					})
					if err != nil && gctx.Err() == nil {
						return err
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("workload failed", zap.Error(err))
	}
	elapsed := time.Since(start)

	// ---- Report ----
	ops := total.Load()
	st := c.Stats()
	fmt.Printf("workers=%d keys=%d ttl=%v sweep=%v dur=%v seed=%d\n",
		workersN, *keys, *ttl, *sweep, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  gets=%d (not found %d)  removes=%d  fetch calls=%d\n",
		ops, float64(ops)/elapsed.Seconds(), gets.Load(), notFound.Load(), removes.Load(), fetchCalls.Load())
	fmt.Printf("hits=%d misses=%d fetches=%d expirations=%d renewals=%d removals=%d\n",
		st.Hits, st.Misses, st.Fetches, st.Expirations, st.Renewals, st.Removals)
	fmt.Printf("entries=%d key locks=%d\n", st.Entries, st.KeyLocks)
}
