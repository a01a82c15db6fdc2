package cache

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// A mixed workload of concurrent fetch/add/remove/clear on random keys while
// the sweeper evicts short-lived entries. Should pass under `-race` without
// detector reports.
func TestRace_Basic(t *testing.T) {
	c := New[string, []byte](Options[string, []byte]{
		ExpirationInterval: 5 * time.Millisecond,
		OnExpiring: func(_ context.Context, ev ExpiringEvent[string, []byte]) ExpiringDecision {
			// Veto a small share of evictions to exercise renewals.
			return ExpiringDecision{Cancel: len(ev.Key)%7 == 0}
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 2_000
	deadline := time.Now().Add(time.Second)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch n := r.Intn(1000); {
				case n == 0: // ~0.1%: Clear
					_ = c.Clear(ctx)
				case n < 50: // ~5%: Remove
					_, _ = c.Remove(ctx, k, nil)
				case n < 150: // ~10%: short-lived Add
					_ = c.Add(ctx, k, []byte("x"), WithOverride(),
						WithPolicy(ExpireAfter(time.Duration(1+r.Intn(10))*time.Millisecond)))
				case n < 300: // ~15%: GetOrFetch
					_, _ = c.GetOrFetch(ctx, k, func(context.Context) ([]byte, error) {
						return []byte("y"), nil
					})
				default: // ~70%: Get
					_, _ = c.Get(ctx, k)
				}
			}
		}(w)
	}
	wg.Wait()
}

// One hundred goroutines call GetOrFetch on the same key concurrently while
// the entry keeps expiring. No two fetches ever overlap.
func TestRace_FetchNeverOverlaps(t *testing.T) {
	c := New[string, int](Options[string, int]{ExpirationInterval: time.Millisecond})
	t.Cleanup(func() { _ = c.Close() })

	var inside, overlaps int64
	fetch := func(context.Context) (int, error) {
		if atomic.AddInt64(&inside, 1) > 1 {
			atomic.AddInt64(&overlaps, 1)
		}
		time.Sleep(100 * time.Microsecond)
		atomic.AddInt64(&inside, -1)
		return 1, nil
	}

	const goroutines = 100
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 20; j++ {
				opts := []FetchOption{WithPolicy(ExpireAfter(time.Millisecond))}
				if j%5 == 0 {
					opts = append(opts, WithOverride())
				}
				if _, err := c.GetOrFetch(context.Background(), "same-key", fetch, opts...); err != nil {
					t.Errorf("GetOrFetch error: %v", err)
					return
				}
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt64(&overlaps); got != 0 {
		t.Fatalf("fetch for one key overlapped %d times", got)
	}
}
