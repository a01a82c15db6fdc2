package cache

import (
	"context"
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// benchmarkMix exercises a read/fetch mix against a warm cache.
// Each operation goes through the key's lock, so this measures the per-key
// locking overhead end to end.
func benchmarkMix(b *testing.B, readsPct int, ttl time.Duration) {
	c := New[string, string](Options[string, string]{ExpirationInterval: 10 * time.Millisecond})
	b.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	opts := []FetchOption{}
	if ttl > 0 {
		opts = append(opts, WithPolicy(ExpireAfter(ttl)))
	}
	fetch := func(context.Context) (string, error) { return "v", nil }

	for i := 0; i < 50_000; i++ {
		_ = c.Add(ctx, "k:"+strconv.Itoa(i), "v", opts...)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				_, _ = c.Get(ctx, k)
			} else {
				_, _ = c.GetOrFetch(ctx, k, fetch, opts...)
			}
			i++
		}
	})
}

func BenchmarkCache_90r10f(b *testing.B)          { benchmarkMix(b, 90, 0) }
func BenchmarkCache_50r50f(b *testing.B)          { benchmarkMix(b, 50, 0) }
func BenchmarkCache_Expiring_90r10f(b *testing.B) { benchmarkMix(b, 90, 50*time.Millisecond) }
