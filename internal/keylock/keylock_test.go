package keylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLock_ExcludesOtherFlows(t *testing.T) {
	t.Parallel()

	l := NewLock()
	var inside, maxInside int32

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, unlock, err := l.Acquire(context.Background())
			if err != nil {
				return err
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, atomic.LoadInt32(&maxInside))
}

func TestLock_Reentrant(t *testing.T) {
	t.Parallel()

	l := NewLock()
	ctx, unlock1, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, l.HeldBy(ctx))

	// Same flow: must not block.
	ctx2, unlock2, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, l.HeldBy(ctx2))

	unlock2()
	// Still held after the inner release.
	_, _, ok := l.TryAcquire(context.Background())
	require.False(t, ok)

	unlock1()
	_, unlock3, ok := l.TryAcquire(context.Background())
	require.True(t, ok)
	unlock3()
}

func TestLock_UnlockIsIdempotent(t *testing.T) {
	t.Parallel()

	l := NewLock()
	ctx, unlock1, err := l.Acquire(context.Background())
	require.NoError(t, err)
	_, unlock2, err := l.Acquire(ctx)
	require.NoError(t, err)

	unlock2()
	unlock2() // ignored; must not release the outer hold
	_, _, ok := l.TryAcquire(context.Background())
	require.False(t, ok)

	unlock1()
}

func TestLock_AcquireHonorsContext(t *testing.T) {
	t.Parallel()

	l := NewLock()
	_, unlock, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = l.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLock_DifferentFlowsAreNotReentrant(t *testing.T) {
	t.Parallel()

	l := NewLock()
	ctx, unlock, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer unlock()

	require.False(t, l.HeldBy(context.Background()))
	_, _, ok := l.TryAcquire(context.Background())
	require.False(t, ok)
	require.True(t, l.HeldBy(ctx))
}

func TestRegistry_SameLockPerKey(t *testing.T) {
	t.Parallel()

	r := NewRegistry[string](nil)
	const N = 64

	locks := make([]*Lock, N)
	var wg sync.WaitGroup
	wg.Add(N)
	for i := 0; i < N; i++ {
		go func(i int) {
			defer wg.Done()
			locks[i] = r.Get("k")
		}(i)
	}
	wg.Wait()

	for i := 1; i < N; i++ {
		require.Same(t, locks[0], locks[i])
	}
	require.NotSame(t, locks[0], r.Get("other"))
	require.Equal(t, 2, r.Len())
}

func TestRegistry_NilKeySentinel(t *testing.T) {
	t.Parallel()

	r := NewRegistry[*int](nil)
	a := r.Get(nil)
	b := r.Get(nil)
	require.Same(t, a, b)
	require.Equal(t, 0, r.Len())

	v := 1
	require.NotSame(t, a, r.Get(&v))
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var p *int
	var m map[string]int
	var e error
	require.True(t, IsNil(p))
	require.True(t, IsNil(m))
	require.True(t, IsNil(e))
	require.True(t, IsNil[any](nil))
	require.False(t, IsNil(0))
	require.False(t, IsNil(""))
	require.False(t, IsNil(struct{}{}))
}
