package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// sweep is one expiration pass. It runs on the sweeper's timer goroutine
// (or synchronously in tests) and never holds the structural lock while
// handlers run.
func (c *cache[K, V]) sweep() {
	cands, still, gen := c.st.scan(c.now())
	if len(cands) == 0 {
		c.st.settle(gen, still)
		return
	}

	var evicted, kept int
	for _, k := range cands {
		stays, canExpire := c.expire(k)
		if stays {
			kept++
		} else {
			evicted++
		}
		still = still || (stays && canExpire)
	}
	more := c.st.settle(gen, still)

	c.log.Debug("cache: sweep pass",
		zap.Int("candidates", len(cands)),
		zap.Int("evicted", evicted),
		zap.Int("kept", kept),
		zap.Bool("more", more))
}

// expire evicts k if it is still stale once its lock is held.
// stays reports whether an entry remains under k; canExpire whether that
// entry still needs sweeping.
func (c *cache[K, V]) expire(k K) (stays, canExpire bool) {
	ctx, unlock, err := c.locks.Get(k).Acquire(context.Background())
	if err != nil {
		return true, true
	}
	defer unlock()

	// Re-check: the entry may have been replaced or removed since the scan.
	e, ok := c.st.load(k)
	if !ok {
		return false, false
	}
	now := c.now()
	if !e.expired(now) {
		return true, e.canExpire()
	}

	if h := c.opt.OnExpiring; h != nil {
		dec, ok := c.callExpiring(ctx, h, ExpiringEvent[K, V]{Key: k, Value: e.val, Policy: e.policy})
		if !ok {
			// Handler panicked: leave the entry for the next pass.
			return true, true
		}
		// The handler holds k's lock through ctx and may have removed or
		// replaced the entry; either way this eviction is void.
		cur, ok := c.st.load(k)
		if !ok {
			return false, false
		}
		if cur != e {
			return true, cur.canExpire()
		}
		if dec.Cancel {
			p := e.policy
			if dec.Policy != nil {
				p = *dec.Policy
			}
			c.st.put(k, newEntry(e.val, p, now))
			c.renewed.Add(1)
			c.opt.Metrics.Renew()
			return true, p.CanExpire()
		}
	}

	_, _, n := c.st.remove(k)
	c.expired.Add(1)
	c.opt.Metrics.Remove(RemoveExpired)
	c.opt.Metrics.Size(n)

	dispose := c.dispose.Load()
	if h := c.opt.OnExpired; h != nil {
		dispose = c.callExpired(ctx, h, ExpiredEvent[K, V]{Key: k, Value: e.val, Dispose: dispose})
	}
	if dispose {
		e.dispose(c.log, k)
	}
	return false, false
}

// callExpiring invokes h, isolating panics. ok is false if h panicked.
func (c *cache[K, V]) callExpiring(ctx context.Context, h ExpiringFunc[K, V], ev ExpiringEvent[K, V]) (dec ExpiringDecision, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("cache: expiring handler panicked",
				zap.String("key", fmt.Sprint(ev.Key)),
				zap.Any("panic", r))
			ok = false
		}
	}()
	return h(ctx, ev), true
}

// callExpired invokes h, isolating panics. A panicking handler leaves the
// dispose flag at its default.
func (c *cache[K, V]) callExpired(ctx context.Context, h ExpiredFunc[K, V], ev ExpiredEvent[K, V]) (dispose bool) {
	dispose = ev.Dispose
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("cache: expired handler panicked",
				zap.String("key", fmt.Sprint(ev.Key)),
				zap.Any("panic", r))
			dispose = ev.Dispose
		}
	}()
	return h(ctx, ev)
}
