package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// Fuzz basic Add/Get/Remove semantics under arbitrary string inputs.
// Guards against panics and ensures core invariants hold.
func FuzzCache_AddGetRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}
		ctx := context.Background()

		c := New[string, string](Options[string, string]{})
		t.Cleanup(func() { _ = c.Close() })

		if err := c.Add(ctx, k, v); err != nil {
			t.Fatalf("Add: %v", err)
		}
		got, err := c.Get(ctx, k)
		if err != nil || got != v {
			t.Fatalf("after Add/Get: want %q, got %q err=%v", v, got, err)
		}

		// Add without override must not replace.
		if err := c.Add(ctx, k, "other"); err != nil {
			t.Fatalf("second Add: %v", err)
		}
		if got2, _ := c.Get(ctx, k); got2 != v {
			t.Fatalf("after duplicate Add: want %q, got %q", v, got2)
		}

		if ok, err := c.Remove(ctx, k, nil); !ok || err != nil {
			t.Fatalf("Remove: ok=%v err=%v", ok, err)
		}
		if _, err := c.Get(ctx, k); !errors.Is(err, ErrNotFound) {
			t.Fatalf("key must be absent after Remove, err=%v", err)
		}
		if keys := c.Keys(); len(keys) != 0 {
			t.Fatalf("Keys after Remove: %q", keys)
		}
	})
}
