// Package util contains internal helpers for hot-path counters.
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineSize is a reasonable default for most modern CPUs.
const CacheLineSize = 64

// CacheLinePad separates groups of hot fields into distinct cache lines.
type CacheLinePad struct{ _ [CacheLineSize]byte }

// Counter is an atomic int64 occupying exactly one cache line, so that
// counters bumped by different goroutines do not false-share.
type Counter struct {
	atomic.Int64
	_ [CacheLineSize - 8]byte
}

// Snapshot reads several counters in order. The result is not a consistent
// cut: each counter is read independently.
func Snapshot(cs ...*Counter) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.Load()
	}
	return out
}

// Compile-time size check (must be exactly one cache line).
var _ [CacheLineSize - int(unsafe.Sizeof(Counter{}))]byte
