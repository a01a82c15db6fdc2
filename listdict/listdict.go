// Package listdict implements a small insertion-ordered map backed by an
// intrusive doubly linked list.
//
// Lookups are linear scans, which beats hashing for a handful of entries and
// keeps iteration order stable. Use it for small N only.
package listdict

import "iter"

// node is an intrusive doubly linked list element (head is oldest).
type node[K comparable, V any] struct {
	key  K
	val  V
	prev *node[K, V]
	next *node[K, V]
}

// Dict is an ordered association list. Keys are compared with == unless a
// custom equality is supplied. Add does not check for duplicates; lookups
// return the first match.
//
// A Dict is not safe for concurrent use. The zero value is an empty Dict
// using == for keys.
type Dict[K comparable, V any] struct {
	head *node[K, V]
	tail *node[K, V]
	len  int
	eq   func(a, b K) bool
}

// New returns an empty Dict comparing keys with ==.
func New[K comparable, V any]() *Dict[K, V] { return &Dict[K, V]{} }

// NewWithEqual returns an empty Dict comparing keys with eq.
func NewWithEqual[K comparable, V any](eq func(a, b K) bool) *Dict[K, V] {
	return &Dict[K, V]{eq: eq}
}

// Len returns the number of pairs, duplicates included.
func (d *Dict[K, V]) Len() int { return d.len }

// Get returns the value of the first pair with key k.
func (d *Dict[K, V]) Get(k K) (V, bool) {
	if n := d.find(k); n != nil {
		return n.val, true
	}
	var zero V
	return zero, false
}

// Set replaces the value of the first pair with key k in place, or appends a
// new pair.
func (d *Dict[K, V]) Set(k K, v V) {
	if n := d.find(k); n != nil {
		n.val = v
		return
	}
	d.pushBack(&node[K, V]{key: k, val: v})
}

// Add appends k→v unconditionally. Callers relying on unique keys must check
// ContainsKey first.
func (d *Dict[K, V]) Add(k K, v V) { d.pushBack(&node[K, V]{key: k, val: v}) }

// Remove deletes the first pair with key k and reports whether one was found.
func (d *Dict[K, V]) Remove(k K) bool {
	n := d.find(k)
	if n == nil {
		return false
	}
	d.unlink(n)
	return true
}

// ContainsKey reports whether a pair with key k exists.
func (d *Dict[K, V]) ContainsKey(k K) bool { return d.find(k) != nil }

// IndexOf returns the position of the first pair with key k, or -1.
func (d *Dict[K, V]) IndexOf(k K) int {
	i := 0
	for n := d.head; n != nil; n = n.next {
		if d.equal(n.key, k) {
			return i
		}
		i++
	}
	return -1
}

// Keys returns the keys in insertion order.
func (d *Dict[K, V]) Keys() []K {
	out := make([]K, 0, d.len)
	for n := d.head; n != nil; n = n.next {
		out = append(out, n.key)
	}
	return out
}

// Values returns the values in insertion order.
func (d *Dict[K, V]) Values() []V {
	out := make([]V, 0, d.len)
	for n := d.head; n != nil; n = n.next {
		out = append(out, n.val)
	}
	return out
}

// All yields the pairs in insertion order. The Dict must not be modified
// during iteration.
func (d *Dict[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := d.head; n != nil; n = n.next {
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}

// Clear removes all pairs.
func (d *Dict[K, V]) Clear() {
	d.head, d.tail, d.len = nil, nil, 0
}

// -------------------- internals --------------------

func (d *Dict[K, V]) equal(a, b K) bool {
	if d.eq != nil {
		return d.eq(a, b)
	}
	return a == b
}

func (d *Dict[K, V]) find(k K) *node[K, V] {
	for n := d.head; n != nil; n = n.next {
		if d.equal(n.key, k) {
			return n
		}
	}
	return nil
}

// pushBack appends n in O(1).
func (d *Dict[K, V]) pushBack(n *node[K, V]) {
	n.next = nil
	n.prev = d.tail
	if d.tail != nil {
		d.tail.next = n
	}
	d.tail = n
	if d.head == nil {
		d.head = n
	}
	d.len++
}

// unlink removes n from the list in O(1).
func (d *Dict[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if d.head == n {
		d.head = n.next
	}
	if d.tail == n {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
	d.len--
}
