// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package hashtable

import (
	"errors"
	"iter"
	"sync/atomic"

	"github.com/joeycumines/go-objrt/internal/logging"
)

// ErrNilHashFunc is returned by New if no hash function is provided.
var ErrNilHashFunc = errors.New(`hashtable: nil hash function`)

type (
	// HashFunc maps a key to its 64-bit hash.
	HashFunc[K any] func(key K) uint64

	// FreeFunc is called with values that are displaced, removed, or
	// cleared, including on teardown.
	FreeFunc[V any] func(value V)

	// Table is a chained hash table, see the package docs.
	Table[K comparable, V any] struct {
		// Prevent copying
		_ [0]func()

		slots     []*bucket[K, V]
		hash      HashFunc[K]
		free      FreeFunc[V]
		sink      *logging.Sink
		count     int
		grows     int
		mutations uint64
		iterating atomic.Int32
		refs      atomic.Int32
		mod       uint8
		maxMod    uint8
	}

	bucket[K comparable, V any] struct {
		prev  *bucket[K, V]
		next  *bucket[K, V]
		key   K
		value V
		hash  uint64
	}
)

// New constructs a Table, with a reference count of 1. The hash function is
// required, free is optional.
func New[K comparable, V any](hash HashFunc[K], free FreeFunc[V], options ...Option) (*Table[K, V], error) {
	if hash == nil {
		return nil, ErrNilHashFunc
	}
	cfg, err := resolveTableOptions(options)
	if err != nil {
		return nil, err
	}
	x := &Table[K, V]{
		slots:  make([]*bucket[K, V], 1<<cfg.initialMod),
		hash:   hash,
		free:   free,
		sink:   cfg.sink,
		mod:    cfg.initialMod,
		maxMod: cfg.maxMod,
	}
	x.refs.Store(1)
	return x, nil
}

// Len returns the number of live entries.
func (x *Table[K, V]) Len() int {
	if x == nil {
		return 0
	}
	return x.count
}

// Cap returns the number of slots in the bucket array.
func (x *Table[K, V]) Cap() int {
	if x == nil {
		return 0
	}
	return len(x.slots)
}

// Insert maps key to value. If key is already present, its value is replaced,
// and the old value is passed to the FreeFunc, if any. Note that the old and
// new values are not compared.
func (x *Table[K, V]) Insert(key K, value V) {
	if !x.live(`insert`) {
		return
	}

	h := x.hash(key)

	// the new entry is always accounted for, even if it ends up replacing
	if x.count+1 > x.threshold() {
		x.grow()
	}

	i := x.index(h)
	for b := x.slots[i]; b != nil; b = b.next {
		if b.hash == h && b.key == key {
			old := b.value
			b.value = value
			if x.free != nil {
				x.free(old)
			}
			return
		}
	}

	x.pushFront(i, &bucket[K, V]{key: key, value: value, hash: h})
	x.count++
	x.mutations++
}

// Lookup returns the value mapped to key. A hit is moved to the head of its
// chain, unless the table is being iterated.
func (x *Table[K, V]) Lookup(key K) (value V, ok bool) {
	if x == nil || x.slots == nil {
		return
	}
	i, b := x.find(key)
	if b == nil {
		return
	}
	if b.prev != nil && x.iterating.Load() == 0 {
		x.unlink(i, b)
		x.pushFront(i, b)
	}
	return b.value, true
}

// Peek returns the value mapped to key, without reordering its chain. Unlike
// Lookup, Peek does not mutate the table, so concurrent Peek calls are safe,
// provided there are no concurrent writers.
func (x *Table[K, V]) Peek(key K) (value V, ok bool) {
	if x == nil || x.slots == nil {
		return
	}
	if _, b := x.find(key); b != nil {
		return b.value, true
	}
	return
}

// Contains reports whether key is present, without reordering its chain.
func (x *Table[K, V]) Contains(key K) bool {
	_, ok := x.Peek(key)
	return ok
}

// Remove deletes key, passing its value to the FreeFunc, if any. Returns
// true if anything was removed.
func (x *Table[K, V]) Remove(key K) bool {
	value, ok := x.Steal(key)
	if ok && x.free != nil {
		x.free(value)
	}
	return ok
}

// Steal deletes key, returning its value, without calling the FreeFunc.
func (x *Table[K, V]) Steal(key K) (value V, ok bool) {
	if x == nil || x.slots == nil {
		return
	}
	i, b := x.find(key)
	if b == nil {
		return
	}
	x.unlink(i, b)
	x.count--
	x.mutations++
	return b.value, true
}

// Clear removes every entry, passing each value to the FreeFunc, if any.
// The capacity is retained.
func (x *Table[K, V]) Clear() {
	if x == nil || x.slots == nil {
		return
	}
	slots := x.slots
	x.slots = make([]*bucket[K, V], len(slots))
	x.count = 0
	x.mutations++
	if x.free == nil {
		return
	}
	for _, head := range slots {
		for b := head; b != nil; b = b.next {
			x.free(b.value)
		}
	}
}

// All iterates over every entry, in slot then chain order. Inserting or
// removing during iteration panics. Like Peek, concurrent iterations are
// safe, provided there are no concurrent writers.
func (x *Table[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if x == nil {
			return
		}
		x.iterating.Add(1)
		defer x.iterating.Add(-1)
		mutations := x.mutations
		for _, head := range x.slots {
			for b := head; b != nil; b = b.next {
				if !yield(b.key, b.value) {
					return
				}
				if x.mutations != mutations {
					panic(`hashtable: table mutated during iteration`)
				}
			}
		}
	}
}

// Range calls fn for each entry, stopping early if it returns false.
func (x *Table[K, V]) Range(fn func(key K, value V) bool) {
	x.All()(fn)
}

// Ref increments the reference count, returning x.
func (x *Table[K, V]) Ref() *Table[K, V] {
	if x == nil {
		return nil
	}
	x.refs.Add(1)
	return x
}

// Unref decrements the reference count. Dropping the last reference clears
// the table, and releases its bucket array. Returns true if the table was
// torn down.
func (x *Table[K, V]) Unref() bool {
	if x == nil {
		return false
	}
	switch n := x.refs.Add(-1); {
	case n > 0:
		return false
	case n < 0:
		x.refs.Add(1)
		x.sink.Warning(`hashtable`).Log(`hashtable: unref of a table with no references`)
		return false
	}
	x.Clear()
	x.slots = nil
	return true
}

// RefCount returns the current reference count.
func (x *Table[K, V]) RefCount() int32 {
	if x == nil {
		return 0
	}
	return x.refs.Load()
}

// threshold is the maximum count before growth, a load factor of 3/4 below
// 2^8 slots, 1 below 2^16, and 2 beyond.
func (x *Table[K, V]) threshold() int {
	c := len(x.slots)
	switch {
	case x.mod < 8:
		return c - c>>2
	case x.mod < 16:
		return c
	default:
		return c << 1
	}
}

func (x *Table[K, V]) grow() {
	if x.mod >= x.maxMod {
		x.sink.Err(`hashtable`).
			Int(`exponent`, int(x.mod)).
			Int(`count`, x.count).
			Log(`hashtable: capacity ceiling reached, growth refused`)
		return
	}

	old := x.slots
	x.mod++
	x.slots = make([]*bucket[K, V], 1<<x.mod)
	for _, head := range old {
		if head == nil {
			continue
		}
		// relink from the tail, to preserve the access order within chains
		tail := head
		for tail.next != nil {
			tail = tail.next
		}
		for b := tail; b != nil; {
			prev := b.prev
			x.pushFront(x.index(b.hash), b)
			b = prev
		}
	}
	x.grows++
	x.mutations++
}

func (x *Table[K, V]) index(h uint64) uint64 {
	return h & uint64(len(x.slots)-1)
}

func (x *Table[K, V]) find(key K) (uint64, *bucket[K, V]) {
	h := x.hash(key)
	i := x.index(h)
	for b := x.slots[i]; b != nil; b = b.next {
		if b.hash == h && b.key == key {
			return i, b
		}
	}
	return i, nil
}

func (x *Table[K, V]) pushFront(i uint64, b *bucket[K, V]) {
	b.prev = nil
	b.next = x.slots[i]
	if b.next != nil {
		b.next.prev = b
	}
	x.slots[i] = b
}

func (x *Table[K, V]) unlink(i uint64, b *bucket[K, V]) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		x.slots[i] = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	b.prev = nil
	b.next = nil
}

func (x *Table[K, V]) live(op string) bool {
	if x == nil {
		return false
	}
	if x.slots != nil {
		return true
	}
	x.sink.Warning(`hashtable`).Str(`op`, op).Log(`hashtable: use of a torn down table`)
	return false
}
