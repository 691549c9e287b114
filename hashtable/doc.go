// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package hashtable implements a self-resizing chained hash table, keyed by a
// caller-supplied 64-bit hash function.
//
// Each slot holds a doubly-linked chain of buckets. A successful lookup moves
// the hit bucket to the head of its chain (access-order reordering), so hot
// keys are found first. The bucket array doubles in capacity once a tiered
// load factor is crossed; bucket nodes are relinked against the new capacity,
// never copied.
//
// Entries store both the key and its hash, and a key only matches if both
// are equal, so distinct keys that collide on the full 64-bit hash do not
// alias each other.
//
// A Table is not safe for concurrent mutation. Absent writers, [Table.Peek],
// [Table.Contains] and [Table.All] may be called from multiple goroutines.
// The reference count (see [Table.Ref]) may be adjusted concurrently.
//
// Methods of a nil *Table behave as if the table were torn down.
package hashtable
