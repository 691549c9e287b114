// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package hashtable

import (
	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"
)

// String hashes a string key, using xxhash.
func String(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Bytes hashes a byte slice, using xxhash.
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Integer hashes an integer key with the splitmix64 finalizer, so that
// sequential keys spread across slots.
func Integer[T constraints.Integer](v T) uint64 {
	z := uint64(v) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Identity uses an integer key as its own hash. Useful for tests, and keys
// that are already well distributed.
func Identity[T constraints.Integer](v T) uint64 {
	return uint64(v)
}
