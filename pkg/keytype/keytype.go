// Package keytype carries the out-of-band key-order tag shared between the
// writer and the reader. It is never persisted in the run file itself.
package keytype

import (
	"bytes"
	"encoding/binary"
)

// KeyType selects the comparator used to order records across a run.
type KeyType int

const (
	// Bytes orders keys lexicographically, byte by byte.
	Bytes KeyType = iota
	// Integer orders keys by their 64-bit unsigned value. Keys are expected
	// to be exactly 8 bytes; mixed-width keys fall back to a defensive
	// comparator rather than failing the write.
	Integer
)

func (t KeyType) String() string {
	switch t {
	case Integer:
		return "Integer"
	case Bytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

// Comparator orders two keys under one KeyType's rules. It returns a value
// <0, 0, or >0 the way bytes.Compare does.
type Comparator func(a, b []byte) int

// Comparator returns the comparison function for this KeyType.
func (t KeyType) Comparator() Comparator {
	if t == Integer {
		return compareInteger
	}
	return bytes.Compare
}

// compareInteger compares two 8-byte keys as little-endian uint64 values.
// Keys that are not exactly 8 bytes take a defensive fallback: compare by
// width first, then lexicographically. This is a deliberate divergence
// from plain lexicographic comparison and is only exercised when the
// caller violates the Integer-mode width contract.
func compareInteger(a, b []byte) int {
	if len(a) == 8 && len(b) == 8 {
		av := binary.LittleEndian.Uint64(a)
		bv := binary.LittleEndian.Uint64(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare(a, b)
}

// AsU64 reads up to 8 bytes of key into a little-endian uint64, zero-extended
// when key is shorter than 8 bytes and truncated when longer. Matches
// block.View.KeyAsU64's semantics so catalog first-keys and in-block keys
// agree on integer interpretation.
func AsU64(key []byte) uint64 {
	var buf [8]byte
	n := len(key)
	if n > 8 {
		n = 8
	}
	copy(buf[:n], key[:n])
	return binary.LittleEndian.Uint64(buf[:])
}
