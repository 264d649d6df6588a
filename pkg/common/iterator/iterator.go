// Package iterator defines the cursor shape shared by block-level and
// run-level iteration: forward-only, no tombstones, built for a single,
// already-sorted, immutable run.
package iterator

// Iterator traverses key-value pairs in ascending key order.
type Iterator interface {
	// SeekToFirst positions the iterator at the first key.
	SeekToFirst()

	// Seek positions the iterator at the first key >= target.
	Seek(target []byte) bool

	// Next advances the iterator to the next key. It returns false once
	// the iterator runs out of entries.
	Next() bool

	// Key returns the current key.
	Key() []byte

	// Value returns the current value.
	Value() []byte

	// Valid returns true if the iterator is positioned at an entry.
	Valid() bool
}
