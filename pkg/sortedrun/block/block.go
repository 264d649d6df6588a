// Package block encodes and decodes one fixed-size block: a header, two
// parallel offset tables, and the concatenated key and value blobs they
// index into. A block never knows about the file it lives in; it is
// self-describing from its own bytes alone.
package block

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// headerSize is the two uint16 header fields: count and total_key_bytes.
const headerSize = 4

// Record is a single key-value pair as it flows into the block codec.
// Keys and values are bounded to 65535 bytes by the offset table's uint16
// width.
type Record struct {
	Key   []byte
	Value []byte
}

var (
	// ErrBlockOverflow is returned by Encode when the records do not fit in
	// block_size, including the degenerate case of a single oversized record.
	ErrBlockOverflow = errors.New("block: records exceed block size")
	// ErrTruncated is returned by Decode when data is too small to hold the
	// fixed header, or the offset tables and key blob the header describes.
	ErrTruncated = errors.New("block: truncated block data")
)

// maxUint16 is the largest value the count and per-entry offset table
// fields can hold; count, cumulative key bytes, and cumulative value bytes
// must each stay within it or Encode would silently truncate them.
const maxUint16 = 65535

// EncodedSize returns the exact number of bytes Encode would need for this
// batch: header + both offset tables + the key and value blobs. It is exact,
// not an upper bound, which lets the writer pack greedily without
// overestimating headroom. It does not check the uint16 field widths on its
// own; callers that skip Encode's overflow check must call checkFieldWidths
// too.
func EncodedSize(records []Record) int {
	n := len(records)
	total := headerSize + 4*(n+1)
	for _, r := range records {
		total += len(r.Key) + len(r.Value)
	}
	return total
}

// checkFieldWidths reports ErrBlockOverflow if records has more entries, or
// more cumulative key or value bytes, than the uint16 count and offset
// table fields can represent without wrapping.
func checkFieldWidths(records []Record) error {
	if len(records) > maxUint16 {
		return fmt.Errorf("%w: %d records exceeds uint16 count field", ErrBlockOverflow, len(records))
	}
	var keyBytes, valBytes int
	for _, r := range records {
		keyBytes += len(r.Key)
		valBytes += len(r.Value)
		if keyBytes > maxUint16 {
			return fmt.Errorf("%w: cumulative key bytes %d exceeds uint16 offset field", ErrBlockOverflow, keyBytes)
		}
		if valBytes > maxUint16 {
			return fmt.Errorf("%w: cumulative value bytes %d exceeds uint16 offset field", ErrBlockOverflow, valBytes)
		}
	}
	return nil
}

// Encode serializes records, which must already be in the run's sort order,
// into a zero-padded block of exactly blockSize bytes. It fails with
// ErrBlockOverflow if the encoded size exceeds blockSize, or if the record
// count or cumulative key/value bytes exceed what the block's uint16
// header and offset table fields can hold.
func Encode(records []Record, blockSize int) ([]byte, error) {
	n := len(records)
	if err := checkFieldWidths(records); err != nil {
		return nil, err
	}
	size := EncodedSize(records)
	if size > blockSize {
		return nil, fmt.Errorf("%w: %d bytes needed, %d available", ErrBlockOverflow, size, blockSize)
	}

	buf := make([]byte, blockSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(n))

	keyOffStart := headerSize
	valOffStart := keyOffStart + 2*(n+1)
	keyBlobStart := valOffStart + 2*(n+1)

	keyOff := uint16(0)
	valOff := uint16(0)
	binary.LittleEndian.PutUint16(buf[keyOffStart:], keyOff)
	binary.LittleEndian.PutUint16(buf[valOffStart:], valOff)

	keyCursor := keyBlobStart
	for i, r := range records {
		keyOff += uint16(len(r.Key))
		copy(buf[keyCursor:], r.Key)
		keyCursor += len(r.Key)
		binary.LittleEndian.PutUint16(buf[keyOffStart+2*(i+1):], keyOff)
	}
	binary.LittleEndian.PutUint16(buf[2:4], keyOff) // total_key_bytes

	valCursor := keyCursor
	for i, r := range records {
		valOff += uint16(len(r.Value))
		copy(buf[valCursor:], r.Value)
		valCursor += len(r.Value)
		binary.LittleEndian.PutUint16(buf[valOffStart+2*(i+1):], valOff)
	}

	return buf, nil
}

// View is a borrowed, read-only projection over one block's bytes. It holds
// precomputed interior offsets and never copies; its accessors slice
// directly into the backing array. A View must not outlive the memory it was
// decoded from.
type View struct {
	data          []byte
	count         int
	totalKeyBytes int
	keyOffStart   int
	valOffStart   int
	keyBlobStart  int
	valBlobStart  int
}

// Decode interprets data as a block header and fixes the four interior
// region offsets. It is O(1): it does not walk or validate the offset
// tables, and accessors rely on the block being well-formed.
func Decode(data []byte) (*View, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	totalKeyBytes := int(binary.LittleEndian.Uint16(data[2:4]))

	keyOffStart := headerSize
	valOffStart := keyOffStart + 2*(count+1)
	keyBlobStart := valOffStart + 2*(count+1)
	valBlobStart := keyBlobStart + totalKeyBytes

	if valBlobStart > len(data) {
		return nil, ErrTruncated
	}

	return &View{
		data:          data,
		count:         count,
		totalKeyBytes: totalKeyBytes,
		keyOffStart:   keyOffStart,
		valOffStart:   valOffStart,
		keyBlobStart:  keyBlobStart,
		valBlobStart:  valBlobStart,
	}, nil
}

// Len returns the number of records in the block.
func (v *View) Len() int {
	return v.count
}

func (v *View) keyOffset(i int) int {
	return int(binary.LittleEndian.Uint16(v.data[v.keyOffStart+2*i:]))
}

func (v *View) valOffset(i int) int {
	return int(binary.LittleEndian.Uint16(v.data[v.valOffStart+2*i:]))
}

// KeyBytes returns a borrowed slice of the key at index i. Out-of-range
// indices return an empty slice rather than panicking; callers are expected
// to respect Len().
func (v *View) KeyBytes(i int) []byte {
	if i < 0 || i >= v.count {
		return nil
	}
	start := v.keyBlobStart + v.keyOffset(i)
	end := v.keyBlobStart + v.keyOffset(i+1)
	return v.data[start:end]
}

// ValueBytes returns a borrowed slice of the value at index i. Out-of-range
// indices return an empty slice rather than panicking.
func (v *View) ValueBytes(i int) []byte {
	if i < 0 || i >= v.count {
		return nil
	}
	start := v.valBlobStart + v.valOffset(i)
	end := v.valBlobStart + v.valOffset(i+1)
	return v.data[start:end]
}

// Iterator walks a View's records in order. It holds no reference to
// anything beyond the View it was built from.
type Iterator struct {
	view *View
	pos  int
}

// Iterator returns a cursor over v, initially positioned before the first
// record.
func (v *View) Iterator() *Iterator {
	return &Iterator{view: v, pos: -1}
}

// SeekToFirst positions the iterator at the first record, if any.
func (it *Iterator) SeekToFirst() {
	it.pos = 0
}

// Seek positions the iterator at the first record whose key is >= target,
// using cmp to compare. It returns false if no such record exists in this
// block.
func (it *Iterator) Seek(target []byte, cmp func(a, b []byte) int) bool {
	lo, hi := 0, it.view.count
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(it.view.KeyBytes(mid), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	it.pos = lo
	return it.Valid()
}

// Next advances the iterator, returning false once it runs past the last
// record.
func (it *Iterator) Next() bool {
	if it.pos < it.view.count {
		it.pos++
	}
	return it.Valid()
}

// Valid reports whether the iterator is positioned at a record.
func (it *Iterator) Valid() bool {
	return it.pos >= 0 && it.pos < it.view.count
}

// Key returns the current record's key. Invalid to call when !Valid().
func (it *Iterator) Key() []byte {
	return it.view.KeyBytes(it.pos)
}

// Value returns the current record's value. Invalid to call when !Valid().
func (it *Iterator) Value() []byte {
	return it.view.ValueBytes(it.pos)
}

// KeyAsU64 reads up to 8 bytes of the key at index i into a 64-bit integer,
// zero-extended in little-endian. When the key is exactly 8 bytes this is
// its native integer value. Out-of-range indices return 0.
func (v *View) KeyAsU64(i int) uint64 {
	key := v.KeyBytes(i)
	if key == nil {
		return 0
	}
	var buf [8]byte
	n := len(key)
	if n > 8 {
		n = 8
	}
	copy(buf[:n], key[:n])
	return binary.LittleEndian.Uint64(buf[:])
}
