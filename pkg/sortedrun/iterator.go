package sortedrun

import (
	"github.com/Jasv1025/sortedkv/pkg/sortedrun/block"
)

// RunIterator walks every block of one Reader's run in file order, which is
// already sort order by construction. It satisfies
// github.com/Jasv1025/sortedkv/pkg/common/iterator.Iterator. It does not
// merge across runs; it only ever iterates the single run it was built
// from.
type RunIterator struct {
	reader    *Reader
	blockIdx  int
	view      *block.View
	localIter *block.Iterator
	err       error
}

// Iterator returns a RunIterator positioned before the first record.
func (r *Reader) Iterator() *RunIterator {
	return &RunIterator{reader: r, blockIdx: -1}
}

// SeekToFirst positions the iterator at the first record of the first
// non-empty block.
func (it *RunIterator) SeekToFirst() {
	it.blockIdx = 0
	it.advanceToNonEmpty(true)
}

// Seek positions the iterator at the first record whose key is >= target.
// It returns false if no such record exists in the run.
func (it *RunIterator) Seek(target []byte) bool {
	catalog := it.reader.Catalog()
	cmp := it.reader.KeyType().Comparator()

	lo, hi := 0, len(catalog)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(catalog[mid].FirstKey, target) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	blockIdx := lo - 1
	if blockIdx < 0 {
		blockIdx = 0
	}

	it.blockIdx = blockIdx
	it.loadBlock()
	if it.localIter == nil {
		return false
	}
	if it.localIter.Seek(target, cmp) {
		return true
	}
	it.blockIdx++
	return it.advanceToNonEmpty(true)
}

// Next advances to the next record, crossing block boundaries as needed.
func (it *RunIterator) Next() bool {
	if it.localIter == nil {
		return false
	}
	if it.localIter.Next() {
		return true
	}
	it.blockIdx++
	return it.advanceToNonEmpty(true)
}

// advanceToNonEmpty loads blocks starting at it.blockIdx until one yields a
// valid position, or the catalog is exhausted. seekFirst positions each
// freshly loaded block's cursor at its first record.
func (it *RunIterator) advanceToNonEmpty(seekFirst bool) bool {
	for it.blockIdx < it.reader.BlockCount() {
		it.loadBlock()
		if it.localIter == nil {
			return false
		}
		if seekFirst {
			it.localIter.SeekToFirst()
		}
		if it.localIter.Valid() {
			return true
		}
		it.blockIdx++
	}
	it.view = nil
	it.localIter = nil
	return false
}

func (it *RunIterator) loadBlock() {
	if it.blockIdx < 0 || it.blockIdx >= it.reader.BlockCount() {
		it.view = nil
		it.localIter = nil
		return
	}
	meta := it.reader.Catalog()[it.blockIdx]
	view, err := it.reader.Block(meta)
	if err != nil {
		it.err = err
		it.view = nil
		it.localIter = nil
		return
	}
	it.view = view
	it.localIter = view.Iterator()
}

// Valid reports whether the iterator is positioned at a record.
func (it *RunIterator) Valid() bool {
	return it.localIter != nil && it.localIter.Valid()
}

// Key returns the current record's key. Invalid to call when !Valid().
func (it *RunIterator) Key() []byte {
	return it.localIter.Key()
}

// Value returns the current record's value. Invalid to call when !Valid().
func (it *RunIterator) Value() []byte {
	return it.localIter.Value()
}

// Err returns the first error encountered while decoding a block, if any.
func (it *RunIterator) Err() error {
	return it.err
}
