// Package search implements bounded search inside one block view: the
// error-window scan a predictor's guess drives, and the binary search used
// when the predictor is absent, wrong, or its error bound is too wide to
// trust a narrow scan.
package search

import (
	"github.com/Jasv1025/sortedkv/pkg/keytype"
	"github.com/Jasv1025/sortedkv/pkg/sortedrun/block"
)

// ErrorWindow searches the half-open interval [max(0,pos-epsilon),
// min(N,pos+epsilon+1)) linearly, comparing keys with cmp. Windows are
// small by design, so a linear scan beats setting up a binary search over
// them. On equality the first match found (leftmost, since keys are sorted
// and unique within a block) is returned.
func ErrorWindow(view *block.View, key []byte, cmp keytype.Comparator, pos, epsilon int) (idx int, ok bool) {
	n := view.Len()
	lo := pos - epsilon
	if lo < 0 {
		lo = 0
	}
	hi := pos + epsilon + 1
	if hi > n {
		hi = n
	}
	for i := lo; i < hi; i++ {
		if cmp(view.KeyBytes(i), key) == 0 {
			return i, true
		}
	}
	return -1, false
}

// Binary searches the whole block, [0, N), via the offset tables.
func Binary(view *block.View, key []byte, cmp keytype.Comparator) (idx int, ok bool) {
	lo, hi := 0, view.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		c := cmp(view.KeyBytes(mid), key)
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1, false
}
