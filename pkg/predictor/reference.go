package predictor

import (
	"encoding/binary"
	"fmt"
)

// singleLeaf is a GlobalModel that always routes to leaf 0, used by
// reference predictors that model the whole run as one leaf.
type singleLeaf struct{}

func (singleLeaf) PredictLeaf(key []byte) (int, error) {
	return 0, nil
}

// Uniform is a reference leaf model, not a trained learned index: it
// assumes records are evenly distributed across an Integer-mode key domain
// and predicts the position linearly, with a fixed error bound. It exists
// so pkg/engine and cmd/sortedkv-bench have something concrete to call in
// tests and benchmarks.
type Uniform struct {
	MinKey, MaxKey uint64
	NumRecords     uint64
	ErrorBound     uint64
}

// NewUniform builds a Predictor wrapping a single Uniform leaf behind a
// single-leaf global model.
func NewUniform(minKey, maxKey, numRecords, errorBound uint64) *Predictor {
	leaf := &Uniform{MinKey: minKey, MaxKey: maxKey, NumRecords: numRecords, ErrorBound: errorBound}
	return &Predictor{Global: singleLeaf{}, Leaves: []LeafModel{leaf}}
}

func (u *Uniform) PredictPosition(key []byte) (pos uint64, errorBound uint64, err error) {
	if len(key) != 8 {
		return 0, 0, fmt.Errorf("uniform predictor requires 8-byte integer keys, got %d bytes", len(key))
	}
	if u.NumRecords == 0 {
		return 0, 0, nil
	}
	k := binary.LittleEndian.Uint64(key)
	if u.MaxKey <= u.MinKey {
		return 0, u.ErrorBound, nil
	}
	if k <= u.MinKey {
		return 0, u.ErrorBound, nil
	}
	if k >= u.MaxKey {
		return u.NumRecords - 1, u.ErrorBound, nil
	}
	span := u.MaxKey - u.MinKey
	rel := k - u.MinKey
	pos = rel * (u.NumRecords - 1) / span
	return pos, u.ErrorBound, nil
}

// AlwaysZero is an adversarial reference predictor used to check that the
// Lookup Engine still resolves every key correctly even when the predictor
// is always wrong: it always predicts block 0 at position 0 with epsilon
// 0, regardless of key.
type AlwaysZero struct{}

// NewAlwaysZero builds a Predictor that always predicts record 0 with a
// zero error bound.
func NewAlwaysZero() *Predictor {
	return &Predictor{Global: singleLeaf{}, Leaves: []LeafModel{AlwaysZero{}}}
}

func (AlwaysZero) PredictPosition(key []byte) (pos uint64, errorBound uint64, err error) {
	return 0, 0, nil
}
