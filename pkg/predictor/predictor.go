// Package predictor declares the contract the Lookup Engine consumes from
// the two-level learned index: a global model routing a key to a leaf, and
// a leaf model predicting a position and error bound around it. Neither
// model is trained, persisted, or versioned here — that pipeline is an
// external collaborator, out of scope for this package.
package predictor

// GlobalModel routes a key to a leaf index in [0, L_max).
type GlobalModel interface {
	PredictLeaf(key []byte) (leafIndex int, err error)
}

// LeafModel predicts a position in the run's global record space and an
// error bound around it.
type LeafModel interface {
	PredictPosition(key []byte) (pos uint64, errorBound uint64, err error)
}

// Predictor is the two-level hierarchical model the Lookup Engine consults:
// a global model selecting a leaf, and the leaves themselves.
type Predictor struct {
	Global GlobalModel
	Leaves []LeafModel
}
