// Package engine implements the Lookup Engine: it combines a learned-index
// predictor with the Mapped Reader and In-Block Search to resolve single-key
// point lookups, falling back to a catalog-wide binary search whenever the
// predictor errs, mispredicts, or is simply wrong about where a key lives.
package engine

import (
	"time"

	"github.com/Jasv1025/sortedkv/pkg/common/log"
	"github.com/Jasv1025/sortedkv/pkg/metrics"
	"github.com/Jasv1025/sortedkv/pkg/predictor"
	"github.com/Jasv1025/sortedkv/pkg/search"
	"github.com/Jasv1025/sortedkv/pkg/sortedrun"
)

// Result is one outcome of BatchLookup: either a value and Found=true, or
// Found=false for a miss. A miss is not an error.
type Result struct {
	Value []byte
	Found bool
}

// Engine holds a shared, read-only reference to a Reader and a Predictor.
// It owns no mutable state beyond per-call scratch.
type Engine struct {
	reader    *sortedrun.Reader
	predictor *predictor.Predictor
	collector *metrics.Collector
}

// New builds an Engine over an already-open Reader and a predictor. p may
// be nil, in which case every lookup takes the catalog-wide fallback path.
func New(reader *sortedrun.Reader, p *predictor.Predictor, collector *metrics.Collector) *Engine {
	return &Engine{reader: reader, predictor: p, collector: collector}
}

// Lookup resolves a single key. A miss and a recovered predictor error are
// observably identical to the caller: (nil, false) either way.
func (e *Engine) Lookup(key []byte) ([]byte, bool) {
	e.collector.TrackLookup()
	cmp := e.reader.KeyType().Comparator()

	predictedStart := time.Now()
	value, ok := e.predictedLookup(key, cmp)
	e.collector.TrackLatency(metrics.PathPredicted, time.Since(predictedStart))
	if ok {
		e.collector.TrackHit(metrics.PathPredicted)
		return value, true
	}

	fallbackStart := time.Now()
	value, ok = e.fallbackLookup(key, cmp)
	e.collector.TrackLatency(metrics.PathFallback, time.Since(fallbackStart))
	if ok {
		e.collector.TrackHit(metrics.PathFallback)
		return value, true
	}

	e.collector.TrackMiss()
	return nil, false
}

// predictedLookup runs the predictor-driven path: global model selects a
// leaf, the leaf predicts a position and error bound, and the engine
// enlarges that to a contiguous catalog range before searching within it.
// Any predictor error is swallowed here; the caller falls back.
func (e *Engine) predictedLookup(key []byte, cmp cmpFunc) ([]byte, bool) {
	if e.predictor == nil || e.predictor.Global == nil || len(e.predictor.Leaves) == 0 {
		return nil, false
	}

	leafIdx, err := e.predictor.Global.PredictLeaf(key)
	if err != nil || leafIdx < 0 || leafIdx >= len(e.predictor.Leaves) {
		log.Debug("predictor fallback: global model error or out-of-range leaf: %v", err)
		return nil, false
	}

	pos, epsilon, err := e.predictor.Leaves[leafIdx].PredictPosition(key)
	if err != nil {
		log.Debug("predictor fallback: leaf model error: %v", err)
		return nil, false
	}

	total := e.reader.TotalRecords()
	if total == 0 {
		return nil, false
	}

	clampedPos := clamp(int(pos), 0, total-1)
	eps := int(epsilon)

	loGlobal := clampedPos - eps
	hiGlobal := clampedPos + eps
	loGlobal = clamp(loGlobal, 0, total-1)
	hiGlobal = clamp(hiGlobal, 0, total-1)

	blockLo, localLo := e.reader.LocateGlobalPos(loGlobal)
	blockHi, _ := e.reader.LocateGlobalPos(hiGlobal)

	if blockLo == blockHi {
		meta := e.reader.Catalog()[blockLo]
		view, err := e.reader.Block(meta)
		if err != nil {
			log.Debug("predictor fallback: block fetch error: %v", err)
			return nil, false
		}
		_, localPos := e.reader.LocateGlobalPos(clampedPos)
		idx, ok := search.ErrorWindow(view, key, cmp, localPos, eps)
		if ok {
			return view.ValueBytes(idx), true
		}
		return nil, false
	}

	// The error window spans a block boundary: the error bound has exceeded
	// the threshold a single-block scan can trust, so binary search each
	// candidate block in the enlarged range instead.
	_ = localLo
	for _, meta := range e.reader.CatalogRange(blockLo, blockHi+1) {
		view, err := e.reader.Block(meta)
		if err != nil {
			continue
		}
		if idx, ok := search.Binary(view, key, cmp); ok {
			return view.ValueBytes(idx), true
		}
	}
	return nil, false
}

// fallbackLookup performs a catalog-wide binary search keyed by first_key:
// find the one block whose range could hold key, then binary search
// inside it.
func (e *Engine) fallbackLookup(key []byte, cmp cmpFunc) ([]byte, bool) {
	catalog := e.reader.Catalog()
	if len(catalog) == 0 {
		return nil, false
	}

	lo, hi := 0, len(catalog)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(catalog[mid].FirstKey, key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	blockIdx := lo - 1
	if blockIdx < 0 {
		return nil, false
	}

	view, err := e.reader.Block(catalog[blockIdx])
	if err != nil {
		log.Debug("fallback lookup: block fetch error: %v", err)
		return nil, false
	}
	idx, ok := search.Binary(view, key, cmp)
	if !ok {
		return nil, false
	}
	return view.ValueBytes(idx), true
}

// BatchLookup is defined purely as repeated, order-preserving Lookup calls;
// there is no fan-out across keys.
func (e *Engine) BatchLookup(keys [][]byte) []Result {
	results := make([]Result, len(keys))
	for i, key := range keys {
		value, found := e.Lookup(key)
		results[i] = Result{Value: value, Found: found}
	}
	return results
}

type cmpFunc = func(a, b []byte) int

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
