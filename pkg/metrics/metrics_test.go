package metrics

import (
	"testing"
	"time"
)

func TestCollectorTracksCounters(t *testing.T) {
	c := NewCollector()
	c.TrackLookup()
	c.TrackLookup()
	c.TrackHit(PathPredicted)
	c.TrackLookup()
	c.TrackHit(PathFallback)
	c.TrackMiss()

	lookups, predictorHits, fallbackHits, misses := c.Snapshot()
	if lookups != 3 {
		t.Errorf("expected 3 lookups, got %d", lookups)
	}
	if predictorHits != 1 {
		t.Errorf("expected 1 predictor hit, got %d", predictorHits)
	}
	if fallbackHits != 1 {
		t.Errorf("expected 1 fallback hit, got %d", fallbackHits)
	}
	if misses != 1 {
		t.Errorf("expected 1 miss, got %d", misses)
	}
}

func TestCollectorTracksLatencyPerPath(t *testing.T) {
	c := NewCollector()
	c.TrackLatency(PathPredicted, 10*time.Millisecond)
	c.TrackLatency(PathPredicted, 30*time.Millisecond)
	c.TrackLatency(PathFallback, 5*time.Millisecond)

	predictedNanos, predictedCount := c.LatencySnapshot(PathPredicted)
	if predictedCount != 2 {
		t.Errorf("expected 2 predicted-path samples, got %d", predictedCount)
	}
	if predictedNanos != uint64(40*time.Millisecond) {
		t.Errorf("expected 40ms predicted-path latency sum, got %v", time.Duration(predictedNanos))
	}

	fallbackNanos, fallbackCount := c.LatencySnapshot(PathFallback)
	if fallbackCount != 1 {
		t.Errorf("expected 1 fallback-path sample, got %d", fallbackCount)
	}
	if fallbackNanos != uint64(5*time.Millisecond) {
		t.Errorf("expected 5ms fallback-path latency sum, got %v", time.Duration(fallbackNanos))
	}
}

func TestNilCollectorIsANoOp(t *testing.T) {
	var c *Collector
	c.TrackLookup()
	c.TrackHit(PathPredicted)
	c.TrackMiss()
	c.TrackLatency(PathPredicted, time.Millisecond)

	lookups, _, _, misses := c.Snapshot()
	if lookups != 0 || misses != 0 {
		t.Errorf("expected a nil collector to report zero counters")
	}
	nanos, count := c.LatencySnapshot(PathPredicted)
	if nanos != 0 || count != 0 {
		t.Errorf("expected a nil collector to report zero latency")
	}
}
