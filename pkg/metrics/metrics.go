// Package metrics narrows an atomic-counter statistics collector down to
// what the lookup path produces: lookups, hits, misses, which path —
// predictor-driven or catalog-wide fallback — served each hit, and a
// latency tracker per path. Collector satisfies prometheus.Collector so a
// host process can register it with its own registry; this package never
// serves metrics itself.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Path identifies which lookup strategy produced a hit.
type Path string

const (
	PathPredicted Path = "predicted"
	PathFallback  Path = "fallback"
)

var (
	lookupsDesc = prometheus.NewDesc(
		"sortedkv_engine_lookups_total", "Total number of Engine.Lookup calls.", nil, nil)
	hitsDesc = prometheus.NewDesc(
		"sortedkv_engine_hits_total", "Total number of lookups that found a value, by path.",
		[]string{"path"}, nil)
	missesDesc = prometheus.NewDesc(
		"sortedkv_engine_misses_total", "Total number of lookups that found nothing.", nil, nil)
	latencySecondsSumDesc = prometheus.NewDesc(
		"sortedkv_engine_lookup_latency_seconds_sum", "Sum of lookup latencies in seconds, by path.",
		[]string{"path"}, nil)
	latencySecondsCountDesc = prometheus.NewDesc(
		"sortedkv_engine_lookup_latency_seconds_count", "Count of lookups contributing to the latency sum, by path.",
		[]string{"path"}, nil)
)

// pathLatency accumulates a running sum of nanoseconds and a call count for
// one lookup path.
type pathLatency struct {
	nanos atomic.Uint64
	count atomic.Uint64
}

func (p *pathLatency) add(d time.Duration) {
	p.nanos.Add(uint64(d.Nanoseconds()))
	p.count.Add(1)
}

func (p *pathLatency) snapshot() (nanos, count uint64) {
	return p.nanos.Load(), p.count.Load()
}

// Collector accumulates lookup counters with atomic operations for
// thread-safe, lock-free reads.
type Collector struct {
	lookups       atomic.Uint64
	misses        atomic.Uint64
	predictorHits atomic.Uint64
	fallbackHits  atomic.Uint64

	predictedLatency pathLatency
	fallbackLatency  pathLatency
}

// NewCollector returns a zeroed Collector, ready for a freshly opened
// Engine.
func NewCollector() *Collector {
	return &Collector{}
}

// TrackLookup records one Engine.Lookup invocation. Safe to call on a nil
// *Collector, in which case it is a no-op — an Engine built without metrics
// does not need to guard every call site.
func (c *Collector) TrackLookup() {
	if c == nil {
		return
	}
	c.lookups.Add(1)
}

// TrackHit records a successful lookup on the given path.
func (c *Collector) TrackHit(path Path) {
	if c == nil {
		return
	}
	switch path {
	case PathPredicted:
		c.predictorHits.Add(1)
	case PathFallback:
		c.fallbackHits.Add(1)
	}
}

// TrackMiss records a lookup that found nothing.
func (c *Collector) TrackMiss() {
	if c == nil {
		return
	}
	c.misses.Add(1)
}

// TrackLatency records how long one path's attempt took, whether or not it
// produced a hit — a predictor path that mispredicts still spent time
// searching before the engine falls back.
func (c *Collector) TrackLatency(path Path, d time.Duration) {
	if c == nil {
		return
	}
	switch path {
	case PathPredicted:
		c.predictedLatency.add(d)
	case PathFallback:
		c.fallbackLatency.add(d)
	}
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() (lookups, predictorHits, fallbackHits, misses uint64) {
	if c == nil {
		return 0, 0, 0, 0
	}
	return c.lookups.Load(), c.predictorHits.Load(), c.fallbackHits.Load(), c.misses.Load()
}

// LatencySnapshot returns the accumulated latency sum and call count for
// one path.
func (c *Collector) LatencySnapshot(path Path) (nanos, count uint64) {
	if c == nil {
		return 0, 0
	}
	switch path {
	case PathPredicted:
		return c.predictedLatency.snapshot()
	case PathFallback:
		return c.fallbackLatency.snapshot()
	default:
		return 0, 0
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- lookupsDesc
	ch <- hitsDesc
	ch <- missesDesc
	ch <- latencySecondsSumDesc
	ch <- latencySecondsCountDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	lookups, predictorHits, fallbackHits, misses := c.Snapshot()
	ch <- prometheus.MustNewConstMetric(lookupsDesc, prometheus.CounterValue, float64(lookups))
	ch <- prometheus.MustNewConstMetric(hitsDesc, prometheus.CounterValue, float64(predictorHits), string(PathPredicted))
	ch <- prometheus.MustNewConstMetric(hitsDesc, prometheus.CounterValue, float64(fallbackHits), string(PathFallback))
	ch <- prometheus.MustNewConstMetric(missesDesc, prometheus.CounterValue, float64(misses))

	for _, path := range []Path{PathPredicted, PathFallback} {
		nanos, count := c.LatencySnapshot(path)
		ch <- prometheus.MustNewConstMetric(latencySecondsSumDesc, prometheus.CounterValue,
			float64(nanos)/float64(time.Second), string(path))
		ch <- prometheus.MustNewConstMetric(latencySecondsCountDesc, prometheus.CounterValue,
			float64(count), string(path))
	}
}

var _ prometheus.Collector = (*Collector)(nil)
