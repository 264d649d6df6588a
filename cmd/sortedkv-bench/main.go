package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/Jasv1025/sortedkv/pkg/config"
	"github.com/Jasv1025/sortedkv/pkg/engine"
	"github.com/Jasv1025/sortedkv/pkg/keytype"
	"github.com/Jasv1025/sortedkv/pkg/metrics"
	"github.com/Jasv1025/sortedkv/pkg/predictor"
	"github.com/Jasv1025/sortedkv/pkg/sortedrun"
)

const (
	defaultValueSize = 100
	defaultKeyCount  = 100000
)

var (
	benchmarkType = flag.String("type", "all", "Type of benchmark to run (predicted, fallback, mixed, or all)")
	duration      = flag.Duration("duration", 10*time.Second, "Duration to run each benchmark")
	numKeys       = flag.Int("keys", defaultKeyCount, "Number of keys to load into the run")
	valueSize     = flag.Int("value-size", defaultValueSize, "Size of values in bytes")
	blockSize     = flag.Int("block-size", config.DefaultBlockSize, "Block size in bytes")
	dataDir       = flag.String("data-dir", "./benchmark-data", "Directory to store the generated run file")
	sequential    = flag.Bool("sequential", false, "Issue lookups for keys in ascending order instead of at random")
	errorBound    = flag.Uint64("error-bound", 64, "Error bound given to the reference predictor")
	cpuProfile    = flag.String("cpu-profile", "", "Write CPU profile to file")
	memProfile    = flag.String("mem-profile", "", "Write memory profile to file")
	resultsFile   = flag.String("results", "", "File to write results to (in addition to stdout)")
)

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if _, err := os.Stat(*dataDir); err == nil {
		fmt.Println("Cleaning previous benchmark data...")
		if err := os.RemoveAll(*dataDir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clean benchmark directory: %v\n", err)
		}
	}
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create benchmark directory: %v\n", err)
		os.Exit(1)
	}

	path := *dataDir + "/run.sr"
	opts := config.Options{BlockSize: *blockSize, KeyType: keytype.Integer}

	fmt.Printf("Building sorted run: %d keys, %d byte values, %d byte blocks\n", *numKeys, *valueSize, *blockSize)
	if err := buildRun(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build run: %v\n", err)
		os.Exit(1)
	}

	reader, err := sortedrun.Open(path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	var results []BenchmarkResult
	for _, typ := range strings.Split(*benchmarkType, ",") {
		switch strings.ToLower(strings.TrimSpace(typ)) {
		case "predicted":
			results = append(results, runLookupBenchmark(reader, "predicted", newUniformPredictor(reader)))
		case "fallback":
			results = append(results, runLookupBenchmark(reader, "fallback", nil))
		case "mixed":
			results = append(results, runLookupBenchmark(reader, "mixed", predictor.NewAlwaysZero()))
		case "all":
			results = append(results, runLookupBenchmark(reader, "predicted", newUniformPredictor(reader)))
			results = append(results, runLookupBenchmark(reader, "fallback", nil))
			results = append(results, runLookupBenchmark(reader, "mixed", predictor.NewAlwaysZero()))
		default:
			fmt.Fprintf(os.Stderr, "Unknown benchmark type: %s\n", typ)
			os.Exit(1)
		}
	}

	PrintResultTable(results)

	if *resultsFile != "" {
		if err := SaveResultCSV(results, *resultsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save results: %v\n", err)
		} else {
			fmt.Printf("Results saved to %s\n", *resultsFile)
		}
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create memory profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write memory profile: %v\n", err)
		}
	}
}

func buildRun(path string, opts config.Options) error {
	keys := make([][]byte, *numKeys)
	values := make([][]byte, *numKeys)
	for i := 0; i < *numKeys; i++ {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(i+1))
		keys[i] = b[:]
		value := make([]byte, *valueSize)
		rand.Read(value)
		values[i] = value
	}
	return sortedrun.Write(path, opts, keys, values)
}

func newUniformPredictor(r *sortedrun.Reader) *predictor.Predictor {
	return predictor.NewUniform(1, uint64(*numKeys), uint64(r.TotalRecords()), *errorBound)
}

func runLookupBenchmark(r *sortedrun.Reader, label string, p *predictor.Predictor) BenchmarkResult {
	collector := metrics.NewCollector()
	e := engine.New(r, p, collector)

	keyOrder := make([]uint64, *numKeys)
	for i := range keyOrder {
		keyOrder[i] = uint64(i + 1)
	}
	if !*sequential {
		rand.Shuffle(len(keyOrder), func(i, j int) { keyOrder[i], keyOrder[j] = keyOrder[j], keyOrder[i] })
	}

	fmt.Printf("Running %q lookup benchmark for %s...\n", label, *duration)

	var ops int
	var hits int
	start := time.Now()
	deadline := start.Add(*duration)
	idx := 0
	for time.Now().Before(deadline) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], keyOrder[idx%len(keyOrder)])
		if _, ok := e.Lookup(b[:]); ok {
			hits++
		}
		ops++
		idx++
	}
	elapsed := time.Since(start)

	lookups, predictorHits, fallbackHits, _ := collector.Snapshot()
	var predictedRatio float64
	if lookups > 0 {
		predictedRatio = float64(predictorHits) / float64(predictorHits+fallbackHits) * 100
	}

	return BenchmarkResult{
		BenchmarkType:  label,
		NumKeys:        *numKeys,
		ValueSize:      *valueSize,
		BlockSize:      *blockSize,
		Operations:     ops,
		Duration:       elapsed.Seconds(),
		Throughput:     float64(ops) / elapsed.Seconds(),
		Latency:        elapsed.Seconds() * 1e6 / float64(ops),
		HitRate:        float64(hits) / float64(ops) * 100,
		PredictedRatio: predictedRatio,
		Timestamp:      start,
	}
}
