package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult stores the outcome of one lookup benchmark run.
type BenchmarkResult struct {
	BenchmarkType  string // "predicted", "fallback", or "mixed"
	NumKeys        int
	ValueSize      int
	BlockSize      int
	Operations     int
	Duration       float64
	Throughput     float64
	Latency        float64
	HitRate        float64
	PredictedRatio float64 // percentage of hits served by the predictor path rather than fallback
	Timestamp      time.Time
}

// SaveResultCSV saves benchmark results to a CSV file.
func SaveResultCSV(results []BenchmarkResult, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Timestamp", "BenchmarkType", "NumKeys", "ValueSize", "BlockSize",
		"Operations", "Duration", "Throughput", "Latency", "HitRate", "PredictedRatio",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		record := []string{
			r.Timestamp.Format(time.RFC3339),
			r.BenchmarkType,
			strconv.Itoa(r.NumKeys),
			strconv.Itoa(r.ValueSize),
			strconv.Itoa(r.BlockSize),
			strconv.Itoa(r.Operations),
			fmt.Sprintf("%.2f", r.Duration),
			fmt.Sprintf("%.2f", r.Throughput),
			fmt.Sprintf("%.3f", r.Latency),
			fmt.Sprintf("%.2f", r.HitRate),
			fmt.Sprintf("%.2f", r.PredictedRatio),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// LoadResultCSV loads benchmark results from a CSV file.
func LoadResultCSV(filename string) ([]BenchmarkResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) <= 1 {
		return []BenchmarkResult{}, nil
	}
	records = records[1:]

	results := make([]BenchmarkResult, 0, len(records))
	for _, record := range records {
		if len(record) < 11 {
			continue
		}

		timestamp, _ := time.Parse(time.RFC3339, record[0])
		numKeys, _ := strconv.Atoi(record[2])
		valueSize, _ := strconv.Atoi(record[3])
		blockSize, _ := strconv.Atoi(record[4])
		operations, _ := strconv.Atoi(record[5])
		duration, _ := strconv.ParseFloat(record[6], 64)
		throughput, _ := strconv.ParseFloat(record[7], 64)
		latency, _ := strconv.ParseFloat(record[8], 64)
		hitRate, _ := strconv.ParseFloat(record[9], 64)
		predictedRatio, _ := strconv.ParseFloat(record[10], 64)

		results = append(results, BenchmarkResult{
			Timestamp:      timestamp,
			BenchmarkType:  record[1],
			NumKeys:        numKeys,
			ValueSize:      valueSize,
			BlockSize:      blockSize,
			Operations:     operations,
			Duration:       duration,
			Throughput:     throughput,
			Latency:        latency,
			HitRate:        hitRate,
			PredictedRatio: predictedRatio,
		})
	}

	return results, nil
}

// PrintResultTable prints a formatted table of benchmark results.
func PrintResultTable(results []BenchmarkResult) {
	if len(results) == 0 {
		fmt.Println("No results to display")
		return
	}

	fmt.Println("+-----------------+--------+---------+------------+----------+----------+------------+")
	fmt.Println("| Benchmark Type  | Keys   | BlkSize | Throughput | Latency  | Hit Rate | Predicted% |")
	fmt.Println("+-----------------+--------+---------+------------+----------+----------+------------+")

	for _, r := range results {
		latencyUnit := "µs"
		latency := r.Latency
		if latency > 1000 {
			latencyUnit = "ms"
			latency /= 1000
		}

		fmt.Printf("| %-15s | %6d | %7d | %10.2f | %6.2f%s | %7.2f%% | %9.2f%% |\n",
			r.BenchmarkType,
			r.NumKeys,
			r.BlockSize,
			r.Throughput,
			latency, latencyUnit,
			r.HitRate,
			r.PredictedRatio)
	}
	fmt.Println("+-----------------+--------+---------+------------+----------+----------+------------+")
}
