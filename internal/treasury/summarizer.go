package treasury

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	apperrors "tsfarb/internal/errors"
)

// BucketStats are descriptive statistics of one bucket's spread series,
// computed over non-missing observations only.
type BucketStats struct {
	Bucket Bucket
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Summarize computes per-bucket descriptive statistics of the spread series.
func Summarize(points []SpreadPoint) []BucketStats {
	byBucket := make(map[Bucket][]float64)
	for _, p := range points {
		if p.Missing() {
			continue
		}
		byBucket[p.Bucket] = append(byBucket[p.Bucket], p.SpreadBps)
	}

	var stats []BucketStats
	for _, b := range Buckets() {
		values := byBucket[b]
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)

		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))

		var sq float64
		for _, v := range values {
			d := v - mean
			sq += d * d
		}
		std := 0.0
		if len(values) > 1 {
			std = math.Sqrt(sq / float64(len(values)-1))
		}

		stats = append(stats, BucketStats{
			Bucket: b,
			Count:  len(values),
			Mean:   mean,
			StdDev: std,
			Min:    values[0],
			Q25:    quantileSorted(values, 0.25),
			Median: quantileSorted(values, 0.5),
			Q75:    quantileSorted(values, 0.75),
			Max:    values[len(values)-1],
		})
	}
	return stats
}

// WriteStatsCSV persists the summary table, one row per bucket.
func WriteStatsCSV(path string, stats []BucketStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create output directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("create stats file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Bucket", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"}
	if err := writer.Write(header); err != nil {
		return apperrors.NewStorageError("write stats header", err)
	}

	for _, s := range stats {
		row := []string{
			s.Bucket.String(),
			strconv.Itoa(s.Count),
			formatValue(s.Mean, 4),
			formatValue(s.StdDev, 4),
			formatValue(s.Min, 4),
			formatValue(s.Q25, 4),
			formatValue(s.Median, 4),
			formatValue(s.Q75, 4),
			formatValue(s.Max, 4),
		}
		if err := writer.Write(row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write stats row for %s", s.Bucket), err)
		}
	}
	return nil
}
