package treasury

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apperrors "tsfarb/internal/errors"
)

// Output column naming follows the published dataset convention:
// tfut_<tenor>_arb|rf|ois|ttm per maturity bucket.
func bucketColumns(b Bucket) (arb, rf, ois, ttm string) {
	n := int(b)
	return fmt.Sprintf("tfut_%d_arb", n),
		fmt.Sprintf("tfut_%d_rf", n),
		fmt.Sprintf("tfut_%d_ois", n),
		fmt.Sprintf("tfut_%d_ttm", n)
}

// WriteWide persists the spread series as a wide CSV: one row per date,
// chronologically sorted, one column group per maturity bucket. Missing
// values are written as empty cells.
func WriteWide(path string, points []SpreadPoint, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if len(points) == 0 {
		return apperrors.NewStorageError("no spread points to write", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create output directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("create output file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Date"}
	for _, b := range Buckets() {
		arb, rf, ois, ttm := bucketColumns(b)
		header = append(header, arb, rf, ois, ttm)
	}
	if err := writer.Write(header); err != nil {
		return apperrors.NewStorageError("write CSV header", err)
	}

	// Pivot to one row per date. Two points for the same (date, bucket) mean
	// the series upstream is malformed; overwriting one silently would hide it.
	byDate := make(map[string]map[Bucket]SpreadPoint)
	var dates []string
	for _, p := range points {
		key := DateKey(p.Date)
		if byDate[key] == nil {
			byDate[key] = make(map[Bucket]SpreadPoint)
			dates = append(dates, key)
		}
		if _, exists := byDate[key][p.Bucket]; exists {
			return apperrors.NewStorageError(
				fmt.Sprintf("duplicate spread point for %s bucket %s", key, p.Bucket), nil)
		}
		byDate[key][p.Bucket] = p
	}
	sort.Strings(dates)

	for _, date := range dates {
		row := []string{date}
		for _, b := range Buckets() {
			p, ok := byDate[date][b]
			if !ok {
				row = append(row, "", "", "", "")
				continue
			}
			row = append(row,
				formatValue(p.SpreadBps, 2),
				formatValue(p.ImpliedRate, 4),
				formatValue(p.OISRate, 4),
				strconv.Itoa(p.TTMDays),
			)
		}
		if err := writer.Write(row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write CSV row for %s", date), err)
		}
	}

	logger.Info("wrote spread series",
		slog.String("path", path),
		slog.Int("dates", len(dates)),
		slog.Int("points", len(points)))

	return nil
}

// ReadWide reads a wide spread series CSV back into points, the inverse of
// WriteWide up to the output precision.
func ReadWide(path string) ([]SpreadPoint, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, apperrors.NewMissingFileError(path, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewMalformedRowError(filepath.Base(path), 0, "read CSV", err)
	}
	if len(all) < 1 {
		return nil, apperrors.NewMalformedRowError(filepath.Base(path), 1, "empty file", nil)
	}

	header := all[0]
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	dateIdx, ok := colIdx["Date"]
	if !ok {
		return nil, apperrors.NewMissingColumnError(filepath.Base(path), "Date")
	}

	var points []SpreadPoint
	for rowNum, row := range all[1:] {
		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, apperrors.NewMalformedRowError(filepath.Base(path), rowNum+2, "unparseable date", err)
		}

		for _, b := range Buckets() {
			arbCol, rfCol, oisCol, ttmCol := bucketColumns(b)
			arbIdx, ok := colIdx[arbCol]
			if !ok {
				continue
			}
			cell := func(name string) string {
				if i, ok := colIdx[name]; ok && i < len(row) {
					return strings.TrimSpace(row[i])
				}
				return ""
			}
			if cell(arbCol) == "" && cell(rfCol) == "" && cell(oisCol) == "" {
				continue // bucket absent on this date
			}

			arb, err := parseOptionalFloat(strings.TrimSpace(row[arbIdx]))
			if err != nil {
				return nil, apperrors.NewMalformedRowError(filepath.Base(path), rowNum+2,
					fmt.Sprintf("unparseable %s", arbCol), err)
			}
			rf, err := parseOptionalFloat(cell(rfCol))
			if err != nil {
				return nil, apperrors.NewMalformedRowError(filepath.Base(path), rowNum+2,
					fmt.Sprintf("unparseable %s", rfCol), err)
			}
			ois, err := parseOptionalFloat(cell(oisCol))
			if err != nil {
				return nil, apperrors.NewMalformedRowError(filepath.Base(path), rowNum+2,
					fmt.Sprintf("unparseable %s", oisCol), err)
			}
			ttm := 0
			if c := cell(ttmCol); c != "" {
				ttm, err = strconv.Atoi(c)
				if err != nil {
					return nil, apperrors.NewMalformedRowError(filepath.Base(path), rowNum+2,
						fmt.Sprintf("unparseable %s", ttmCol), err)
				}
			}

			points = append(points, SpreadPoint{
				Date:        date,
				Bucket:      b,
				SpreadBps:   arb,
				ImpliedRate: rf,
				OISRate:     ois,
				TTMDays:     ttm,
			})
		}
	}

	return points, nil
}

// formatValue renders a float for CSV output; NaN becomes an empty cell.
func formatValue(v float64, precision int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}
