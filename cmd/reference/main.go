// Command reference rebuilds the published reference series from a combined
// spreads file: forward-fill gaps up to the configured bound, drop dates with
// any series still missing, and keep only the Treasury_SF_* columns under
// their published names.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"tsfarb/internal/config"
	apperrors "tsfarb/internal/errors"
	"tsfarb/internal/infrastructure"
	"tsfarb/internal/treasury"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	in := flag.String("in", "", "combined spreads CSV (defaults to <data_dir>/combined_spreads.csv)")
	out := flag.String("out", "", "reference series output CSV (defaults to <output_dir>/reference.csv)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	logger = infrastructure.WithRun(logger, infrastructure.NewRunID())

	if *in == "" {
		*in = filepath.Join(cfg.Paths.DataDir, "combined_spreads.csv")
	}
	if *out == "" {
		*out = filepath.Join(cfg.Paths.OutputDir, "reference.csv")
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		logger.Error("failed to create output directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("rebuilding reference series",
		slog.String("in", *in),
		slog.String("out", *out),
		slog.Int("fill_limit", cfg.Pipeline.MaxForwardFill))

	if err := rebuild(*in, *out, cfg.Pipeline.MaxForwardFill, logger); err != nil {
		logger.Error("reference rebuild failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("reference series written", slog.String("out", *out))
}

// publishedName maps a raw combined-spreads column to its published series
// name; columns that are not part of the reference series map to "".
func publishedName(column string) string {
	if strings.HasPrefix(column, "Treasury_SF_") {
		return column
	}
	if n, ok := strings.CutPrefix(column, "raw_tfut_"); ok {
		if years, err := strconv.Atoi(n); err == nil {
			return fmt.Sprintf("Treasury_SF_%02dY", years)
		}
	}
	return ""
}

func rebuild(in, out string, fillLimit int, logger *slog.Logger) error {
	if _, err := os.Stat(in); os.IsNotExist(err) {
		return apperrors.NewMissingFileError(in, err)
	}
	f, err := os.Open(in)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("open %s", in), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return apperrors.NewMalformedRowError(filepath.Base(in), 0, "read CSV", err)
	}
	if len(all) < 2 {
		return apperrors.NewMalformedRowError(filepath.Base(in), 1, "no data rows", nil)
	}

	header := all[0]
	dateIdx := -1
	type seriesCol struct {
		name string
		idx  int
	}
	var series []seriesCol
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "Date" {
			dateIdx = i
			continue
		}
		if published := publishedName(name); published != "" {
			series = append(series, seriesCol{name: published, idx: i})
		}
	}
	if dateIdx < 0 {
		return apperrors.NewMissingColumnError(filepath.Base(in), "Date")
	}
	if len(series) == 0 {
		return apperrors.NewMissingColumnError(filepath.Base(in), "Treasury_SF_*")
	}
	// Published column order, regardless of input-file order.
	sort.Slice(series, func(i, j int) bool { return series[i].name < series[j].name })

	rows := all[1:]
	dates := make([]string, len(rows))
	values := make([][]float64, len(series))
	for s := range series {
		values[s] = make([]float64, len(rows))
	}
	for r, row := range rows {
		for len(row) < len(header) {
			row = append(row, "")
		}
		dates[r] = strings.TrimSpace(row[dateIdx])
		for s, col := range series {
			cell := strings.TrimSpace(row[col.idx])
			if cell == "" {
				values[s][r] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return apperrors.NewMalformedRowError(filepath.Base(in), r+2,
					fmt.Sprintf("unparseable %s", col.name), err)
			}
			values[s][r] = v
		}
	}

	for s := range values {
		values[s] = treasury.BoundedForwardFill(values[s], fillLimit)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return apperrors.NewStorageError("create output directory", err)
	}
	outF, err := os.Create(out)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create %s", out), err)
	}
	defer outF.Close()

	writer := csv.NewWriter(outF)
	defer writer.Flush()

	outHeader := []string{"Date"}
	for _, col := range series {
		outHeader = append(outHeader, col.name)
	}
	if err := writer.Write(outHeader); err != nil {
		return apperrors.NewStorageError("write header", err)
	}

	kept, dropped := 0, 0
	for r := range rows {
		complete := true
		for s := range series {
			if math.IsNaN(values[s][r]) {
				complete = false
				break
			}
		}
		if !complete {
			dropped++
			continue
		}
		row := []string{dates[r]}
		for s := range series {
			row = append(row, strconv.FormatFloat(values[s][r], 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write row for %s", dates[r]), err)
		}
		kept++
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("flush reference CSV", err)
	}

	logger.Info("reference series rebuilt",
		slog.Int("series", len(series)),
		slog.Int("rows_kept", kept),
		slog.Int("rows_dropped", dropped))

	return nil
}
