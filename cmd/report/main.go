// Command report renders the Excel analysis workbook from a previously
// written spread series CSV: one chart sheet per maturity bucket plus a
// summary-statistics sheet.
package main

import (
	"flag"
	"log/slog"
	"os"

	"tsfarb/internal/config"
	"tsfarb/internal/infrastructure"
	"tsfarb/internal/report"
	"tsfarb/internal/treasury"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	in := flag.String("in", "", "spread series CSV (defaults to <output_dir>/treasury_sf_output.csv)")
	out := flag.String("out", "", "workbook output path (defaults to <output_dir>/treasury_sf_report.xlsx)")
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
	runID := infrastructure.NewRunID()
	logger = infrastructure.WithRun(logger, runID)

	if *in == "" {
		*in = cfg.SpreadCSVPath()
	}
	if *out == "" {
		*out = cfg.ReportXLSXPath()
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		logger.Error("failed to create output directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("building report workbook",
		slog.String("in", *in),
		slog.String("out", *out))

	points, err := treasury.ReadWide(*in)
	if err != nil {
		logger.Error("failed to read spread series", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stats := treasury.Summarize(points)
	if err := report.NewBuilder(logger).Build(*out, points, stats, runID); err != nil {
		logger.Error("failed to build workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("report workbook written",
		slog.String("out", *out),
		slog.Int("points", len(points)))
}
