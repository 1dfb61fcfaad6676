// Command calculate runs the full arbitrage-spread pipeline: load the
// treasury futures, OIS rate, and last-trading-day inputs, compute the spread
// series per maturity bucket, smooth it, and write the wide CSV plus the
// per-bucket summary statistics.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"tsfarb/internal/config"
	"tsfarb/internal/infrastructure"
	"tsfarb/internal/treasury"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	futures := flag.String("futures", "", "treasury futures CSV (defaults to <data_dir>/treasury_futures.csv)")
	ois := flag.String("ois", "", "OIS rate CSV (defaults to <data_dir>/ois_rates.csv)")
	lastTrading := flag.String("last-trading", "", "last-trading-day table, CSV or XLSX (defaults to <manual_data_dir>/last_trading_days.xlsx)")
	out := flag.String("out", "", "spread series output CSV (defaults to <output_dir>/treasury_sf_output.csv)")
	stats := flag.String("stats", "", "summary statistics output CSV (defaults to <output_dir>/treasury_sf_stats.csv)")
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

	if *futures == "" {
		*futures = cfg.FuturesCSVPath()
	}
	if *ois == "" {
		*ois = cfg.OISCSVPath()
	}
	if *lastTrading == "" {
		*lastTrading = cfg.LastTradingDaysPath()
	}
	if *out == "" {
		*out = cfg.SpreadCSVPath()
	}
	if *stats == "" {
		*stats = cfg.StatsCSVPath()
	}

	if err := cfg.EnsureOutputDir(); err != nil {
		logger.Error("failed to create output directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("starting spread calculation",
		slog.String("futures", *futures),
		slog.String("ois", *ois),
		slog.String("last_trading", *lastTrading),
		slog.String("out", *out))

	if err := run(context.Background(), cfg, logger, *futures, *ois, *lastTrading, *out, *stats); err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("spread calculation completed", slog.String("out", *out))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, futures, ois, lastTrading, out, stats string) error {
	loader := treasury.NewLoader(cfg.Pipeline.RatesInPercent, cfg.Cutoff(), logger)

	records, err := loader.LoadContracts(futures)
	if err != nil {
		return err
	}
	curves, err := loader.LoadOISCurves(ois)
	if err != nil {
		return err
	}
	table, err := loader.LoadLastTradingDays(lastTrading)
	if err != nil {
		return err
	}

	policy, err := treasury.ParseBoundaryPolicy(cfg.Pipeline.BoundaryPolicy)
	if err != nil {
		return err
	}

	calc := treasury.NewCalculator(
		treasury.NewResolver(table),
		treasury.NewInterpolator(policy),
		logger)
	points, err := calc.Compute(ctx, records, curves)
	if err != nil {
		return err
	}

	smoother := treasury.NewSmoother(treasury.SmootherConfig{
		Window:          cfg.Pipeline.SmootherWindow,
		Threshold:       cfg.Pipeline.SmootherThreshold,
		MaxFill:         cfg.Pipeline.MaxForwardFill,
		MinObservations: treasury.DefaultSmootherConfig().MinObservations,
	}, logger)
	points = smoother.Smooth(points)

	if err := treasury.WriteWide(out, points, logger); err != nil {
		return err
	}
	return treasury.WriteStatsCSV(stats, treasury.Summarize(points))
}
