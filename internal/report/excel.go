// Package report renders the computed spread series into an Excel workbook:
// one sheet per maturity bucket with its series and an embedded line chart,
// plus a summary sheet of descriptive statistics.
package report

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	apperrors "tsfarb/internal/errors"
	"tsfarb/internal/treasury"
)

// Builder assembles the workbook from spread points and bucket statistics.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a workbook builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

const summarySheet = "Summary"

// Build writes the workbook to path. Each bucket with observations gets its
// own sheet; buckets with no data are omitted.
func (b *Builder) Build(path string, points []treasury.SpreadPoint, stats []treasury.BucketStats, runID string) error {
	if len(points) == 0 {
		return apperrors.NewStorageError("no spread points to report", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create output directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the summary.
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return apperrors.NewStorageError("rename summary sheet", err)
	}
	if err := b.writeSummary(f, stats, runID); err != nil {
		return err
	}

	byBucket := make(map[treasury.Bucket][]treasury.SpreadPoint)
	for _, p := range points {
		byBucket[p.Bucket] = append(byBucket[p.Bucket], p)
	}

	for _, bucket := range treasury.Buckets() {
		series := byBucket[bucket]
		if len(series) == 0 {
			continue
		}
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
		if err := b.writeBucketSheet(f, bucket, series); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("save workbook %s", path), err)
	}

	b.logger.Info("wrote report workbook",
		slog.String("path", path),
		slog.Int("points", len(points)),
		slog.String("run_id", runID))

	return nil
}

func (b *Builder) writeSummary(f *excelize.File, stats []treasury.BucketStats, runID string) error {
	rows := [][]interface{}{
		{"Treasury Spot-Futures Arbitrage Spread"},
		{"Run", runID},
		{},
		{"Bucket", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"},
	}
	for _, s := range stats {
		rows = append(rows, []interface{}{
			s.Bucket.String(), s.Count, s.Mean, s.StdDev, s.Min, s.Q25, s.Median, s.Q75, s.Max,
		})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.NewStorageError("summary cell name", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return apperrors.NewStorageError("write summary row", err)
		}
	}
	return nil
}

// writeBucketSheet writes one bucket's dated series and embeds a line chart
// over it. Missing values become empty cells so the chart shows gaps instead
// of zeros.
func (b *Builder) writeBucketSheet(f *excelize.File, bucket treasury.Bucket, series []treasury.SpreadPoint) error {
	sheet := bucket.String()
	if _, err := f.NewSheet(sheet); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create sheet %s", sheet), err)
	}

	header := []interface{}{"Date", "Spread (bps)", "Implied Rate (%)", "OIS Rate (%)", "TTM (days)"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewStorageError("write sheet header", err)
	}

	for i, p := range series {
		row := []interface{}{
			treasury.DateKey(p.Date),
			cellValue(p.SpreadBps),
			cellValue(p.ImpliedRate),
			cellValue(p.OISRate),
			p.TTMDays,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("series cell name", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write series row for %s", sheet), err)
		}
	}

	lastRow := len(series) + 1
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, lastRow),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, lastRow),
		}},
		Title: []excelize.RichTextRun{{
			Text: fmt.Sprintf("%s spot-futures arbitrage spread", bucket),
		}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}
	if err := f.AddChart(sheet, "G2", chart); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("add chart to %s", sheet), err)
	}
	return nil
}

// cellValue maps NaN to nil so excelize writes an empty cell.
func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
