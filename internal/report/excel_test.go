package report

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "tsfarb/internal/errors"
	"tsfarb/internal/treasury"
)

func samplePoints() []treasury.SpreadPoint {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	var points []treasury.SpreadPoint
	for i, v := range []float64{-15.0, -14.5, math.NaN(), -13.75} {
		points = append(points, treasury.SpreadPoint{
			Date:        start.AddDate(0, 0, i),
			Bucket:      treasury.Bucket2Y,
			SpreadBps:   v,
			ImpliedRate: 2.10,
			OISRate:     2.25,
			TTMDays:     60 - i,
		})
	}
	points = append(points, treasury.SpreadPoint{
		Date:        start,
		Bucket:      treasury.Bucket10Y,
		SpreadBps:   4.25,
		ImpliedRate: 2.31,
		OISRate:     2.27,
		TTMDays:     58,
	})
	return points
}

func TestBuilder_Build(t *testing.T) {
	points := samplePoints()
	stats := treasury.Summarize(points)
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")

	require.NoError(t, NewBuilder(nil).Build(path, points, stats, "run-123"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "2Y")
	assert.Contains(t, sheets, "10Y")
	assert.NotContains(t, sheets, "5Y", "buckets without observations are omitted")

	run, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "run-123", run)

	head, err := f.GetCellValue("2Y", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Spread (bps)", head)

	first, err := f.GetCellValue("2Y", "B2")
	require.NoError(t, err)
	assert.Equal(t, "-15", first)

	gap, err := f.GetCellValue("2Y", "B4")
	require.NoError(t, err)
	assert.Equal(t, "", gap, "missing spread stays an empty cell")

	date, err := f.GetCellValue("2Y", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", date)
}

func TestBuilder_Build_NoPoints(t *testing.T) {
	err := NewBuilder(nil).Build(filepath.Join(t.TempDir(), "report.xlsx"), nil, nil, "run-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
