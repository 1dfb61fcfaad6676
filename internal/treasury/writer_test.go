package treasury

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tsfarb/internal/errors"
)

func TestWriteWide_ReadWide_RoundTrip(t *testing.T) {
	d1 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	in := []SpreadPoint{
		{Date: d1, Bucket: Bucket2Y, SpreadBps: -15.00, ImpliedRate: 2.1000, OISRate: 2.2500, TTMDays: 60},
		{Date: d1, Bucket: Bucket10Y, SpreadBps: 4.25, ImpliedRate: 2.3100, OISRate: 2.2675, TTMDays: 58},
		{Date: d2, Bucket: Bucket2Y, SpreadBps: -14.50, ImpliedRate: 2.1100, OISRate: 2.2550, TTMDays: 59},
		{Date: d2, Bucket: Bucket10Y, SpreadBps: math.NaN(), ImpliedRate: 2.3200, OISRate: 2.2700, TTMDays: 57},
	}

	path := filepath.Join(t.TempDir(), "out", "spreads.csv")
	require.NoError(t, WriteWide(path, in, nil))

	out, err := ReadWide(path)
	require.NoError(t, err)
	require.Len(t, out, 4)

	// Points come back bucket-grouped per date, chronologically sorted.
	assert.Equal(t, d1, out[0].Date)
	assert.Equal(t, Bucket2Y, out[0].Bucket)
	assert.Equal(t, -15.00, out[0].SpreadBps)
	assert.Equal(t, 2.1000, out[0].ImpliedRate)
	assert.Equal(t, 2.2500, out[0].OISRate)
	assert.Equal(t, 60, out[0].TTMDays)

	last := out[3]
	assert.Equal(t, d2, last.Date)
	assert.Equal(t, Bucket10Y, last.Bucket)
	assert.True(t, last.Missing(), "NaN spread survives the round trip as missing")
	assert.Equal(t, 2.3200, last.ImpliedRate)
}

func TestWriteWide_HeaderAndEmptyCells(t *testing.T) {
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	in := []SpreadPoint{
		{Date: d, Bucket: Bucket5Y, SpreadBps: 1.5, ImpliedRate: 2.0, OISRate: 1.985, TTMDays: 90},
	}

	path := filepath.Join(t.TempDir(), "spreads.csv")
	require.NoError(t, WriteWide(path, in, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Equal(t, "Date", header[0])
	assert.Contains(t, header, "tfut_2_arb")
	assert.Contains(t, header, "tfut_5_arb")
	assert.Contains(t, header, "tfut_5_rf")
	assert.Contains(t, header, "tfut_5_ois")
	assert.Contains(t, header, "tfut_5_ttm")
	assert.Contains(t, header, "tfut_30_ttm")
	assert.Len(t, header, 1+4*len(Buckets()))

	// Buckets with no observation on the date are empty cells, not zeros.
	row := rows[1]
	assert.Equal(t, "2024-01-15", row[0])
	assert.Equal(t, "", row[1], "2Y arb cell empty")
	assert.Equal(t, "1.50", row[5], "5Y arb formatted to 2 decimals")
	assert.Equal(t, "90", row[8])
}

func TestWriteWide_DuplicateDateBucketRejected(t *testing.T) {
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	in := []SpreadPoint{
		{Date: d, Bucket: Bucket2Y, SpreadBps: -15.0, TTMDays: 60},
		{Date: d, Bucket: Bucket2Y, SpreadBps: -14.5, TTMDays: 60},
	}

	err := WriteWide(filepath.Join(t.TempDir(), "spreads.csv"), in, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Contains(t, err.Error(), "2024-01-15")
}

func TestWriteWide_NoPoints(t *testing.T) {
	err := WriteWide(filepath.Join(t.TempDir(), "spreads.csv"), nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestReadWide_MissingFile(t *testing.T) {
	_, err := ReadWide(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestReadWide_PartialColumnGroups(t *testing.T) {
	// A file carrying only the 10Y group parses without inventing other buckets.
	content := "Date,tfut_10_arb,tfut_10_rf,tfut_10_ois,tfut_10_ttm\n" +
		"2024-01-15,3.25,2.3100,2.2775,58\n"
	path := filepath.Join(t.TempDir(), "spreads.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	points, err := ReadWide(path)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, Bucket10Y, points[0].Bucket)
	assert.Equal(t, 3.25, points[0].SpreadBps)
	assert.Equal(t, 58, points[0].TTMDays)
}
