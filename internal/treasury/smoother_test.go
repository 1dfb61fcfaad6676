package treasury

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tsfarb/internal/errors"
)

func seriesPoints(bucket Bucket, values []float64) []SpreadPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]SpreadPoint, len(values))
	for i, v := range values {
		points[i] = SpreadPoint{
			Date:      start.AddDate(0, 0, i),
			Bucket:    bucket,
			SpreadBps: v,
		}
	}
	return points
}

func TestWindowStats(t *testing.T) {
	stats, err := WindowStats([]float64{1, 2, 3, 4, 5}, 5)
	require.NoError(t, err)
	assert.Equal(t, 3.0, stats.Mean)
	assert.Equal(t, 3.0, stats.Median)
	assert.InDelta(t, math.Sqrt(2), stats.StdDev, 1e-12)
	assert.InDelta(t, 1.2, stats.MAD, 1e-12)
}

func TestWindowStats_InsufficientWindow(t *testing.T) {
	_, err := WindowStats([]float64{1, 2}, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWindow))

	_, err = WindowStats(nil, 0)
	assert.Error(t, err)
}

func TestSmoother_FlagsAndFillsOutlier(t *testing.T) {
	// Stable series around 10 with a single absurd jump.
	values := []float64{10, 11, 9, 10, 12, 10, 9, 11, 10, 10, 500, 10}
	s := NewSmoother(SmootherConfig{Window: 30, Threshold: 10, MaxFill: 5, MinObservations: 10}, slog.Default())

	out := s.Smooth(seriesPoints(Bucket10Y, values))
	require.Len(t, out, len(values))

	jump := out[10]
	assert.True(t, jump.Flagged, "the 500 observation should be flagged")
	assert.True(t, jump.Filled)
	assert.Equal(t, 10.0, jump.SpreadBps, "filled from the last genuine observation")

	// The trailing genuine observation is untouched.
	assert.False(t, out[11].Flagged)
	assert.Equal(t, 10.0, out[11].SpreadBps)
}

func TestSmoother_BoundedGapNeverExceeded(t *testing.T) {
	// 10 genuine observations, then 6 consecutive missing with a limit of
	// 5: the 6th must remain unfilled.
	values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
	missing := []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	s := NewSmoother(SmootherConfig{Window: 30, Threshold: 10, MaxFill: 5, MinObservations: 10}, slog.Default())

	out := s.Smooth(seriesPoints(Bucket5Y, append(values, missing...)))
	require.Len(t, out, 16)

	for i := 10; i < 15; i++ {
		assert.True(t, out[i].Filled, "gap position %d should be filled", i-10+1)
		assert.Equal(t, 10.0, out[i].SpreadBps)
	}
	sixth := out[15]
	assert.False(t, sixth.Filled)
	assert.True(t, sixth.Missing(), "the 6th consecutive gap must remain missing")
}

func TestSmoother_FillCounterResetsOnGenuineObservation(t *testing.T) {
	base := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
	nan := math.NaN()
	// 5 fills, a genuine observation, then 5 more fills: all allowed.
	tail := []float64{nan, nan, nan, nan, nan, 11, nan, nan, nan, nan, nan}
	s := NewSmoother(SmootherConfig{Window: 30, Threshold: 10, MaxFill: 5, MinObservations: 10}, slog.Default())

	out := s.Smooth(seriesPoints(Bucket2Y, append(base, tail...)))
	require.Len(t, out, 21)

	for i := 10; i < 15; i++ {
		assert.True(t, out[i].Filled)
	}
	assert.False(t, out[15].Filled)
	assert.Equal(t, 11.0, out[15].SpreadBps)
	for i := 16; i < 21; i++ {
		assert.True(t, out[i].Filled, "fill budget resets after a genuine observation")
		assert.Equal(t, 11.0, out[i].SpreadBps)
	}
}

func TestSmoother_NoFlaggingWithoutHistory(t *testing.T) {
	// Too little history to judge: even a wild first value passes through.
	values := []float64{500, 10, 11}
	s := NewSmoother(DefaultSmootherConfig(), slog.Default())

	out := s.Smooth(seriesPoints(Bucket30Y, values))
	for _, p := range out {
		assert.False(t, p.Flagged)
		assert.False(t, p.Filled)
	}
}

func TestSmoother_FlatWindowUsesStdDevFallback(t *testing.T) {
	// All-identical history makes MAD zero; the point still passes because
	// the standard deviation is zero too. A deviating value on a flat
	// window with nonzero spread history is flagged via the MAD path once
	// variation exists.
	values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
	s := NewSmoother(SmootherConfig{Window: 30, Threshold: 10, MaxFill: 5, MinObservations: 10}, slog.Default())

	out := s.Smooth(seriesPoints(Bucket20Y, values))
	assert.False(t, out[10].Flagged)
}

func TestSmoother_BucketsSmoothedIndependently(t *testing.T) {
	a := seriesPoints(Bucket2Y, []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 500})
	b := seriesPoints(Bucket5Y, []float64{480, 500, 490, 500, 510, 495, 505, 500, 500, 500, 500})
	s := NewSmoother(SmootherConfig{Window: 30, Threshold: 10, MaxFill: 5, MinObservations: 10}, slog.Default())

	out := s.Smooth(append(a, b...))
	require.Len(t, out, 22)

	for _, p := range out {
		if p.Bucket == Bucket5Y {
			assert.False(t, p.Flagged, "500-level values are normal for the 5Y history")
		}
	}
}

func TestBoundedForwardFill(t *testing.T) {
	nan := math.NaN()
	in := []float64{1, nan, nan, 2, nan, nan, nan, nan, nan, nan}
	out := BoundedForwardFill(in, 5)

	assert.Equal(t, 1.0, out[1])
	assert.Equal(t, 1.0, out[2])
	assert.Equal(t, 2.0, out[3])
	for i := 4; i < 9; i++ {
		assert.Equal(t, 2.0, out[i], "position %d within fill budget", i)
	}
	assert.True(t, math.IsNaN(out[9]), "beyond the budget stays missing")
}

func TestBoundedForwardFill_LeadingGapStaysMissing(t *testing.T) {
	nan := math.NaN()
	out := BoundedForwardFill([]float64{nan, nan, 3}, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 3.0, out[2])
}
