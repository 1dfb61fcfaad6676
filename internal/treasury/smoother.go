package treasury

import (
	"log/slog"
	"math"
	"sort"

	apperrors "tsfarb/internal/errors"
)

// SmootherConfig holds the outlier-detection and fill parameters.
type SmootherConfig struct {
	// Window is the number of trailing genuine observations the rolling
	// statistics are computed over.
	Window int
	// Threshold flags a point deviating from the rolling center by more
	// than Threshold times the rolling dispersion.
	Threshold float64
	// MaxFill bounds how many consecutive periods may be forward-filled
	// from the last genuine observation. Beyond it, values stay missing.
	MaxFill int
	// MinObservations is the history needed before a point can be judged;
	// earlier points pass through unflagged.
	MinObservations int
}

// DefaultSmootherConfig mirrors the published methodology: 30-observation
// window, dispersion multiple 10, fill bounded at 5 periods.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		Window:          30,
		Threshold:       10,
		MaxFill:         5,
		MinObservations: 10,
	}
}

// Stats are the rolling-window statistics of a smoother evaluation.
type Stats struct {
	Mean   float64
	StdDev float64
	Median float64
	MAD    float64 // mean absolute deviation from the median
}

// WindowStats computes rolling statistics over a window of values, failing
// with an insufficient-window error when fewer than min observations exist.
func WindowStats(values []float64, min int) (Stats, error) {
	if len(values) < min || len(values) == 0 {
		return Stats{}, apperrors.NewInsufficientWindowError(len(values), min)
	}

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
	std := math.Sqrt(sq / float64(len(values)))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	median := quantileSorted(sorted, 0.5)

	var absDev float64
	for _, v := range values {
		absDev += math.Abs(v - median)
	}
	mad := absDev / float64(len(values))

	return Stats{Mean: mean, StdDev: std, Median: median, MAD: mad}, nil
}

// Smoother stabilizes a spread series against spurious single-observation
// jumps: points drifting beyond the rolling threshold are flagged and
// replaced by a bounded forward fill of the last genuine observation.
type Smoother struct {
	cfg    SmootherConfig
	logger *slog.Logger
}

// NewSmoother creates a smoother; zero config fields fall back to defaults.
func NewSmoother(cfg SmootherConfig, logger *slog.Logger) *Smoother {
	def := DefaultSmootherConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.MinObservations <= 0 {
		cfg.MinObservations = def.MinObservations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Smoother{cfg: cfg, logger: logger}
}

// Smooth processes the series bucket by bucket in chronological order and
// returns a new slice; the input is not modified. Points already missing
// (NaN) are fill candidates exactly like flagged outliers, and the
// consecutive-fill counter resets on every genuine observation.
func (s *Smoother) Smooth(points []SpreadPoint) []SpreadPoint {
	byBucket := make(map[Bucket][]SpreadPoint)
	for _, p := range points {
		byBucket[p.Bucket] = append(byBucket[p.Bucket], p)
	}

	out := make([]SpreadPoint, 0, len(points))
	flagged, filled := 0, 0

	for _, b := range Buckets() {
		series := byBucket[b]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})

		var history []float64 // trailing genuine values, newest last
		var lastValid float64
		haveValid := false
		fillsUsed := 0

		for _, p := range series {
			if p.Missing() {
				if s.fill(&p, lastValid, haveValid, &fillsUsed) {
					filled++
				}
				out = append(out, p)
				continue
			}

			if s.isOutlier(p.SpreadBps, history) {
				p.Flagged = true
				flagged++
				p.SpreadBps = math.NaN()
				if s.fill(&p, lastValid, haveValid, &fillsUsed) {
					filled++
				}
				out = append(out, p)
				continue
			}

			// Genuine observation: becomes the fill source and resets
			// the consecutive-fill counter.
			lastValid = p.SpreadBps
			haveValid = true
			fillsUsed = 0
			history = append(history, p.SpreadBps)
			if len(history) > s.cfg.Window {
				history = history[1:]
			}
			out = append(out, p)
		}
	}

	s.logger.Info("smoothing completed",
		slog.Int("points", len(out)),
		slog.Int("flagged", flagged),
		slog.Int("filled", filled))

	return out
}

// isOutlier judges a value against the trailing window. Dispersion is the
// mean absolute deviation around the median; when the window is flat
// (MAD = 0) the standard deviation around the mean decides instead.
func (s *Smoother) isOutlier(value float64, history []float64) bool {
	stats, err := WindowStats(history, s.cfg.MinObservations)
	if err != nil {
		return false // not enough history to judge
	}
	if stats.MAD > 0 {
		return math.Abs(value-stats.Median)/stats.MAD >= s.cfg.Threshold
	}
	if stats.StdDev > 0 {
		return math.Abs(value-stats.Mean)/stats.StdDev >= s.cfg.Threshold
	}
	return false
}

// fill applies the bounded forward fill to a missing or flagged point.
// It reports whether a value was carried forward.
func (s *Smoother) fill(p *SpreadPoint, lastValid float64, haveValid bool, fillsUsed *int) bool {
	if !haveValid || *fillsUsed >= s.cfg.MaxFill {
		p.SpreadBps = math.NaN()
		return false
	}
	p.SpreadBps = lastValid
	p.Filled = true
	*fillsUsed++
	return true
}

// BoundedForwardFill fills NaN gaps in a value series from the last non-NaN
// value, never across a gap longer than limit. Used when rebuilding the
// reference series from the published combined spreads.
func BoundedForwardFill(values []float64, limit int) []float64 {
	out := make([]float64, len(values))
	var last float64
	have := false
	used := 0

	for i, v := range values {
		if !math.IsNaN(v) {
			last = v
			have = true
			used = 0
			out[i] = v
			continue
		}
		if have && used < limit {
			out[i] = last
			used++
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
