package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Calculator computes the arbitrage spread series: the futures-implied
// risk-free rate minus the maturity-matched OIS rate, per (date, bucket).
type Calculator struct {
	resolver *Resolver
	interp   *Interpolator
	logger   *slog.Logger
}

// NewCalculator wires the resolver and interpolator into a calculator.
func NewCalculator(resolver *Resolver, interp *Interpolator, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{resolver: resolver, interp: interp, logger: logger}
}

var bpsFactor = decimal.NewFromInt(10000)

// SpreadBps returns (implied − ois) expressed in basis points. Both inputs
// are decimal-fraction rates. The subtraction runs on exact decimals so
// quoted rates like 2.10% vs 2.25% produce -15.00 rather than a float
// artifact of it.
func SpreadBps(implied, ois float64) float64 {
	if math.IsNaN(implied) || math.IsNaN(ois) {
		return math.NaN()
	}
	d := decimal.NewFromFloat(implied).Sub(decimal.NewFromFloat(ois)).Mul(bpsFactor)
	f, _ := d.Float64()
	return f
}

// ImpliedRepoRate annualizes the return of buying the deliverable bond and
// selling the futures, on an actual/360 day count: (invoice/purchase − 1) ×
// 360/days. Used when the input does not carry precomputed implied repo
// columns. Missing prices (NaN) propagate to a missing rate.
func ImpliedRepoRate(purchasePrice, invoicePrice float64, days int) float64 {
	if math.IsNaN(purchasePrice) || math.IsNaN(invoicePrice) || purchasePrice <= 0 || days <= 0 {
		return math.NaN()
	}
	gross := decimal.NewFromFloat(invoicePrice).
		Div(decimal.NewFromFloat(purchasePrice)).
		Sub(decimal.NewFromInt(1))
	annualized := gross.Mul(decimal.NewFromInt(360)).Div(decimal.NewFromInt(int64(days)))
	f, _ := annualized.Float64()
	return f
}

// Compute produces one SpreadPoint per deferred contract observation.
//
// For every record the contract is resolved to its maturity date, the OIS
// curve for the observation date is interpolated at that maturity, and the
// spread is taken in basis points. An unresolved contract aborts the run with
// its identifying key; a date with no OIS curve yields a missing (NaN) point
// so the series keeps its calendar shape for the smoother.
//
// Records without deferred-contract volume are dropped, matching the
// published series construction. The result is sorted by bucket then date.
func (c *Calculator) Compute(ctx context.Context, records []ContractRecord, curves map[string]Curve) ([]SpreadPoint, error) {
	c.logger.InfoContext(ctx, "computing arbitrage spreads",
		slog.Int("records", len(records)),
		slog.Int("curve_dates", len(curves)))

	points := make([]SpreadPoint, 0, len(records))
	missingCurves := 0

	for _, rec := range records {
		if !rec.Deferred {
			continue
		}
		if !rec.HasVolume() {
			continue
		}

		maturity, err := c.resolver.Resolve(rec.Contract)
		if err != nil {
			return nil, fmt.Errorf("resolve contract %q observed %s: %w",
				rec.Contract, DateKey(rec.Date), err)
		}
		ttm := TTMDays(rec.Date, maturity)

		point := SpreadPoint{
			Date:        rec.Date,
			Bucket:      rec.Bucket,
			ImpliedRate: rec.ImpliedRepo * 100,
			TTMDays:     ttm,
		}

		curve, ok := curves[DateKey(rec.Date)]
		if !ok {
			missingCurves++
			point.SpreadBps = math.NaN()
			point.OISRate = math.NaN()
			points = append(points, point)
			continue
		}

		ois, err := c.interp.Rate(curve, ttm)
		if err != nil {
			return nil, fmt.Errorf("interpolate OIS for %s bucket %s ttm %dd: %w",
				DateKey(rec.Date), rec.Bucket, ttm, err)
		}

		point.OISRate = ois * 100
		point.SpreadBps = SpreadBps(rec.ImpliedRepo, ois)
		points = append(points, point)
	}

	if missingCurves > 0 {
		c.logger.WarnContext(ctx, "observations without an OIS curve kept as missing",
			slog.Int("count", missingCurves))
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Bucket != points[j].Bucket {
			return points[i].Bucket < points[j].Bucket
		}
		return points[i].Date.Before(points[j].Date)
	})

	c.logger.InfoContext(ctx, "spread computation completed",
		slog.Int("points", len(points)))

	return points, nil
}
