// Package treasury implements the Treasury spot-futures arbitrage spread
// pipeline: loading the futures, OIS, and last-trading-day tables, resolving
// contract maturities, interpolating OIS rates, computing the spread in basis
// points per maturity bucket, smoothing outliers with a bounded forward fill,
// and persisting the wide-format series with summary statistics.
//
// The pipeline is a synchronous batch: Loader → Resolver → Interpolator →
// Calculator → Smoother → Writer. All tables are read-only after loading.
package treasury
