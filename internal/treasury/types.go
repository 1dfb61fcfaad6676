package treasury

import (
	"fmt"
	"math"
	"time"
)

// Bucket represents one of the Treasury futures tenor groups tracked as a
// separate series.
type Bucket int

const (
	Bucket2Y  Bucket = 2
	Bucket5Y  Bucket = 5
	Bucket10Y Bucket = 10
	Bucket20Y Bucket = 20
	Bucket30Y Bucket = 30
)

// Buckets returns all tracked maturity buckets in ascending tenor order.
func Buckets() []Bucket {
	return []Bucket{Bucket2Y, Bucket5Y, Bucket10Y, Bucket20Y, Bucket30Y}
}

// String returns the bucket label used in output column names and reports.
func (b Bucket) String() string {
	return fmt.Sprintf("%dY", int(b))
}

// Years returns the bucket tenor in years.
func (b Bucket) Years() int {
	return int(b)
}

// ParseBucket converts a tenor token ("2", "2Y", "02Y") to a Bucket.
func ParseBucket(s string) (Bucket, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("unrecognized tenor bucket %q", s)
	}
	for _, b := range Buckets() {
		if int(b) == n {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unrecognized tenor bucket %q", s)
}

// ContractRecord is a single futures contract observation. Records are
// immutable once parsed from input and keyed by (date, bucket, contract).
type ContractRecord struct {
	Date        time.Time
	Bucket      Bucket
	Contract    string  // delivery month code, e.g. "DEC 21" or "TUH24"
	Price       float64 // futures price
	ImpliedRepo float64 // futures-implied risk-free rate, decimal fraction
	Volume      float64 // trading volume; NaN when the input had no volume
	Deferred    bool    // second (deferred) contract in the pair
}

// HasVolume reports whether the observation carried a volume figure at all.
// The published series keeps deferred contracts with any recorded volume,
// zero included; only a missing volume cell drops the observation.
func (r ContractRecord) HasVolume() bool {
	return !math.IsNaN(r.Volume)
}

// MaturityKey identifies a futures delivery month.
type MaturityKey struct {
	Month time.Month
	Year  int
}

// CurvePoint is a single (tenor, rate) pair on an OIS curve. Rates are
// decimal fractions.
type CurvePoint struct {
	TenorDays int
	Rate      float64
}

// Curve holds the OIS curve points observed on a single date, sorted by
// ascending tenor.
type Curve struct {
	Date   time.Time
	Points []CurvePoint
}

// Standard OIS tenor grid of the input data, in days.
const (
	Tenor1W = 7
	Tenor1M = 30
	Tenor3M = 90
	Tenor6M = 180
	Tenor1Y = 360
)

// NewOISCurve builds a curve on the standard 1W/1M/3M/6M/1Y grid.
func NewOISCurve(date time.Time, r1w, r1m, r3m, r6m, r1y float64) Curve {
	return Curve{
		Date: date,
		Points: []CurvePoint{
			{TenorDays: Tenor1W, Rate: r1w},
			{TenorDays: Tenor1M, Rate: r1m},
			{TenorDays: Tenor3M, Rate: r3m},
			{TenorDays: Tenor6M, Rate: r6m},
			{TenorDays: Tenor1Y, Rate: r1y},
		},
	}
}

// SpreadPoint is one observation of the output series: the futures-implied
// risk-free rate versus OIS for a (date, bucket) pair. Missing values are
// represented as NaN.
type SpreadPoint struct {
	Date        time.Time
	Bucket      Bucket
	SpreadBps   float64 // implied repo minus OIS, basis points
	ImpliedRate float64 // futures-implied rate, percent
	OISRate     float64 // interpolated OIS rate, percent
	TTMDays     int     // days to contract maturity
	Flagged     bool    // marked as an outlier by the smoother
	Filled      bool    // value carried forward from the last genuine observation
}

// Missing reports whether the point carries no usable spread value.
func (p SpreadPoint) Missing() bool {
	return math.IsNaN(p.SpreadBps)
}

// DateKey is the canonical string form used to key tables by date.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
