package treasury

import (
	"fmt"

	apperrors "tsfarb/internal/errors"
)

// BoundaryPolicy selects what interpolation does when the target maturity
// falls outside the curve's tenor range. The published methodology is silent
// here, so the policy is explicit and configurable.
type BoundaryPolicy int

const (
	// ClampToEndpoints returns the nearest endpoint rate outside the range.
	ClampToEndpoints BoundaryPolicy = iota
	// FailOutOfRange returns an error outside the range.
	FailOutOfRange
)

// ParseBoundaryPolicy converts the configuration token to a policy.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "clamp":
		return ClampToEndpoints, nil
	case "fail":
		return FailOutOfRange, nil
	default:
		return 0, fmt.Errorf("unknown boundary policy %q", s)
	}
}

// Interpolator estimates an OIS rate at an arbitrary maturity by linear
// interpolation between the two bracketing curve points.
type Interpolator struct {
	policy BoundaryPolicy
}

// NewInterpolator creates an interpolator with the given boundary policy.
func NewInterpolator(policy BoundaryPolicy) *Interpolator {
	return &Interpolator{policy: policy}
}

// Rate returns the interpolated rate at the target maturity in days.
//
// A target exactly at a knot returns that knot's rate unchanged. Between two
// knots the rate is the tenor-distance weighted average, so it never
// overshoots the bracketing rates. Outside the tenor range the configured
// boundary policy applies.
func (ip *Interpolator) Rate(curve Curve, targetDays int) (float64, error) {
	points := curve.Points
	if len(points) == 0 {
		return 0, apperrors.NewAppError(apperrors.ErrTypeWindow,
			fmt.Sprintf("empty OIS curve for %s", DateKey(curve.Date)), nil)
	}

	lo, hi := points[0], points[len(points)-1]

	if targetDays <= lo.TenorDays {
		if targetDays == lo.TenorDays {
			return lo.Rate, nil
		}
		return ip.boundary(lo.Rate, targetDays, lo.TenorDays, hi.TenorDays)
	}
	if targetDays >= hi.TenorDays {
		if targetDays == hi.TenorDays {
			return hi.Rate, nil
		}
		return ip.boundary(hi.Rate, targetDays, lo.TenorDays, hi.TenorDays)
	}

	for i := 1; i < len(points); i++ {
		left, right := points[i-1], points[i]
		if targetDays == right.TenorDays {
			return right.Rate, nil
		}
		if targetDays < right.TenorDays {
			span := float64(right.TenorDays - left.TenorDays)
			wRight := float64(targetDays-left.TenorDays) / span
			return (1-wRight)*left.Rate + wRight*right.Rate, nil
		}
	}

	// Unreachable: the bracketing loop covers (lo, hi).
	return 0, apperrors.NewOutOfRangeError(targetDays, lo.TenorDays, hi.TenorDays)
}

func (ip *Interpolator) boundary(endpointRate float64, targetDays, minDays, maxDays int) (float64, error) {
	if ip.policy == FailOutOfRange {
		return 0, apperrors.NewOutOfRangeError(targetDays, minDays, maxDays)
	}
	return endpointRate, nil
}
