// Package curvefit fits master recession curves to pooled recession
// segments and evaluates them as no-recharge baselines.
package curvefit

import (
	"fmt"
	"math"
	"time"
)

// CurveType selects the model fitted to pooled segment data.
type CurveType string

const (
	Exponential  CurveType = "exponential"
	Power        CurveType = "power"
	Linear       CurveType = "linear"
	Polynomial   CurveType = "polynomial"
	MultiSegment CurveType = "multi_segment"
)

// Valid reports whether t is a known curve type.
func (t CurveType) Valid() bool {
	switch t {
	case Exponential, Power, Linear, Polynomial, MultiSegment:
		return true
	}
	return false
}

// powerEpsilon keeps the power-law transform defined at t=0.
const powerEpsilon = 0.001

// Season partitions the year for multi-segment fitting.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// Seasons returns all seasons in their fixed, deterministic order.
func Seasons() []Season { return []Season{Winter, Spring, Summer, Fall} }

// SeasonOf maps a timestamp to its meteorological season.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Fall
	}
}

// MasterCurve is an immutable fitted recession model. Parameters depend on
// the type: exponential is [L0, a] for L0·e^(−a·t); power is [L0, b] for
// L0·(t+ε)^(−b); linear is [intercept, slope] of ln(level) vs t;
// polynomial is ascending coefficients [c0, c1, …]. Season is set only on
// curves produced by seasonal (multi-segment) fitting.
type MasterCurve struct {
	Type         CurveType `json:"curve_type" msgpack:"curve_type"`
	Parameters   []float64 `json:"parameters" msgpack:"parameters"`
	RSquared     float64   `json:"r_squared" msgpack:"r_squared"`
	RMSE         float64   `json:"rmse" msgpack:"rmse"`
	SegmentCount int       `json:"segment_count" msgpack:"segment_count"`
	PointCount   int       `json:"point_count" msgpack:"point_count"`
	Season       Season    `json:"season,omitempty" msgpack:"season,omitempty"`
}

// Evaluate returns the curve's level at t days since recession onset.
func (c MasterCurve) Evaluate(t float64) float64 {
	switch c.Type {
	case Exponential:
		return c.Parameters[0] * math.Exp(-c.Parameters[1]*t)
	case Power:
		return c.Parameters[0] * math.Pow(t+powerEpsilon, -c.Parameters[1])
	case Linear:
		return math.Exp(c.Parameters[0] + c.Parameters[1]*t)
	case Polynomial:
		level := 0.0
		for i, coeff := range c.Parameters {
			level += coeff * math.Pow(t, float64(i))
		}
		return level
	}
	return math.NaN()
}

// InsufficientSegmentsError reports too few recession segments for a
// meaningful fit. The run should be retried with relaxed tolerances.
type InsufficientSegmentsError struct {
	Found    int
	Required int
}

func (e *InsufficientSegmentsError) Error() string {
	return fmt.Sprintf("curve fitting requires at least %d recession segments, found %d", e.Required, e.Found)
}
