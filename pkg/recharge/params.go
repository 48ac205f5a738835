// Package recharge runs the full recharge-estimation pipeline: it wires
// preprocessing, segment identification, curve fitting, cross-validation,
// event detection, and aggregation into a single CalculationResult.
package recharge

import (
	"fmt"

	"github.com/hydrograph/recharge/pkg/crossval"
	"github.com/hydrograph/recharge/pkg/curvefit"
	"github.com/hydrograph/recharge/pkg/timeseries"
)

// Method selects the recharge-estimation algorithm.
type Method string

const (
	// RISE compares each reading to an extrapolated antecedent recession.
	RISE Method = "RISE"
	// MRC compares readings to a master recession curve.
	MRC Method = "MRC"
	// ERC extends MRC with cross-validation and seasonal analysis.
	ERC Method = "ERC"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case RISE, MRC, ERC:
		return true
	}
	return false
}

// ValidationError reports an out-of-range parameter.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// Parameters is the full per-invocation parameter set. Zero values are
// filled from Defaults by Engine.Run for optional fields; required fields
// (SpecificYield, thresholds) are checked by Validate.
type Parameters struct {
	Method Method `json:"method" msgpack:"method"`

	// SpecificYield converts a water-level change (ft) to recharge depth.
	SpecificYield float64 `json:"specific_yield" msgpack:"specific_yield"`

	// RiseThreshold is the minimum rise (ft) above the antecedent
	// baseline that counts as a RISE event.
	RiseThreshold float64 `json:"rise_threshold,omitempty" msgpack:"rise_threshold,omitempty"`

	// DeviationThreshold is the minimum deviation (ft) above the master
	// curve that counts as an MRC/ERC event.
	DeviationThreshold float64 `json:"deviation_threshold,omitempty" msgpack:"deviation_threshold,omitempty"`

	MinRecessionLength     float64 `json:"min_recession_length" msgpack:"min_recession_length"`
	FluctuationTolerance   float64 `json:"fluctuation_tolerance" msgpack:"fluctuation_tolerance"`
	PrecipitationTolerance float64 `json:"precipitation_tolerance" msgpack:"precipitation_tolerance"`
	PostPrecipitationLag   float64 `json:"post_precipitation_lag" msgpack:"post_precipitation_lag"`

	// AntecedentPeriod is the trailing window (days) for RISE baselines.
	AntecedentPeriod float64 `json:"antecedent_period,omitempty" msgpack:"antecedent_period,omitempty"`

	CurveType        curvefit.CurveType `json:"curve_type,omitempty" msgpack:"curve_type,omitempty"`
	PolynomialDegree int                `json:"polynomial_degree,omitempty" msgpack:"polynomial_degree,omitempty"`

	CrossValidation  crossval.Method `json:"cross_validation_method,omitempty" msgpack:"cross_validation_method,omitempty"`
	CrossValidationK int             `json:"cross_validation_k,omitempty" msgpack:"cross_validation_k,omitempty"`

	WaterYearStart timeseries.WaterYearStart `json:"water_year_start" msgpack:"water_year_start"`

	Downsample       timeseries.ResampleRule    `json:"downsample_rule,omitempty" msgpack:"downsample_rule,omitempty"`
	DownsampleMethod timeseries.AggregateMethod `json:"downsample_method,omitempty" msgpack:"downsample_method,omitempty"`
	SmoothingWindow  int                        `json:"smoothing_window,omitempty" msgpack:"smoothing_window,omitempty"`
	SmoothingMethod  timeseries.SmoothingMethod `json:"smoothing_method,omitempty" msgpack:"smoothing_method,omitempty"`

	// QualityWeights tunes the ERC per-event quality combination.
	QualityWeights QualityWeights `json:"quality_weights" msgpack:"quality_weights"`
}

// Defaults returns conventional parameters for the given method.
func Defaults(method Method) Parameters {
	return Parameters{
		Method:                 method,
		SpecificYield:          0.2,
		RiseThreshold:          0.1,
		DeviationThreshold:     0.1,
		MinRecessionLength:     10,
		FluctuationTolerance:   0.05,
		PrecipitationTolerance: 0.05,
		PostPrecipitationLag:   2,
		AntecedentPeriod:       10,
		CurveType:              curvefit.Exponential,
		PolynomialDegree:       2,
		CrossValidation:        crossval.KFold,
		CrossValidationK:       crossval.DefaultK,
		WaterYearStart:         timeseries.DefaultWaterYearStart(),
		QualityWeights:         DefaultQualityWeights(),
	}
}

// withDefaults fills zero-valued optional fields from Defaults, leaving
// everything the caller set alone. Required fields (SpecificYield, the
// segment-identification settings) are never filled; a zero there is a
// caller mistake Validate reports.
func (p Parameters) withDefaults() Parameters {
	d := Defaults(p.Method)
	if (p.WaterYearStart == timeseries.WaterYearStart{}) {
		p.WaterYearStart = d.WaterYearStart
	}
	if p.AntecedentPeriod == 0 {
		p.AntecedentPeriod = d.AntecedentPeriod
	}
	if p.CurveType == "" {
		p.CurveType = d.CurveType
	}
	if p.PolynomialDegree == 0 {
		p.PolynomialDegree = d.PolynomialDegree
	}
	if p.CrossValidation == "" {
		p.CrossValidation = d.CrossValidation
	}
	if p.CrossValidationK == 0 {
		p.CrossValidationK = d.CrossValidationK
	}
	if (p.QualityWeights == QualityWeights{}) {
		p.QualityWeights = d.QualityWeights
	}
	return p
}

// Validate checks the parameter set against its allowed ranges. All
// violations are fatal; the first one found is returned.
func (p Parameters) Validate() error {
	if !p.Method.Valid() {
		return &ValidationError{Param: "method", Reason: fmt.Sprintf("unknown method %q", p.Method)}
	}
	if p.SpecificYield <= 0 || p.SpecificYield > 1 {
		return &ValidationError{Param: "specific_yield", Reason: fmt.Sprintf("must be in (0, 1], got %v", p.SpecificYield)}
	}
	if p.RiseThreshold < 0 {
		return &ValidationError{Param: "rise_threshold", Reason: "must not be negative"}
	}
	if p.DeviationThreshold < 0 {
		return &ValidationError{Param: "deviation_threshold", Reason: "must not be negative"}
	}
	if p.MinRecessionLength <= 0 {
		return &ValidationError{Param: "min_recession_length", Reason: "must be positive"}
	}
	if p.FluctuationTolerance < 0 {
		return &ValidationError{Param: "fluctuation_tolerance", Reason: "must not be negative"}
	}
	if p.PrecipitationTolerance < 0 {
		return &ValidationError{Param: "precipitation_tolerance", Reason: "must not be negative"}
	}
	if p.PostPrecipitationLag < 0 {
		return &ValidationError{Param: "post_precipitation_lag", Reason: "must not be negative"}
	}
	if p.Method == RISE && p.AntecedentPeriod <= 0 {
		return &ValidationError{Param: "antecedent_period", Reason: "must be positive for RISE"}
	}
	if p.Method != RISE {
		if !p.CurveType.Valid() {
			return &ValidationError{Param: "curve_type", Reason: fmt.Sprintf("unknown curve type %q", p.CurveType)}
		}
		if p.CurveType == curvefit.Polynomial && (p.PolynomialDegree < 2 || p.PolynomialDegree > 4) {
			return &ValidationError{Param: "polynomial_degree", Reason: "must be between 2 and 4"}
		}
	}
	if p.Method == ERC && p.CrossValidation != "" && !p.CrossValidation.Valid() {
		return &ValidationError{Param: "cross_validation_method", Reason: fmt.Sprintf("unknown method %q", p.CrossValidation)}
	}
	if p.SmoothingWindow < 0 {
		return &ValidationError{Param: "smoothing_window", Reason: "must not be negative"}
	}
	if p.SmoothingMethod != "" && !p.SmoothingMethod.Valid() {
		return &ValidationError{Param: "smoothing_method", Reason: fmt.Sprintf("unknown method %q", p.SmoothingMethod)}
	}
	if !p.WaterYearStart.Valid() {
		return &ValidationError{Param: "water_year_start", Reason: "month/day does not name a calendar date"}
	}
	if w := p.QualityWeights; w.Magnitude < 0 || w.Validation < 0 || w.Season < 0 {
		return &ValidationError{Param: "quality_weights", Reason: "weights must not be negative"}
	}
	return nil
}

// threshold returns the event threshold relevant to the method.
func (p Parameters) threshold() float64 {
	if p.Method == RISE {
		return p.RiseThreshold
	}
	return p.DeviationThreshold
}
