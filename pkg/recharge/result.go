package recharge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hydrograph/recharge/pkg/crossval"
	"github.com/hydrograph/recharge/pkg/curvefit"
	"github.com/hydrograph/recharge/pkg/timeseries"
)

// CalculationResult is the immutable record one pipeline run produces. It
// carries everything needed to reconstruct every event, summary, and
// curve without re-running the engine. Seasonal curves are kept as a
// season-ordered slice so serialized output is stable across runs.
type CalculationResult struct {
	RunID      string     `json:"run_id" msgpack:"run_id"`
	Method     Method     `json:"method" msgpack:"method"`
	Parameters Parameters `json:"parameters" msgpack:"parameters"`

	Curve          *curvefit.MasterCurve  `json:"master_curve,omitempty" msgpack:"master_curve,omitempty"`
	SeasonalCurves []curvefit.MasterCurve `json:"seasonal_curves,omitempty" msgpack:"seasonal_curves,omitempty"`

	CrossValidation *crossval.Result `json:"cross_validation,omitempty" msgpack:"cross_validation,omitempty"`

	Events            []Event           `json:"events" msgpack:"events"`
	YearlySummaries   []YearlySummary   `json:"yearly_summaries" msgpack:"yearly_summaries"`
	SeasonalSummaries []SeasonalSummary `json:"seasonal_summaries,omitempty" msgpack:"seasonal_summaries,omitempty"`

	// SeasonalParameterCV is the recession-parameter variability across
	// seasonal curves; populated for multi-segment ERC runs.
	SeasonalParameterCV float64 `json:"seasonal_parameter_cv,omitempty" msgpack:"seasonal_parameter_cv,omitempty"`

	QualityScore float64  `json:"quality_score" msgpack:"quality_score"`
	Warnings     []string `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
}

// SeasonalCurveFor returns the seasonal curve matching the season, or
// false when none was fit for it.
func (r *CalculationResult) SeasonalCurveFor(season curvefit.Season) (curvefit.MasterCurve, bool) {
	for _, c := range r.SeasonalCurves {
		if c.Season == season {
			return c, true
		}
	}
	return curvefit.MasterCurve{}, false
}

// runID derives a deterministic identifier from the inputs, so identical
// invocations produce identical records.
func runID(series *timeseries.TimeSeries, p Parameters) string {
	canonical := fmt.Sprintf("%s|sy=%v|rt=%v|dt=%v|mrl=%v|ft=%v|pt=%v|lag=%v|ap=%v|ct=%s|deg=%d|cv=%s|k=%d|wy=%d-%d|ds=%s/%s|sw=%d/%s|qw=%v/%v/%v|span=%s/%s/%d",
		p.Method, p.SpecificYield, p.RiseThreshold, p.DeviationThreshold,
		p.MinRecessionLength, p.FluctuationTolerance, p.PrecipitationTolerance,
		p.PostPrecipitationLag, p.AntecedentPeriod, p.CurveType, p.PolynomialDegree,
		p.CrossValidation, p.CrossValidationK, p.WaterYearStart.Month, p.WaterYearStart.Day,
		p.Downsample, p.DownsampleMethod, p.SmoothingWindow, p.SmoothingMethod,
		p.QualityWeights.Magnitude, p.QualityWeights.Validation, p.QualityWeights.Season,
		series.Start().UTC().Format("2006-01-02T15:04:05.999999999"),
		series.End().UTC().Format("2006-01-02T15:04:05.999999999"),
		series.Len())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(canonical)).String()
}
