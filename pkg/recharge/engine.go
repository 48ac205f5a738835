package recharge

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hydrograph/recharge/internal/log"
	"github.com/hydrograph/recharge/pkg/crossval"
	"github.com/hydrograph/recharge/pkg/curvefit"
	"github.com/hydrograph/recharge/pkg/recession"
	"github.com/hydrograph/recharge/pkg/timeseries"
)

// seasonalBaseType is the curve type fitted per season when the caller
// requests multi-segment fitting; folds and seasons pool log-linear data,
// so the exponential form is the one that composes.
const seasonalBaseType = curvefit.Exponential

// Engine runs the recharge pipeline. It holds no per-run state; a single
// Engine may serve any number of concurrent Run calls.
type Engine struct {
	logger *zap.SugaredLogger
}

// New creates an engine. A nil logger falls back to the package-level
// default.
func New(logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = log.GetSugaredLogger()
	}
	return &Engine{logger: logger}
}

// Run executes the full pipeline over one series and returns the
// assembled result. The series and parameters are not mutated; identical
// inputs yield identical results. Fatal conditions (empty series, too few
// segments, out-of-range parameters) return an error and no partial
// result; degraded-quality conditions return a result carrying warnings.
func (e *Engine) Run(series *timeseries.TimeSeries, p Parameters) (*CalculationResult, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	processed, err := timeseries.Preprocess(series, timeseries.Options{
		Rule:            p.Downsample,
		Method:          p.DownsampleMethod,
		SmoothingWindow: p.SmoothingWindow,
		SmoothingMethod: p.SmoothingMethod,
		WaterYearStart:  p.WaterYearStart,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debugf("preprocessed series: %d readings spanning %.1f days", processed.Len(), processed.SpanDays())

	result := &CalculationResult{
		RunID:      runID(series, p),
		Method:     p.Method,
		Parameters: p,
	}

	if p.Method == RISE {
		e.runRISE(processed, p, result)
		return result, nil
	}
	if err := e.runCurveMethod(processed, p, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) runRISE(ts *timeseries.TimeSeries, p Parameters, result *CalculationResult) {
	events, meanFitRsq := detectRISE(ts, p)
	e.logger.Debugf("RISE: %d events, mean antecedent-fit R²=%.3f", len(events), meanFitRsq)

	result.Events = events
	result.YearlySummaries = summarizeByYear(events)
	result.QualityScore = clamp01(meanFitRsq)
	if len(events) == 0 {
		result.Warnings = append(result.Warnings, "no rises exceeded the threshold; zero events detected")
	}
}

func (e *Engine) runCurveMethod(ts *timeseries.TimeSeries, p Parameters, result *CalculationResult) error {
	segments := recession.Identify(ts, recession.Config{
		MinLengthDays:        p.MinRecessionLength,
		FluctuationTolerance: p.FluctuationTolerance,
		PrecipTolerance:      p.PrecipitationTolerance,
		PostPrecipLagDays:    p.PostPrecipitationLag,
	})
	e.logger.Debugf("%s: identified %d recession segments", p.Method, len(segments))

	// A series too short to host any qualifying segment is a valid,
	// low-confidence outcome rather than a failure.
	if len(segments) == 0 && ts.SpanDays() < p.MinRecessionLength {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("series spans %.1f days, shorter than the %.0f-day minimum recession length; no segments identified (low confidence)",
				ts.SpanDays(), p.MinRecessionLength))
		return nil
	}

	curveFor, fullRsq, err := e.fitCurves(segments, p, result)
	if err != nil {
		return err
	}

	if p.Method == ERC {
		e.crossValidate(segments, p, fullRsq, result)
	}

	ds := detectDeviations(ts, segments, curveFor, p)
	if p.Method == ERC {
		scoreEvents(ds, p, result.CrossValidation, segmentSeasonCounts(segments))
	}
	events := eventsOf(ds)
	e.logger.Debugf("%s: %d deviation events above %.3f ft", p.Method, len(events), p.DeviationThreshold)

	result.Events = events
	result.YearlySummaries = summarizeByYear(events)
	if p.Method == ERC {
		result.SeasonalSummaries = summarizeBySeason(events)
		result.SeasonalParameterCV = seasonalParameterCV(result.SeasonalCurves)
		result.QualityScore = overallQuality(fullRsq, result.CrossValidation, events)
	} else {
		result.QualityScore = clamp01(fullRsq)
	}
	return nil
}

// fitCurves fits either the single master curve or the per-season curves
// and returns the selector event detection will use, plus the full-data
// R² that feeds the quality score.
func (e *Engine) fitCurves(segments []recession.Segment, p Parameters, result *CalculationResult) (curveSelector, float64, error) {
	if p.CurveType != curvefit.MultiSegment {
		curve, err := curvefit.Fit(segments, p.CurveType, p.PolynomialDegree)
		if err != nil {
			return nil, 0, err
		}
		e.logger.Debugf("fit %s curve: R²=%.4f over %d points", curve.Type, curve.RSquared, curve.PointCount)
		result.Curve = &curve
		return func(time.Time) curvefit.MasterCurve { return curve }, curve.RSquared, nil
	}

	curves, warnings, err := curvefit.FitSeasonal(segments, seasonalBaseType, p.PolynomialDegree)
	if err != nil {
		return nil, 0, err
	}
	result.SeasonalCurves = curves
	result.Warnings = append(result.Warnings, warnings...)

	// Weight the aggregate R² by segment count; fall back to the
	// best-supported season when a reading's own season has no curve.
	var rsqSum float64
	var segSum int
	fallback := curves[0]
	for _, c := range curves {
		rsqSum += c.RSquared * float64(c.SegmentCount)
		segSum += c.SegmentCount
		if c.SegmentCount > fallback.SegmentCount {
			fallback = c
		}
	}
	fullRsq := rsqSum / float64(segSum)
	e.logger.Debugf("fit %d seasonal curves: weighted R²=%.4f", len(curves), fullRsq)

	selector := func(at time.Time) curvefit.MasterCurve {
		season := curvefit.SeasonOf(at)
		for _, c := range curves {
			if c.Season == season {
				return c
			}
		}
		return fallback
	}
	return selector, fullRsq, nil
}

// crossValidate runs ERC cross-validation. A failure is a degraded-quality
// outcome, not a fatal one: the result carries a warning instead.
func (e *Engine) crossValidate(segments []recession.Segment, p Parameters, fullRsq float64, result *CalculationResult) {
	method := p.CrossValidation
	cvType := p.CurveType
	if cvType == curvefit.MultiSegment {
		cvType = seasonalBaseType
	}

	cv, err := crossval.Validate(segments, cvType, p.PolynomialDegree, method, p.CrossValidationK)
	if err != nil {
		e.logger.Warnf("cross-validation skipped: %v", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("cross-validation skipped: %v", err))
		return
	}
	e.logger.Debugf("cross-validation (%s): mean R²=%.4f over %d folds", method, cv.MeanRSquared, len(cv.FoldRSquared))

	result.CrossValidation = &cv
	if cv.SkippedFolds > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cross-validation skipped %d under-populated fold(s)", cv.SkippedFolds))
	}
	if cv.MeanRSquared < fullRsq-0.1 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("cross-validation R² (%.3f) is more than 0.1 below the full-data fit (%.3f); the curve may not generalize", cv.MeanRSquared, fullRsq))
	}
}
