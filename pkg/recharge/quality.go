package recharge

import (
	"math"

	"github.com/hydrograph/recharge/pkg/crossval"
	"github.com/hydrograph/recharge/pkg/curvefit"
	"github.com/hydrograph/recharge/pkg/recession"
)

// QualityWeights is the linear combination behind the ERC per-event
// quality score. The three factors are deviation magnitude relative to
// the threshold, agreement between the master and cross-validated curves,
// and seasonal plausibility of the event's timing. Weights are normalized
// by their sum before use, so only their ratios matter. The exact vector
// is a tunable convention, not a derived quantity.
type QualityWeights struct {
	Magnitude  float64 `json:"magnitude" msgpack:"magnitude"`
	Validation float64 `json:"validation" msgpack:"validation"`
	Season     float64 `json:"season" msgpack:"season"`
}

// DefaultQualityWeights returns the 0.5/0.3/0.2 convention.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{Magnitude: 0.5, Validation: 0.3, Season: 0.2}
}

func (w QualityWeights) sum() float64 { return w.Magnitude + w.Validation + w.Season }

// neutralScore is used for a factor that cannot be computed (no
// cross-validation result, no seasonal history).
const neutralScore = 0.5

// scoreEvents assigns each detected event a quality score in [0,1].
// Every factor is computed from outputs already produced upstream; no
// event is scored against data from later in the pipeline.
func scoreEvents(ds []detected, p Parameters, cv *crossval.Result, seasonCounts map[curvefit.Season]int) {
	weights := p.QualityWeights
	if weights.sum() <= 0 {
		weights = DefaultQualityWeights()
	}

	maxSeason := 0
	for _, c := range seasonCounts {
		if c > maxSeason {
			maxSeason = c
		}
	}

	for i := range ds {
		d := &ds[i]

		// Deviation magnitude relative to the threshold, saturating
		// toward 1 as the deviation grows past it.
		ratio := d.event.Deviation / p.threshold()
		magnitude := clamp01(1 - math.Exp(-(ratio - 1)))

		// Agreement between the master-curve prediction and the
		// cross-validated curve's prediction at the same anchor.
		validation := neutralScore
		if cv != nil && len(cv.MeanParameters) > 0 {
			vPred := predictLevel(cv.ValidationCurve(), d.anchorLevel, d.tDays)
			residual := math.Abs(d.event.BaselineLevel - vPred)
			// A zero threshold gives the relative scale nothing to
			// divide by; score the residual on an absolute 1 ft scale.
			scale := p.threshold()
			if scale <= 0 {
				scale = 1
			}
			validation = clamp01(1 / (1 + residual/scale))
		}

		// Seasonal plausibility: how well-represented the event's season
		// is among the identified recession segments.
		season := neutralScore
		if maxSeason > 0 {
			season = float64(seasonCounts[curvefit.SeasonOf(d.event.Date)]) / float64(maxSeason)
		}

		d.event.QualityScore = clamp01((weights.Magnitude*magnitude +
			weights.Validation*validation +
			weights.Season*season) / weights.sum())
	}
}

// segmentSeasonCounts tallies identified segments by the season they
// began in; the tally is the "historical seasonal distribution" behind
// the seasonal-plausibility factor.
func segmentSeasonCounts(segments []recession.Segment) map[curvefit.Season]int {
	counts := make(map[curvefit.Season]int)
	for _, seg := range segments {
		counts[curvefit.SeasonOf(seg.Start)]++
	}
	return counts
}

// overallQuality combines the master-curve fit, the cross-validation
// score, and the mean per-event quality with fixed 0.4/0.3/0.3 weights,
// renormalized over whichever components exist.
func overallQuality(curveRsq float64, cv *crossval.Result, events []Event) float64 {
	type component struct {
		value  float64
		weight float64
	}
	components := []component{{clamp01(curveRsq), 0.4}}
	if cv != nil {
		components = append(components, component{clamp01(cv.MeanRSquared), 0.3})
	}
	if len(events) > 0 {
		sum := 0.0
		for _, e := range events {
			sum += e.QualityScore
		}
		components = append(components, component{sum / float64(len(events)), 0.3})
	}

	var weighted, total float64
	for _, c := range components {
		weighted += c.value * c.weight
		total += c.weight
	}
	return clamp01(weighted / total)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
