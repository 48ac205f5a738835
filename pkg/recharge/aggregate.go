package recharge

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hydrograph/recharge/pkg/curvefit"
)

// YearlySummary totals the events of one water year. Derived from the
// event set; recomputed whenever the events change.
type YearlySummary struct {
	WaterYear     int     `json:"water_year" msgpack:"water_year"`
	TotalRecharge float64 `json:"total_recharge" msgpack:"total_recharge"`
	EventCount    int     `json:"event_count" msgpack:"event_count"`
	MaxDeviation  float64 `json:"max_deviation" msgpack:"max_deviation"`
	AvgDeviation  float64 `json:"avg_deviation" msgpack:"avg_deviation"`
}

// SeasonalSummary totals the events of one season across all years.
type SeasonalSummary struct {
	Season        curvefit.Season `json:"season" msgpack:"season"`
	TotalRecharge float64         `json:"total_recharge" msgpack:"total_recharge"`
	EventCount    int             `json:"event_count" msgpack:"event_count"`
}

// summarizeByYear groups events into water-year summaries, ordered by
// year.
func summarizeByYear(events []Event) []YearlySummary {
	byYear := make(map[int]*YearlySummary)
	for _, e := range events {
		s := byYear[e.WaterYear]
		if s == nil {
			s = &YearlySummary{WaterYear: e.WaterYear}
			byYear[e.WaterYear] = s
		}
		s.TotalRecharge += e.RechargeInches
		s.EventCount++
		s.AvgDeviation += e.Deviation
		if e.Deviation > s.MaxDeviation {
			s.MaxDeviation = e.Deviation
		}
	}

	summaries := make([]YearlySummary, 0, len(byYear))
	for _, s := range byYear {
		s.AvgDeviation /= float64(s.EventCount)
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].WaterYear < summaries[j].WaterYear })
	return summaries
}

// summarizeBySeason groups events into per-season totals in the fixed
// season order, omitting empty seasons.
func summarizeBySeason(events []Event) []SeasonalSummary {
	totals := make(map[curvefit.Season]*SeasonalSummary)
	for _, e := range events {
		season := curvefit.SeasonOf(e.Date)
		s := totals[season]
		if s == nil {
			s = &SeasonalSummary{Season: season}
			totals[season] = s
		}
		s.TotalRecharge += e.RechargeInches
		s.EventCount++
	}

	var summaries []SeasonalSummary
	for _, season := range curvefit.Seasons() {
		if s := totals[season]; s != nil {
			summaries = append(summaries, *s)
		}
	}
	return summaries
}

// seasonalParameterCV measures recession-parameter variability across
// seasonal curves: the coefficient of variation of each parameter index,
// averaged. Zero when fewer than two curves exist.
func seasonalParameterCV(curves []curvefit.MasterCurve) float64 {
	if len(curves) < 2 {
		return 0
	}
	nParams := len(curves[0].Parameters)
	values := make([]float64, len(curves))

	var cvSum float64
	var cvCount int
	for j := 0; j < nParams; j++ {
		for i, c := range curves {
			values[i] = c.Parameters[j]
		}
		mean := stat.Mean(values, nil)
		if mean == 0 {
			continue
		}
		cvSum += stat.StdDev(values, nil) / math.Abs(mean)
		cvCount++
	}
	if cvCount == 0 {
		return 0
	}
	return cvSum / float64(cvCount)
}
