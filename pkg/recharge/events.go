package recharge

import (
	"time"

	"github.com/hydrograph/recharge/pkg/curvefit"
	"github.com/hydrograph/recharge/pkg/recession"
	"github.com/hydrograph/recharge/pkg/timeseries"
)

// inchesPerFoot converts a water-level change in feet to inches of
// recharge once scaled by specific yield.
const inchesPerFoot = 12.0

// Event is one detected recharge event. BaselineLevel is the antecedent
// baseline (RISE) or the master-curve prediction (MRC/ERC); Deviation is
// the observed level minus that baseline. QualityScore is populated for
// ERC runs only.
type Event struct {
	Date           time.Time `json:"event_date" msgpack:"date"`
	WaterYear      int       `json:"water_year" msgpack:"water_year"`
	ObservedLevel  float64   `json:"observed_level" msgpack:"observed"`
	BaselineLevel  float64   `json:"predicted_or_baseline_level" msgpack:"baseline"`
	Deviation      float64   `json:"deviation" msgpack:"deviation"`
	RechargeInches float64   `json:"recharge_value" msgpack:"recharge"`
	QualityScore   float64   `json:"quality_score,omitempty" msgpack:"quality,omitempty"`
}

// detected pairs an event with the anchoring context that produced it,
// which quality scoring needs to re-evaluate alternative curves.
type detected struct {
	event       Event
	anchorLevel float64
	tDays       float64
}

// detectRISE scans every reading, extrapolates the trailing recession,
// and records an event wherever the rise above it exceeds the threshold.
// The second return is the mean R² of all antecedent fits, used as the
// overall quality figure for RISE runs.
func detectRISE(ts *timeseries.TimeSeries, p Parameters) ([]Event, float64) {
	var events []Event
	var rsqSum float64
	var rsqCount int

	for i := 0; i < ts.Len(); i++ {
		baseline, ok := recession.AntecedentBaseline(ts, i, p.AntecedentPeriod)
		if !ok {
			continue
		}
		rsqSum += clamp01(baseline.RSquared)
		rsqCount++

		r := ts.At(i)
		rise := r.WaterLevel - baseline.Level
		if rise <= p.RiseThreshold {
			continue
		}
		events = append(events, Event{
			Date:           r.Timestamp,
			WaterYear:      r.WaterYear,
			ObservedLevel:  r.WaterLevel,
			BaselineLevel:  baseline.Level,
			Deviation:      rise,
			RechargeInches: rise * p.SpecificYield * inchesPerFoot,
		})
	}

	meanRsq := 0.0
	if rsqCount > 0 {
		meanRsq = rsqSum / float64(rsqCount)
	}
	return events, meanRsq
}

// curveSelector returns the master curve applicable at a timestamp. A
// single-curve fit ignores the timestamp; a seasonal fit picks the curve
// for the reading's season.
type curveSelector func(at time.Time) curvefit.MasterCurve

// predictLevel re-anchors the master curve's decline shape at the level
/// observed when the current recession began: the curve supplies the shape
// C(t), the segment start supplies the starting level.
func predictLevel(curve curvefit.MasterCurve, anchorLevel, tDays float64) float64 {
	c0 := curve.Evaluate(0)
	if c0 == 0 {
		return curve.Evaluate(tDays)
	}
	return anchorLevel * curve.Evaluate(tDays) / c0
}

// detectDeviations walks the series against the identified segments. Each
// reading is predicted from the most recent segment that began strictly
// before it; readings before the first segment start have no baseline and
// are skipped. Deviations above the threshold become events.
func detectDeviations(ts *timeseries.TimeSeries, segments []recession.Segment, curveFor curveSelector, p Parameters) []detected {
	var out []detected
	seg := -1 // index of the anchoring segment

	for i := 0; i < ts.Len(); i++ {
		r := ts.At(i)
		for seg+1 < len(segments) && segments[seg+1].Start.Before(r.Timestamp) {
			seg++
		}
		if seg < 0 {
			continue
		}

		anchor := segments[seg].StartLevel()
		tDays := r.Timestamp.Sub(segments[seg].Start).Hours() / 24
		predicted := predictLevel(curveFor(r.Timestamp), anchor, tDays)

		deviation := r.WaterLevel - predicted
		if deviation <= p.DeviationThreshold {
			continue
		}
		out = append(out, detected{
			event: Event{
				Date:           r.Timestamp,
				WaterYear:      r.WaterYear,
				ObservedLevel:  r.WaterLevel,
				BaselineLevel:  predicted,
				Deviation:      deviation,
				RechargeInches: deviation * p.SpecificYield * inchesPerFoot,
			},
			anchorLevel: anchor,
			tDays:       tDays,
		})
	}
	return out
}

func eventsOf(ds []detected) []Event {
	events := make([]Event, len(ds))
	for i, d := range ds {
		events[i] = d.event
	}
	return events
}
