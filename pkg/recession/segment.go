// Package recession identifies recession segments and antecedent
// recession baselines in a water-level time series.
package recession

import (
	"time"

	"github.com/hydrograph/recharge/pkg/timeseries"
)

// Segment is a contiguous span of readings where the water level declines
// within tolerance, free of disqualifying precipitation.
type Segment struct {
	Start      time.Time            `json:"start_ts" msgpack:"start"`
	End        time.Time            `json:"end_ts" msgpack:"end"`
	Readings   []timeseries.Reading `json:"readings" msgpack:"readings"`
	LengthDays float64              `json:"length_days" msgpack:"length_days"`
}

// StartLevel returns the observed level at the segment's first reading.
func (s Segment) StartLevel() float64 { return s.Readings[0].WaterLevel }

// Contains reports whether t falls within the segment span (inclusive).
func (s Segment) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}
