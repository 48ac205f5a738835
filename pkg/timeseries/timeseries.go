// Package timeseries holds the water-level time series model and the
// preprocessing (resampling, smoothing, water-year labeling) that runs
// ahead of the recharge pipeline.
package timeseries

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptySeries is returned when a series has no readings, either as
// provided or after resampling/filtering.
var ErrEmptySeries = errors.New("time series contains no readings")

// Reading is a single water-level observation. Precipitation is the depth
// recorded over the reading's interval; zero when no gauge is co-located.
// WaterYear is assigned by Preprocess and is zero until then.
type Reading struct {
	Timestamp     time.Time `json:"timestamp" msgpack:"ts"`
	WaterLevel    float64   `json:"water_level" msgpack:"wl"`
	Precipitation float64   `json:"precipitation,omitempty" msgpack:"precip,omitempty"`
	WaterYear     int       `json:"water_year,omitempty" msgpack:"wy,omitempty"`
}

// TimeSeries is an ordered, deduplicated sequence of readings. Construct
// with New; the readings slice must not be modified afterward.
type TimeSeries struct {
	readings []Reading
}

// New validates ordering and uniqueness and wraps the readings. The slice
// is retained, not copied; callers hand over ownership.
func New(readings []Reading) (*TimeSeries, error) {
	if len(readings) == 0 {
		return nil, ErrEmptySeries
	}
	for i := 1; i < len(readings); i++ {
		prev, cur := readings[i-1].Timestamp, readings[i].Timestamp
		if cur.Before(prev) {
			return nil, fmt.Errorf("readings out of order at index %d (%s before %s)", i, cur, prev)
		}
		if cur.Equal(prev) {
			return nil, fmt.Errorf("duplicate timestamp at index %d (%s)", i, cur)
		}
	}
	return &TimeSeries{readings: readings}, nil
}

// Len returns the number of readings.
func (ts *TimeSeries) Len() int { return len(ts.readings) }

// At returns the reading at index i.
func (ts *TimeSeries) At(i int) Reading { return ts.readings[i] }

// Readings returns the backing slice. Treat it as read-only.
func (ts *TimeSeries) Readings() []Reading { return ts.readings }

// Start returns the timestamp of the first reading.
func (ts *TimeSeries) Start() time.Time { return ts.readings[0].Timestamp }

// End returns the timestamp of the last reading.
func (ts *TimeSeries) End() time.Time { return ts.readings[len(ts.readings)-1].Timestamp }

// SpanDays returns the series duration in fractional days.
func (ts *TimeSeries) SpanDays() float64 {
	return ts.End().Sub(ts.Start()).Hours() / 24
}
