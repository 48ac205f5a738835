package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ResampleRule selects the bucket width applied before analysis.
type ResampleRule string

const (
	ResampleNone   ResampleRule = "none"
	ResampleHourly ResampleRule = "hourly"
	ResampleDaily  ResampleRule = "daily"
)

// AggregateMethod selects how readings within a bucket collapse to one.
type AggregateMethod string

const (
	AggregateMean   AggregateMethod = "mean"
	AggregateMedian AggregateMethod = "median"
	AggregateLast   AggregateMethod = "last"
)

// Options configures Preprocess. The zero value means no resampling, no
// smoothing, and the default October 1 water-year start. An unset
// SmoothingMethod means moving average; median filtering uses an odd
// kernel, widening an even SmoothingWindow by one.
type Options struct {
	Rule            ResampleRule
	Method          AggregateMethod
	SmoothingWindow int
	SmoothingMethod SmoothingMethod
	WaterYearStart  WaterYearStart
}

// Preprocess resamples, smooths, and water-year-labels a series, returning
// a new TimeSeries. Readings with a NaN water level are dropped first.
// Precipitation is summed (not averaged) across a resample bucket so event
// totals survive downsampling. Returns ErrEmptySeries when nothing is left.
func Preprocess(ts *TimeSeries, opts Options) (*TimeSeries, error) {
	start := opts.WaterYearStart
	if !start.Valid() {
		start = DefaultWaterYearStart()
	}

	readings := make([]Reading, 0, ts.Len())
	for _, r := range ts.Readings() {
		if math.IsNaN(r.WaterLevel) {
			continue
		}
		readings = append(readings, r)
	}
	if len(readings) == 0 {
		return nil, ErrEmptySeries
	}

	if opts.Rule != "" && opts.Rule != ResampleNone {
		var err error
		readings, err = resample(readings, opts.Rule, opts.Method)
		if err != nil {
			return nil, err
		}
	}

	if opts.SmoothingWindow > 1 {
		levels := make([]float64, len(readings))
		for i, r := range readings {
			levels[i] = r.WaterLevel
		}
		var smoothed []float64
		switch opts.SmoothingMethod {
		case "", SmoothMovingAverage:
			smoothed = MovingAverage(levels, opts.SmoothingWindow)
		case SmoothMedian:
			kernel := opts.SmoothingWindow
			if kernel%2 == 0 {
				kernel++
			}
			smoothed = MedFilt(levels, kernel)
		default:
			return nil, fmt.Errorf("unknown smoothing method %q", opts.SmoothingMethod)
		}
		for i := range readings {
			readings[i].WaterLevel = smoothed[i]
		}
	}

	for i := range readings {
		readings[i].WaterYear = start.WaterYear(readings[i].Timestamp)
	}

	return New(readings)
}

func resample(readings []Reading, rule ResampleRule, method AggregateMethod) ([]Reading, error) {
	var trunc time.Duration
	switch rule {
	case ResampleHourly:
		trunc = time.Hour
	case ResampleDaily:
		trunc = 24 * time.Hour
	default:
		return nil, fmt.Errorf("unknown resample rule %q", rule)
	}
	if method == "" {
		method = AggregateMean
	}

	out := make([]Reading, 0, len(readings))
	i := 0
	for i < len(readings) {
		bucket := readings[i].Timestamp.Truncate(trunc)
		j := i
		for j < len(readings) && readings[j].Timestamp.Truncate(trunc).Equal(bucket) {
			j++
		}

		group := readings[i:j]
		r := Reading{Timestamp: bucket}
		for _, g := range group {
			r.Precipitation += g.Precipitation
		}

		switch method {
		case AggregateMean:
			sum := 0.0
			for _, g := range group {
				sum += g.WaterLevel
			}
			r.WaterLevel = sum / float64(len(group))
		case AggregateMedian:
			levels := make([]float64, len(group))
			for k, g := range group {
				levels[k] = g.WaterLevel
			}
			sort.Float64s(levels)
			r.WaterLevel = median(levels)
		case AggregateLast:
			r.WaterLevel = group[len(group)-1].WaterLevel
		default:
			return nil, fmt.Errorf("unknown aggregate method %q", method)
		}

		out = append(out, r)
		i = j
	}
	return out, nil
}
