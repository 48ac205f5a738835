package recession

import (
	"time"

	"github.com/hydrograph/recharge/pkg/timeseries"
)

// Config holds the tolerance rules for segment identification.
type Config struct {
	// MinLengthDays is the minimum segment span; shorter candidates are
	// discarded.
	MinLengthDays float64

	// FluctuationTolerance is the largest level rise between successive
	// readings that still counts as continued recession.
	FluctuationTolerance float64

	// PrecipTolerance is the precipitation depth above which a reading is
	// treated as a precipitation event.
	PrecipTolerance float64

	// PostPrecipLagDays blocks segment membership for this many days after
	// a precipitation event, while the level is still responding.
	PostPrecipLagDays float64
}

// DefaultConfig returns the conventional identification parameters.
func DefaultConfig() Config {
	return Config{
		MinLengthDays:        10,
		FluctuationTolerance: 0.05,
		PrecipTolerance:      0.05,
		PostPrecipLagDays:    2,
	}
}

// Identify scans the series and returns recession segments in time order.
// A candidate extends while each successive reading stays at or below the
// previous level plus FluctuationTolerance (ties continue the segment) and
// is not inside a post-precipitation lag window. A series too short to
// host a qualifying segment yields an empty slice, not an error.
func Identify(ts *timeseries.TimeSeries, cfg Config) []Segment {
	readings := ts.Readings()
	n := len(readings)

	var segments []Segment
	var lockoutUntil time.Time

	blocked := func(r timeseries.Reading) bool {
		return r.Precipitation > cfg.PrecipTolerance || r.Timestamp.Before(lockoutUntil)
	}
	lag := time.Duration(cfg.PostPrecipLagDays * 24 * float64(time.Hour))

	start := -1
	for i := 0; i < n; i++ {
		r := readings[i]
		if r.Precipitation > cfg.PrecipTolerance {
			lockoutUntil = r.Timestamp.Add(lag)
		}

		switch {
		case start < 0:
			if !blocked(r) {
				start = i
			}
		case blocked(r) || r.WaterLevel > readings[i-1].WaterLevel+cfg.FluctuationTolerance:
			if seg, ok := makeSegment(readings[start:i], cfg.MinLengthDays); ok {
				segments = append(segments, seg)
			}
			start = -1
			if !blocked(r) {
				start = i
			}
		}
	}
	if start >= 0 {
		if seg, ok := makeSegment(readings[start:], cfg.MinLengthDays); ok {
			segments = append(segments, seg)
		}
	}
	return segments
}

func makeSegment(readings []timeseries.Reading, minDays float64) (Segment, bool) {
	if len(readings) < 2 {
		return Segment{}, false
	}
	start := readings[0].Timestamp
	end := readings[len(readings)-1].Timestamp
	days := end.Sub(start).Hours() / 24
	if days < minDays {
		return Segment{}, false
	}
	return Segment{
		Start:      start,
		End:        end,
		Readings:   readings,
		LengthDays: days,
	}, true
}
