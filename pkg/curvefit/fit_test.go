package curvefit

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hydrograph/recharge/pkg/recession"
	"github.com/hydrograph/recharge/pkg/timeseries"
)

// synthSegment builds a daily recession segment whose level follows f(t),
// t in days since the segment start.
func synthSegment(start time.Time, days int, f func(t float64) float64) recession.Segment {
	readings := make([]timeseries.Reading, days+1)
	for i := 0; i <= days; i++ {
		readings[i] = timeseries.Reading{
			Timestamp:  start.AddDate(0, 0, i),
			WaterLevel: f(float64(i)),
		}
	}
	return recession.Segment{
		Start:      start,
		End:        readings[days].Timestamp,
		Readings:   readings,
		LengthDays: float64(days),
	}
}

func expDecay(l0, a float64) func(t float64) float64 {
	return func(t float64) float64 { return l0 * math.Exp(-a*t) }
}

func threeExpSegments(l0, a float64) []recession.Segment {
	return []recession.Segment{
		synthSegment(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 30, expDecay(l0, a)),
		synthSegment(time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), 25, expDecay(l0, a)),
		synthSegment(time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC), 40, expDecay(l0, a)),
	}
}

func TestFitExponentialRecoversParameters(t *testing.T) {
	segments := threeExpSegments(10, 0.05)

	curve, err := Fit(segments, Exponential, 0)
	require.NoError(t, err)
	require.Equal(t, Exponential, curve.Type)
	require.Equal(t, 3, curve.SegmentCount)
	require.GreaterOrEqual(t, curve.RSquared, 0.999)
	require.InEpsilon(t, 10.0, curve.Parameters[0], 0.01) // L0 within 1%
	require.InEpsilon(t, 0.05, curve.Parameters[1], 0.01) // a within 1%
	require.Less(t, curve.RMSE, 0.01)
}

func TestFitPowerRecoversDecay(t *testing.T) {
	f := func(t float64) float64 { return 10 * math.Pow(t+powerEpsilon, -0.3) }
	segments := []recession.Segment{
		synthSegment(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 30, f),
		synthSegment(time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), 30, f),
		synthSegment(time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC), 30, f),
	}

	curve, err := Fit(segments, Power, 0)
	require.NoError(t, err)
	require.InEpsilon(t, 10.0, curve.Parameters[0], 0.01)
	require.InEpsilon(t, 0.3, curve.Parameters[1], 0.01)
	require.GreaterOrEqual(t, curve.RSquared, 0.999)
}

func TestFitLinearMatchesExponentialPredictions(t *testing.T) {
	segments := threeExpSegments(10, 0.02)

	expCurve, err := Fit(segments, Exponential, 0)
	require.NoError(t, err)
	linCurve, err := Fit(segments, Linear, 0)
	require.NoError(t, err)

	// Same log-space regression, different parameterization.
	for _, tt := range []float64{0, 5, 20, 40} {
		require.InDelta(t, expCurve.Evaluate(tt), linCurve.Evaluate(tt), 1e-9)
	}
}

func TestFitPolynomialExactQuadratic(t *testing.T) {
	f := func(t float64) float64 { return 10 - 0.05*t + 0.001*t*t }
	segments := []recession.Segment{
		synthSegment(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 20, f),
		synthSegment(time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), 20, f),
		synthSegment(time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC), 20, f),
	}

	curve, err := Fit(segments, Polynomial, 2)
	require.NoError(t, err)
	require.Len(t, curve.Parameters, 3)
	require.InDelta(t, 10.0, curve.Parameters[0], 1e-6)
	require.InDelta(t, -0.05, curve.Parameters[1], 1e-6)
	require.InDelta(t, 0.001, curve.Parameters[2], 1e-6)
	require.GreaterOrEqual(t, curve.RSquared, 0.999999)
}

func TestFitInsufficientSegments(t *testing.T) {
	segments := threeExpSegments(10, 0.05)[:2]

	_, err := Fit(segments, Exponential, 0)
	var insufficient *InsufficientSegmentsError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 2, insufficient.Found)
	require.Equal(t, MinSegments, insufficient.Required)
}

func TestFitSeasonal(t *testing.T) {
	winter := expDecay(10, 0.05)
	summer := expDecay(10, 0.02)
	segments := []recession.Segment{
		synthSegment(time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), 20, winter),
		synthSegment(time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), 20, winter),
		synthSegment(time.Date(2020, 12, 10, 0, 0, 0, 0, time.UTC), 20, winter),
		synthSegment(time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC), 20, summer),
		synthSegment(time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC), 20, summer),
		synthSegment(time.Date(2021, 8, 10, 0, 0, 0, 0, time.UTC), 20, summer),
		// Lone spring segment, below the minimum for its own curve.
		synthSegment(time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), 20, summer),
	}

	curves, warnings, err := FitSeasonal(segments, Exponential, 0)
	require.NoError(t, err)
	require.Len(t, curves, 2)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "spring")

	// Fixed season order: winter before summer.
	require.Equal(t, Winter, curves[0].Season)
	require.Equal(t, Summer, curves[1].Season)
	require.InEpsilon(t, 0.05, curves[0].Parameters[1], 0.01)
	require.InEpsilon(t, 0.02, curves[1].Parameters[1], 0.01)
}

func TestFitSeasonalAllSeasonsUnderpopulated(t *testing.T) {
	segments := []recession.Segment{
		synthSegment(time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), 20, expDecay(10, 0.05)),
		synthSegment(time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC), 20, expDecay(10, 0.02)),
	}

	_, _, err := FitSeasonal(segments, Exponential, 0)
	var insufficient *InsufficientSegmentsError
	require.ErrorAs(t, err, &insufficient)
}

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.December, Winter},
		{time.February, Winter},
		{time.March, Spring},
		{time.May, Spring},
		{time.June, Summer},
		{time.August, Summer},
		{time.September, Fall},
		{time.November, Fall},
	}
	for _, tt := range tests {
		got := SeasonOf(time.Date(2020, tt.month, 15, 0, 0, 0, 0, time.UTC))
		require.Equal(t, tt.want, got, "month %s", tt.month)
	}
}

func TestEvaluateUnknownTypeIsNaN(t *testing.T) {
	c := MasterCurve{Type: MultiSegment}
	require.True(t, math.IsNaN(c.Evaluate(1)))
}
