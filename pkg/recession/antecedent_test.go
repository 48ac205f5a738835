package recession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAntecedentBaselineExtrapolatesTrend(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := dailySeries(t, start, declining(20, 10, 0.01), nil)

	// A clean linear recession extrapolates exactly and fits perfectly.
	b, ok := AntecedentBaseline(ts, 10, 7)
	require.True(t, ok)
	require.InDelta(t, 10-0.01*10, b.Level, 1e-9)
	require.InDelta(t, 1.0, b.RSquared, 1e-9)
}

func TestAntecedentBaselineRiseShowsAgainstBaseline(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	levels := declining(20, 10, 0.01)
	levels[15] = levels[14] + 0.5

	ts := dailySeries(t, start, levels, nil)
	b, ok := AntecedentBaseline(ts, 15, 7)
	require.True(t, ok)

	// The baseline continues the pre-rise trend, so the jump stands out.
	rise := ts.At(15).WaterLevel - b.Level
	require.InDelta(t, 0.51, rise, 1e-9)
}

func TestAntecedentBaselineNeedsTwoPoints(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := dailySeries(t, start, declining(20, 10, 0.01), nil)

	_, ok := AntecedentBaseline(ts, 0, 7)
	require.False(t, ok)
	_, ok = AntecedentBaseline(ts, 1, 7)
	require.False(t, ok)
	_, ok = AntecedentBaseline(ts, 2, 7)
	require.True(t, ok)
}

func TestAntecedentBaselineFlatWindow(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	levels := make([]float64, 10)
	for i := range levels {
		levels[i] = 10
	}
	ts := dailySeries(t, start, levels, nil)

	b, ok := AntecedentBaseline(ts, 5, 7)
	require.True(t, ok)
	require.InDelta(t, 10.0, b.Level, 1e-9)
	require.InDelta(t, 1.0, b.RSquared, 1e-9)
}
