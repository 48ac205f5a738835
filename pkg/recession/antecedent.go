package recession

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/hydrograph/recharge/pkg/timeseries"
)

// Baseline is the extrapolated antecedent recession level for one reading,
// with the goodness of the trailing fit that produced it.
type Baseline struct {
	Level    float64
	RSquared float64
}

// AntecedentBaseline fits a linear recession to the readings in the
// trailing periodDays window strictly before index i and extrapolates it
// to reading i's timestamp. Returns ok=false when fewer than two readings
// fall inside the window.
func AntecedentBaseline(ts *timeseries.TimeSeries, i int, periodDays float64) (Baseline, bool) {
	readings := ts.Readings()
	at := readings[i].Timestamp
	windowStart := at.Add(-time.Duration(periodDays * 24 * float64(time.Hour)))

	var xs, ys []float64
	for j := i - 1; j >= 0; j-- {
		if readings[j].Timestamp.Before(windowStart) {
			break
		}
		// Days before reading i, as a negative offset so the intercept is
		// the baseline at reading i itself.
		xs = append(xs, readings[j].Timestamp.Sub(at).Hours()/24)
		ys = append(ys, readings[j].WaterLevel)
	}
	if len(xs) < 2 {
		return Baseline{}, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	est := make([]float64, len(xs))
	for k, x := range xs {
		est[k] = alpha + beta*x
	}
	return Baseline{Level: alpha, RSquared: rSquared(est, ys)}, true
}

// rSquared is the coefficient of determination with a flat-series guard:
// a zero-variance window fit exactly scores 1, fit inexactly scores 0.
func rSquared(estimates, observed []float64) float64 {
	mean := stat.Mean(observed, nil)
	var ssRes, ssTot float64
	for i := range observed {
		d := observed[i] - estimates[i]
		ssRes += d * d
		m := observed[i] - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
