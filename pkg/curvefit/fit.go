package curvefit

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/hydrograph/recharge/pkg/recession"
)

// MinSegments is the fewest pooled segments a master-curve fit accepts.
const MinSegments = 3

// Point is one pooled observation: t is days since the owning segment's
// start, Level the observed water level.
type Point struct {
	T     float64
	Level float64
}

// PoolSegments flattens segments into fit points, resetting t=0 at each
// segment's own start.
func PoolSegments(segments []recession.Segment) []Point {
	var points []Point
	for _, seg := range segments {
		for _, r := range seg.Readings {
			points = append(points, Point{
				T:     r.Timestamp.Sub(seg.Start).Hours() / 24,
				Level: r.WaterLevel,
			})
		}
	}
	return points
}

// Fit pools the segments and fits a master curve of the given type. degree
// applies to Polynomial only (clamped to 2..4). Fails with
// InsufficientSegmentsError below MinSegments; MultiSegment fits go
// through FitSeasonal instead.
func Fit(segments []recession.Segment, typ CurveType, degree int) (MasterCurve, error) {
	if len(segments) < MinSegments {
		return MasterCurve{}, &InsufficientSegmentsError{Found: len(segments), Required: MinSegments}
	}
	curve, err := FitPoints(PoolSegments(segments), typ, degree)
	if err != nil {
		return MasterCurve{}, err
	}
	curve.SegmentCount = len(segments)
	return curve, nil
}

// FitPoints fits a curve directly to pooled points. Cross-validation folds
// use this entry so refits on training subsets skip the segment-count
// gate; the returned curve has SegmentCount zero.
func FitPoints(points []Point, typ CurveType, degree int) (MasterCurve, error) {
	if typ == MultiSegment {
		return MasterCurve{}, fmt.Errorf("multi_segment curves are fit per season, use FitSeasonal")
	}

	var curve MasterCurve
	var err error
	switch typ {
	case Exponential, Power, Linear:
		curve, err = fitLogLinear(points, typ)
	case Polynomial:
		curve, err = fitPolynomial(points, degree)
	default:
		err = fmt.Errorf("unknown curve type %q", typ)
	}
	if err != nil {
		return MasterCurve{}, err
	}

	// Goodness of fit on the raw level scale across all pooled points.
	observed := make([]float64, len(points))
	predicted := make([]float64, len(points))
	for i, p := range points {
		observed[i] = p.Level
		predicted[i] = curve.Evaluate(p.T)
	}
	curve.RSquared = RSquared(predicted, observed)
	curve.RMSE = rmse(predicted, observed)
	curve.PointCount = len(points)
	return curve, nil
}

// fitLogLinear handles the three log-space regressions. Exponential and
// linear regress ln(level) on t; power regresses ln(level) on ln(t+ε).
// Nonpositive levels cannot be log-transformed and are excluded.
func fitLogLinear(points []Point, typ CurveType) (MasterCurve, error) {
	var xs, ys []float64
	for _, p := range points {
		if p.Level <= 0 {
			continue
		}
		x := p.T
		if typ == Power {
			x = math.Log(p.T + powerEpsilon)
		}
		xs = append(xs, x)
		ys = append(ys, math.Log(p.Level))
	}
	if len(xs) < 3 {
		return MasterCurve{}, fmt.Errorf("%s fit needs at least 3 positive-level points, have %d", typ, len(xs))
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	if typ == Linear {
		return MasterCurve{Type: typ, Parameters: []float64{alpha, beta}}, nil
	}
	return MasterCurve{Type: typ, Parameters: []float64{math.Exp(alpha), -beta}}, nil
}

// fitPolynomial solves the Vandermonde least-squares system by QR
// decomposition.
func fitPolynomial(points []Point, degree int) (MasterCurve, error) {
	if degree < 2 {
		degree = 2
	}
	if degree > 4 {
		degree = 4
	}
	n := len(points)
	if n < degree+2 {
		return MasterCurve{}, fmt.Errorf("degree-%d polynomial fit needs at least %d points, have %d", degree, degree+2, n)
	}

	X := mat.NewDense(n, degree+1, nil)
	y := mat.NewVecDense(n, nil)
	for i, p := range points {
		for j := 0; j <= degree; j++ {
			X.Set(i, j, math.Pow(p.T, float64(j)))
		}
		y.SetVec(i, p.Level)
	}

	var qr mat.QR
	qr.Factorize(X)
	coeffs := mat.NewVecDense(degree+1, nil)
	if err := qr.SolveVecTo(coeffs, false, y); err != nil {
		return MasterCurve{}, fmt.Errorf("polynomial regression solve: %w", err)
	}

	params := make([]float64, degree+1)
	for i := range params {
		params[i] = coeffs.AtVec(i)
	}
	return MasterCurve{Type: Polynomial, Parameters: params}, nil
}

// FitSeasonal partitions segments by the season of their start and fits
// one curve of baseType per populated season, concurrently. Seasons with
// fewer than MinSegments segments are skipped and reported in the returned
// warnings. Fails with InsufficientSegmentsError when no season has enough
// segments. Results are ordered by the fixed season order.
func FitSeasonal(segments []recession.Segment, baseType CurveType, degree int) ([]MasterCurve, []string, error) {
	bySeason := make(map[Season][]recession.Segment)
	for _, seg := range segments {
		s := SeasonOf(seg.Start)
		bySeason[s] = append(bySeason[s], seg)
	}

	var warnings []string
	type job struct {
		season   Season
		segments []recession.Segment
	}
	var jobs []job
	most := 0
	for _, season := range Seasons() {
		segs := bySeason[season]
		if len(segs) > most {
			most = len(segs)
		}
		if len(segs) == 0 {
			continue
		}
		if len(segs) < MinSegments {
			warnings = append(warnings, fmt.Sprintf("season %s has only %d recession segment(s), skipped", season, len(segs)))
			continue
		}
		jobs = append(jobs, job{season: season, segments: segs})
	}
	if len(jobs) == 0 {
		return nil, warnings, &InsufficientSegmentsError{Found: most, Required: MinSegments}
	}

	curves := make([]MasterCurve, len(jobs))
	var g errgroup.Group
	for i, j := range jobs {
		g.Go(func() error {
			curve, err := Fit(j.segments, baseType, degree)
			if err != nil {
				return fmt.Errorf("season %s: %w", j.season, err)
			}
			curve.Season = j.season
			curves[i] = curve
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, warnings, err
	}
	return curves, warnings, nil
}

// RSquared is the coefficient of determination between predictions and
// observations, guarded for zero-variance observation sets.
func RSquared(predicted, observed []float64) float64 {
	mean := stat.Mean(observed, nil)
	var ssRes, ssTot float64
	for i := range observed {
		d := observed[i] - predicted[i]
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

func rmse(predicted, observed []float64) float64 {
	if len(observed) == 0 {
		return 0
	}
	var sum float64
	for i := range observed {
		d := observed[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(observed)))
}
