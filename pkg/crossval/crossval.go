// Package crossval estimates how well a fitted master curve generalizes
// by refitting on partitions of the recession segments.
package crossval

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hydrograph/recharge/pkg/curvefit"
	"github.com/hydrograph/recharge/pkg/recession"
)

// Method selects the partitioning scheme.
type Method string

const (
	KFold         Method = "k_fold"
	LeaveOneOut   Method = "leave_one_out"
	TemporalSplit Method = "temporal_split"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case KFold, LeaveOneOut, TemporalSplit:
		return true
	}
	return false
}

// DefaultK is the default fold count for k-fold validation.
const DefaultK = 5

// temporalTrainFraction is the share of segments (earliest first) used for
// training under TemporalSplit.
const temporalTrainFraction = 0.7

// Result holds per-fold and aggregate validation scores. MeanParameters
// averages the fold-fit curve parameters and serves as the validation
// curve when scoring event quality downstream.
type Result struct {
	Method         Method             `json:"method" msgpack:"method"`
	CurveType      curvefit.CurveType `json:"curve_type" msgpack:"curve_type"`
	FoldRSquared   []float64          `json:"fold_r_squared" msgpack:"fold_r_squared"`
	MeanRSquared   float64            `json:"mean_r_squared" msgpack:"mean_r_squared"`
	MeanParameters []float64          `json:"mean_parameters" msgpack:"mean_parameters"`
	SkippedFolds   int                `json:"skipped_folds,omitempty" msgpack:"skipped_folds,omitempty"`
}

// ValidationCurve returns the mean-parameter curve, usable with Evaluate.
func (r Result) ValidationCurve() curvefit.MasterCurve {
	return curvefit.MasterCurve{Type: r.CurveType, Parameters: r.MeanParameters}
}

type fold struct {
	train    []recession.Segment
	validate []recession.Segment
}

type foldScore struct {
	rsq    float64
	params []float64
	ok     bool
}

// Validate partitions segments per the method, refits the curve on each
// training subset, and scores it against the held-out observations. Folds
// whose training subset is too small to fit are skipped; an error is
// returned only when no fold can be scored. Fold assignment is
// deterministic, so repeated runs produce identical results.
func Validate(segments []recession.Segment, typ curvefit.CurveType, degree int, method Method, k int) (Result, error) {
	folds, err := partition(segments, method, k)
	if err != nil {
		return Result{}, err
	}

	scores := make([]foldScore, len(folds))
	var g errgroup.Group
	for i, f := range folds {
		g.Go(func() error {
			curve, err := curvefit.FitPoints(curvefit.PoolSegments(f.train), typ, degree)
			if err != nil {
				return nil // under-populated training subset, skip the fold
			}
			held := curvefit.PoolSegments(f.validate)
			observed := make([]float64, len(held))
			predicted := make([]float64, len(held))
			for j, p := range held {
				observed[j] = p.Level
				predicted[j] = curve.Evaluate(p.T)
			}
			scores[i] = foldScore{
				rsq:    curvefit.RSquared(predicted, observed),
				params: curve.Parameters,
				ok:     true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result := Result{Method: method, CurveType: typ}
	var paramSum []float64
	for _, s := range scores {
		if !s.ok {
			result.SkippedFolds++
			continue
		}
		result.FoldRSquared = append(result.FoldRSquared, s.rsq)
		if paramSum == nil {
			paramSum = make([]float64, len(s.params))
		}
		for j, p := range s.params {
			paramSum[j] += p
		}
	}
	if len(result.FoldRSquared) == 0 {
		return Result{}, fmt.Errorf("cross-validation: no fold had enough training data (%d segments, method %s)", len(segments), method)
	}

	sum := 0.0
	for _, r := range result.FoldRSquared {
		sum += r
	}
	result.MeanRSquared = sum / float64(len(result.FoldRSquared))
	result.MeanParameters = paramSum
	for j := range result.MeanParameters {
		result.MeanParameters[j] /= float64(len(result.FoldRSquared))
	}
	return result, nil
}

func partition(segments []recession.Segment, method Method, k int) ([]fold, error) {
	n := len(segments)
	if n < 2 {
		return nil, fmt.Errorf("cross-validation requires at least 2 segments, found %d", n)
	}

	switch method {
	case KFold:
		if k <= 0 {
			k = DefaultK
		}
		if k > n {
			k = n
		}
		folds := make([]fold, k)
		for f := 0; f < k; f++ {
			for i, seg := range segments {
				if i%k == f {
					folds[f].validate = append(folds[f].validate, seg)
				} else {
					folds[f].train = append(folds[f].train, seg)
				}
			}
		}
		return folds, nil

	case LeaveOneOut:
		folds := make([]fold, n)
		for f := range folds {
			for i, seg := range segments {
				if i == f {
					folds[f].validate = append(folds[f].validate, seg)
				} else {
					folds[f].train = append(folds[f].train, seg)
				}
			}
		}
		return folds, nil

	case TemporalSplit:
		ordered := make([]recession.Segment, n)
		copy(ordered, segments)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start.Before(ordered[j].Start) })
		split := int(math.Ceil(temporalTrainFraction * float64(n)))
		if split >= n {
			split = n - 1
		}
		if split < 1 {
			split = 1
		}
		return []fold{{train: ordered[:split], validate: ordered[split:]}}, nil

	default:
		return nil, fmt.Errorf("unknown cross-validation method %q", method)
	}
}
