package timeseries

import "sort"

// SmoothingMethod selects the filter Preprocess applies to water levels.
type SmoothingMethod string

const (
	SmoothMovingAverage SmoothingMethod = "moving_average"
	SmoothMedian        SmoothingMethod = "median"
)

// Valid reports whether m is a known smoothing method.
func (m SmoothingMethod) Valid() bool {
	switch m {
	case SmoothMovingAverage, SmoothMedian:
		return true
	}
	return false
}

// MovingAverage smooths values with a centered window of the given size.
// Even sizes are widened to the next odd size so the window stays
// centered. Windows are truncated at the ends of the series rather than
// padded, so edge values average over fewer points.
func MovingAverage(values []float64, window int) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if window <= 1 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// MedFilt applies a median filter with edge truncation. kernelSize must
// be a positive odd integer.
func MedFilt(values []float64, kernelSize int) []float64 {
	if kernelSize < 1 || kernelSize%2 == 0 {
		panic("kernelSize must be positive odd integer")
	}
	n := len(values)
	if n == 0 {
		return nil
	}
	half := kernelSize / 2

	out := make([]float64, n)
	window := make([]float64, 0, kernelSize)
	for i := 0; i < n; i++ {
		window = window[:0]
		for j := i - half; j <= i+half; j++ {
			if j >= 0 && j < n {
				window = append(window, values[j])
			}
		}
		sort.Float64s(window)
		out[i] = median(window)
	}
	return out
}

// median of an already-sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
