package stats

import "slices"

// CalculateMedian returns the median without reordering values, or 0 when empty.
func CalculateMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

// CalculateMean returns the arithmetic mean, or 0 for an empty slice.
func CalculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MovingAverage computes a trailing simple moving average. The first window-1 slots
// have insufficient history and are None.
func MovingAverage(values []float64, window int) []Value {
	out := make([]Value, len(values))
	if window <= 0 {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = Some(sum / float64(window))
		}
	}
	return out
}
