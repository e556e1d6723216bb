package dataset

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

type statFunc func(values []float64) (float64, error)

func statisticFunc(op Statistic) (statFunc, error) {
	switch op {
	case StatMean:
		return mean, nil
	case StatMedian:
		return median, nil
	case StatStdDev:
		return sampleStdDev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatistic, op)
	}
}

func mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientData
	}
	return stat.Mean(values, nil), nil
}

// median averages the two central values when the count is even.
// gonum's empirical quantile picks one of them instead, so it is not used here.
func median(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, ErrInsufficientData
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}

// sampleStdDev divides by n-1.
func sampleStdDev(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, ErrInsufficientData
	}
	return stat.StdDev(values, nil), nil
}
