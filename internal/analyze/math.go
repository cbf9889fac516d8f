package analyze

import (
	"math"
	"sort"
)

// absGradient computes the absolute discrete derivative of a profile using
// central differences, one-sided at the edges.
func absGradient(p []float64) []float64 {
	n := len(p)
	g := make([]float64, n)
	if n < 2 {
		return g
	}

	g[0] = math.Abs(p[1] - p[0])
	g[n-1] = math.Abs(p[n-1] - p[n-2])
	for i := 1; i < n-1; i++ {
		g[i] = math.Abs((p[i+1] - p[i-1]) / 2.0)
	}
	return g
}

// percentile returns the q-th percentile (0..100) of values, with linear
// interpolation between ranks.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := q / 100.0 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	for _, v := range values {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}
