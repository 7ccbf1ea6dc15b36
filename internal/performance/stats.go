package performance

import (
	"math"
	"sort"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	sum := 0.0
	for _, x := range xs {
		sum += x
	}

	return sum / float64(len(xs))
}

// sampleStd returns the n-1 standard deviation. Fewer than two observations
// yields 0.
func sampleStd(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}

	m := mean(xs)

	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(n-1))
}

// populationMoment returns the k-th standardized population moment. A zero
// population standard deviation yields 0.
func populationMoment(xs []float64, k int) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}

	m := mean(xs)

	variance := 0.0
	for _, x := range xs {
		d := x - m
		variance += d * d
	}

	variance /= float64(n)
	if variance == 0 {
		return 0
	}

	std := math.Sqrt(variance)

	sum := 0.0
	for _, x := range xs {
		sum += math.Pow((x-m)/std, float64(k))
	}

	return sum / float64(n)
}

func skewness(xs []float64) float64 {
	return populationMoment(xs, 3)
}

// excessKurtosis returns the population kurtosis minus 3.
func excessKurtosis(xs []float64) float64 {
	if populationMoment(xs, 2) == 0 {
		return 0
	}

	return populationMoment(xs, 4) - 3
}

// percentile computes the q-th percentile (0-100) with linear interpolation
// between closest ranks.
func percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))

	if lo == hi {
		return sorted[lo]
	}

	frac := rank - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// sampleCovariance returns the n-1 covariance of two equal-length series.
func sampleCovariance(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}

	mx := mean(xs)
	my := mean(ys)

	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}

	return sum / float64(n-1)
}

// pearson returns the Pearson correlation coefficient, 0 when either series
// is constant.
func pearson(xs, ys []float64) float64 {
	sx := sampleStd(xs)
	sy := sampleStd(ys)

	if sx == 0 || sy == 0 {
		return 0
	}

	return sampleCovariance(xs, ys) / (sx * sy)
}
