package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// degenerateSpread is the relative spread below which a series is treated as
// constant. Floating point noise in otherwise identical frames would
// otherwise produce arbitrary skew values.
const degenerateSpread = 1e-12

// Stats summarises a per-frame series
type Stats struct {
	Mean float64
	Std  float64 // population standard deviation
	Skew float64 // population (biased) skewness
}

// Describe reduces a series to its mean, standard deviation and skewness.
// Constant or single-element series report zero spread and zero skew.
// An empty series reports all zeros.
func Describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	mean, variance := stat.PopMeanVariance(values, nil)
	std := math.Sqrt(variance)
	if std <= degenerateSpread*math.Max(1, math.Abs(mean)) {
		return Stats{Mean: mean}
	}

	var m3 float64
	for _, v := range values {
		d := v - mean
		m3 += d * d * d
	}
	m3 /= float64(len(values))

	return Stats{
		Mean: mean,
		Std:  std,
		Skew: m3 / (variance * std),
	}
}
