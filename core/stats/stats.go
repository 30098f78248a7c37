// Package stats - Descriptive statistics engine
// Computes snapshot statistics over one homogeneous numeric sample. No
// incremental or streaming semantics: every call recomputes from the full
// sample. All standard deviations here are sample stddev (n-1) unless named
// otherwise.
package stats

import (
	"math"
	"sort"

	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
)

const (
	// MinSampleSize is the smallest sample a statistics snapshot is defined for
	MinSampleSize = 3

	// OutlierMultiplier is the default IQR multiplier for outlier bounds
	OutlierMultiplier = 1.5

	// zCritical95 is the normal-approximation critical value for a 95% CI.
	// Descriptive tool, not inferential testing, so no t-distribution.
	zCritical95 = 1.96
)

// Compute produces a statistics snapshot for a sample. The sample must hold
// at least MinSampleSize values; outliers are counted against the 1.5x IQR
// bounds but never removed at this layer.
func Compute(sample []float64) (types.Statistics, error) {
	if len(sample) == 0 {
		return types.Statistics{}, errors.Validation("empty sample provided")
	}
	if len(sample) < MinSampleSize {
		return types.Statistics{}, errors.Validationf("insufficient sample: %d values, need at least %d", len(sample), MinSampleSize)
	}

	n := len(sample)
	mean := Mean(sample)
	stdDev := StdDev(sample)

	sorted := make([]float64, n)
	copy(sorted, sample)
	sort.Float64s(sorted)

	median := percentileSorted(sorted, 50)
	p25 := percentileSorted(sorted, 25)
	p75 := percentileSorted(sorted, 75)
	p90 := percentileSorted(sorted, 90)

	iqr := p75 - p25
	lower := p25 - OutlierMultiplier*iqr
	upper := p75 + OutlierMultiplier*iqr

	outliers := 0
	for _, v := range sample {
		if v < lower || v > upper {
			outliers++
		}
	}

	margin := zCritical95 * stdDev / math.Sqrt(float64(n))

	return types.Statistics{
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Percentiles: types.Percentiles{
			P25: p25,
			P75: p75,
			P90: p90,
		},
		Outliers: types.OutlierSummary{
			Count:      outliers,
			LowerBound: lower,
			UpperBound: upper,
		},
		SampleSize: n,
		ConfidenceInterval: types.ConfidenceInterval{
			Lower: mean - margin,
			Upper: mean + margin,
		},
		IQR: iqr,
	}, nil
}

// Mean returns the arithmetic mean. Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1 denominator).
// Returns 0 for fewer than two values.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// PopulationStdDev returns the population standard deviation (n denominator).
// Returns 0 for an empty slice.
func PopulationStdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}

// Percentile returns the p-th percentile of values, p in [0, 100], using
// linear interpolation between order statistics. The input is not modified.
// Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

// percentileSorted assumes sorted ascending input.
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	idx := p / 100 * float64(n-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= n {
		return sorted[lower]
	}

	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Median returns the 50th percentile
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// OutlierBounds returns the IQR outlier fences for a value column
func OutlierBounds(values []float64, multiplier float64) (lower, upper float64) {
	p25 := Percentile(values, 25)
	p75 := Percentile(values, 75)
	iqr := p75 - p25
	return p25 - multiplier*iqr, p75 + multiplier*iqr
}

// Skewness returns the bias-corrected sample skewness (the adjusted
// Fisher-Pearson estimator). Returns 0 for fewer than three values or a
// zero-variance sample.
func Skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	mean := Mean(values)
	sd := StdDev(values)
	if sd == 0 {
		return 0
	}

	var m3 float64
	for _, v := range values {
		z := (v - mean) / sd
		m3 += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * m3
}

// Kurtosis returns the bias-corrected sample excess kurtosis. Returns 0 for
// fewer than four values or a zero-variance sample.
func Kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	mean := Mean(values)
	sd := StdDev(values)
	if sd == 0 {
		return 0
	}

	var m4 float64
	for _, v := range values {
		z := (v - mean) / sd
		m4 += z * z * z * z
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*m4 - 3*(n-1)*(n-1)/((n-2)*(n-3))
}
