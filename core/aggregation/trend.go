// Package aggregation - Linear trend helpers
package aggregation

import (
	"math"

	"saas-benchmark/core/stats"
	"saas-benchmark/core/types"
)

// computeTrend fits a linear trend over a value sequence ordered by period
// end. Fewer than two points yields a zero trend.
func computeTrend(ordered []float64) types.Trend {
	if len(ordered) < 2 {
		return types.Trend{}
	}

	volatility := 0.0
	if mean := stats.Mean(ordered); mean != 0 {
		volatility = stats.PopulationStdDev(diff(ordered)) / mean
	}

	return types.Trend{
		Slope:       linearSlope(ordered),
		Correlation: indexCorrelation(ordered),
		Volatility:  volatility,
	}
}

// linearSlope is the least-squares slope of values against their index
func linearSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	// x = 0..n-1, so the x moments have closed forms.
	meanX := (n - 1) / 2
	meanY := stats.Mean(values)

	var sxy, sxx float64
	for i, y := range values {
		dx := float64(i) - meanX
		sxy += dx * (y - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0
	}
	return sxy / sxx
}

// indexCorrelation is the Pearson correlation between values and their index
func indexCorrelation(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	meanX := (n - 1) / 2
	meanY := stats.Mean(values)

	var sxy, sxx, syy float64
	for i, y := range values {
		dx := float64(i) - meanX
		dy := y - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// diff returns successive differences of values
func diff(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}
