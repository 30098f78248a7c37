// Package aggregation - Percentile distributions with bootstrap CIs
package aggregation

import (
	"fmt"

	"saas-benchmark/core/stats"
	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
)

// Bootstrap CI bounds: the 2.5th/97.5th percentiles of the resampled
// percentile distribution form a 95% interval.
const (
	bootstrapLowerPercentile = 2.5
	bootstrapUpperPercentile = 97.5
)

// ComputePercentiles calculates requested percentiles per revenue bracket
// for one metric, with bootstrap 95% confidence intervals and distribution
// shape statistics. When excludeOutliers is set, 1.5x IQR outliers are
// stripped per bracket before computing. Brackets below the minimum sample
// size are skipped.
func (a *Aggregator) ComputePercentiles(metricID string, percentiles []float64, excludeOutliers bool) (map[types.RevenueRange]types.PercentileResult, error) {
	if metricID == "" {
		return nil, errors.Validation("metric name must be specified")
	}
	if len(percentiles) == 0 {
		return nil, errors.Validation("no percentiles specified")
	}
	for _, p := range percentiles {
		if p < 0 || p > 100 {
			return nil, errors.Validationf("percentiles must be between 0 and 100, got %g", p)
		}
	}

	key := fmt.Sprintf("percentiles_%s_%v_%t", metricID, percentiles, excludeOutliers)
	if cached, ok := a.cache.Get(key); ok {
		if result, ok := cached.(map[types.RevenueRange]types.PercentileResult); ok {
			return result, nil
		}
	}

	records := a.dataset.FilterMetric(metricID)
	if len(records) == 0 {
		return nil, errors.Validationf("no data found for metric: %s", metricID)
	}

	results := make(map[types.RevenueRange]types.PercentileResult)
	for revenueRange, group := range types.GroupByRange(records) {
		values := types.Values(group)
		if excludeOutliers {
			values = stripOutliers(values, a.cfg.OutlierThreshold)
		}
		if len(values) < a.cfg.MinSampleSize {
			continue
		}

		bands := a.bootstrapPercentileBands(values, percentiles)

		points := make([]types.PercentilePoint, len(percentiles))
		for i, p := range percentiles {
			points[i] = types.PercentilePoint{
				Percentile:         p,
				Value:              stats.Percentile(values, p),
				ConfidenceInterval: bands[i],
			}
		}

		results[revenueRange] = types.PercentileResult{
			Points:     points,
			SampleSize: len(values),
			Distribution: types.DistributionShape{
				Skewness: stats.Skewness(values),
				Kurtosis: stats.Kurtosis(values),
			},
		}
	}

	a.cache.Put(key, results, a.cfg.CacheTTL)
	return results, nil
}

// bootstrapPercentileBands resamples values with replacement, computes the
// target percentiles on each resample, and takes the 2.5th/97.5th
// percentiles of the resulting distributions. Bounded at a fixed iteration
// count, so it completes deterministically in bounded time.
func (a *Aggregator) bootstrapPercentileBands(values []float64, percentiles []float64) []types.PercentileBand {
	iterations := a.cfg.BootstrapIterations
	samples := make([][]float64, len(percentiles))
	for i := range samples {
		samples[i] = make([]float64, iterations)
	}

	resample := make([]float64, len(values))
	a.rngMu.Lock()
	for iter := 0; iter < iterations; iter++ {
		for j := range resample {
			resample[j] = values[a.rng.Intn(len(values))]
		}
		for i, p := range percentiles {
			samples[i][iter] = stats.Percentile(resample, p)
		}
	}
	a.rngMu.Unlock()

	bands := make([]types.PercentileBand, len(percentiles))
	for i := range percentiles {
		bands[i] = types.PercentileBand{
			Lower: stats.Percentile(samples[i], bootstrapLowerPercentile),
			Upper: stats.Percentile(samples[i], bootstrapUpperPercentile),
		}
	}
	return bands
}

// stripOutliers removes values outside the IQR fences
func stripOutliers(values []float64, multiplier float64) []float64 {
	if len(values) == 0 {
		return values
	}
	lower, upper := stats.OutlierBounds(values, multiplier)
	kept := values[:0:0]
	for _, v := range values {
		if v >= lower && v <= upper {
			kept = append(kept, v)
		}
	}
	return kept
}
