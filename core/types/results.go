// Package types - Aggregation result types
// Result structs are snapshots: computed once per query over one filtered
// group, never mutated after construction.
package types

import "time"

// Percentiles holds the fixed percentile set reported by the statistics engine
type Percentiles struct {
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// OutlierSummary reports IQR-based outlier bounds and the count of values
// outside them. Outliers are reported here, not removed; removal happens
// once, batch-wide, in the record processor.
type OutlierSummary struct {
	Count      int     `json:"count"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// ConfidenceInterval is a 95% interval for the mean (normal approximation)
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Statistics is the descriptive statistics snapshot for one group
type Statistics struct {
	// Mean is the sample mean
	Mean float64 `json:"mean"`

	// Median is the 50th percentile
	Median float64 `json:"median"`

	// StdDev is the sample standard deviation (n-1)
	StdDev float64 `json:"std_dev"`

	// Percentiles holds the 25th/75th/90th percentiles
	Percentiles Percentiles `json:"percentiles"`

	// Outliers reports values outside the 1.5x IQR bounds
	Outliers OutlierSummary `json:"outliers"`

	// SampleSize is the number of values in the group
	SampleSize int `json:"sample_size"`

	// ConfidenceInterval is the 95% CI for the mean
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`

	// IQR is the interquartile range (p75 - p25)
	IQR float64 `json:"iqr"`
}

// Trend describes a linear trend over a group's values ordered by period end
type Trend struct {
	// Slope is the least-squares slope over the value sequence
	Slope float64 `json:"slope"`

	// Correlation is the Pearson correlation of index and value
	Correlation float64 `json:"correlation"`

	// Volatility is stddev of successive differences divided by the mean
	Volatility float64 `json:"volatility"`
}

// RangeStatistics pairs group statistics with the group's trend
type RangeStatistics struct {
	Statistics Statistics `json:"statistics"`
	Trend      Trend      `json:"trend_analysis"`
}

// RevenueRangeReport is the result of aggregating one metric by bracket
type RevenueRangeReport struct {
	// Statistics maps each qualifying bracket to its group result
	Statistics map[RevenueRange]RangeStatistics `json:"statistics"`

	// SampleSizes maps each qualifying bracket to its record count
	SampleSizes map[RevenueRange]int `json:"sample_sizes"`
}

// PeriodGranularity is the time-bucketing granularity
type PeriodGranularity string

const (
	PeriodDaily     PeriodGranularity = "daily"
	PeriodWeekly    PeriodGranularity = "weekly"
	PeriodMonthly   PeriodGranularity = "monthly"
	PeriodQuarterly PeriodGranularity = "quarterly"
)

// Valid reports whether g is a defined granularity
func (g PeriodGranularity) Valid() bool {
	switch g {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		return true
	}
	return false
}

// SeasonalitySignal is a best-effort autocorrelation-based seasonality
// estimate, bounded to lags 1..12. It is a heuristic, not a spectral method.
type SeasonalitySignal struct {
	// Strength is the max autocorrelation over lags 1..12 normalized by lag 0
	Strength float64 `json:"seasonal_strength"`

	// LikelyPeriod is the lag achieving the maximum (0 when undetected)
	LikelyPeriod int `json:"likely_period,omitempty"`
}

// RangeTrend summarizes a bracket's behavior across time buckets
type RangeTrend struct {
	// Direction is "up" or "down" from the sign of a linear fit over period means
	Direction string `json:"trend_direction"`

	// Volatility is stddev/mean of the per-period means
	Volatility float64 `json:"volatility"`

	// Seasonality is the autocorrelation seasonality signal
	Seasonality SeasonalitySignal `json:"seasonality"`
}

// TimeSeriesReport is the result of aggregating one metric by time bucket
type TimeSeriesReport struct {
	// TimeSeries maps period label -> bracket -> statistics
	TimeSeries map[string]map[RevenueRange]Statistics `json:"time_series"`

	// Trends maps bracket -> cross-period trend summary
	Trends map[RevenueRange]RangeTrend `json:"trend_analysis"`

	// Metadata describes the query window
	Metadata TimeSeriesMetadata `json:"metadata"`
}

// TimeSeriesMetadata describes a time-series query
type TimeSeriesMetadata struct {
	Granularity  PeriodGranularity `json:"period_type"`
	Start        *time.Time        `json:"start_date,omitempty"`
	End          *time.Time        `json:"end_date,omitempty"`
	TotalPeriods int               `json:"total_periods"`
}

// PercentileBand is a bootstrap confidence interval for one percentile
type PercentileBand struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PercentilePoint is one requested percentile with its bootstrap CI
type PercentilePoint struct {
	// Percentile is the requested target in [0, 100]
	Percentile float64 `json:"percentile"`

	// Value is the percentile of the bracket's values
	Value float64 `json:"value"`

	// ConfidenceInterval is the bootstrap 95% CI (2.5th/97.5th of resamples)
	ConfidenceInterval PercentileBand `json:"confidence_interval"`
}

// DistributionShape reports higher-moment shape statistics for a bracket
type DistributionShape struct {
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// PercentileResult is the percentile distribution for one bracket
type PercentileResult struct {
	Points       []PercentilePoint `json:"percentiles"`
	SampleSize   int               `json:"sample_size"`
	Distribution DistributionShape `json:"distribution_stats"`
}

// ComparisonMetadata describes a peer comparison query
type ComparisonMetadata struct {
	SampleSize      int     `json:"sample_size"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// ComparisonReport ranks a single company value against its peer cohort
type ComparisonReport struct {
	// CompanyValue is the value being ranked
	CompanyValue float64 `json:"company_value"`

	// Percentile is the rank-based percentile estimate: the leftmost
	// insertion position of the value into the sorted peer values, divided
	// by the sample size, times 100.
	Percentile float64 `json:"percentile"`

	// PeerStatistics is the peer cohort's statistics snapshot
	PeerStatistics Statistics `json:"benchmark_stats"`

	// Insights are human-readable comparison statements
	Insights []string `json:"insights"`

	// Recommendations are human-readable improvement suggestions
	Recommendations []string `json:"recommendations"`

	// Metadata describes the query
	Metadata ComparisonMetadata `json:"metadata"`
}
