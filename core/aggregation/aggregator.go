// Package aggregation - Benchmark aggregation engine
// Groups cleaned observations by revenue bracket and time bucket, computes
// per-group statistics with trend and seasonality analysis, and ranks single
// company values against their peer cohort. All operations are read-only
// over the dataset; the injected result cache is the only mutable shared
// state.
package aggregation

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"saas-benchmark/core/cache"
	"saas-benchmark/core/stats"
	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
	"saas-benchmark/internal/logging"
)

// Config contains aggregation engine settings
type Config struct {
	// MinSampleSize is the minimum group size for computing statistics
	MinSampleSize int

	// OutlierThreshold is the IQR multiplier for outlier exclusion
	OutlierThreshold float64

	// BootstrapIterations is the resample count for percentile CIs
	BootstrapIterations int

	// ConfidenceLevel is reported in comparison metadata
	ConfidenceLevel float64

	// CacheTTL is how long computed results stay cached
	CacheTTL time.Duration
}

// DefaultConfig returns the default engine settings
func DefaultConfig() Config {
	return Config{
		MinSampleSize:       3,
		OutlierThreshold:    1.5,
		BootstrapIterations: 1000,
		ConfidenceLevel:     0.95,
		CacheTTL:            time.Hour,
	}
}

// Aggregator computes benchmark reports over an immutable cleaned dataset.
// Safe for concurrent use: the dataset is never mutated, the cache handles
// its own locking, and the bootstrap RNG is guarded.
type Aggregator struct {
	dataset *types.Dataset
	cfg     Config
	cache   cache.Cache
	logger  *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an aggregator over a cleaned dataset. A nil cache disables
// result caching.
func New(dataset *types.Dataset, cfg Config, resultCache cache.Cache) *Aggregator {
	if cfg.MinSampleSize <= 0 {
		cfg.MinSampleSize = 3
	}
	if cfg.OutlierThreshold <= 0 {
		cfg.OutlierThreshold = 1.5
	}
	if cfg.BootstrapIterations <= 0 {
		cfg.BootstrapIterations = 1000
	}
	if resultCache == nil {
		resultCache = cache.None{}
	}
	return &Aggregator{
		dataset: dataset,
		cfg:     cfg,
		cache:   resultCache,
		logger:  logging.Named("aggregation"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed reseeds the bootstrap RNG. Used by tests for deterministic resampling.
func (a *Aggregator) Seed(seed int64) {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	a.rng = rand.New(rand.NewSource(seed))
}

// AggregateByRevenueRange partitions a metric's observations by revenue
// bracket and computes per-bracket statistics with a linear trend. Brackets
// below the minimum sample size are skipped; a failure computing one bracket
// is logged and that bracket is skipped rather than failing the call.
func (a *Aggregator) AggregateByRevenueRange(metricID string, ranges []types.RevenueRange) (*types.RevenueRangeReport, error) {
	if metricID == "" {
		return nil, errors.Validation("metric name must be specified")
	}

	key := fmt.Sprintf("revenue_range_%s_%v", metricID, ranges)
	if cached, ok := a.cache.Get(key); ok {
		if report, ok := cached.(*types.RevenueRangeReport); ok {
			return report, nil
		}
	}

	records := a.dataset.FilterMetric(metricID)
	if len(ranges) > 0 {
		allowed := make(map[types.RevenueRange]bool, len(ranges))
		for _, r := range ranges {
			allowed[r] = true
		}
		filtered := records[:0:0]
		for _, rec := range records {
			if allowed[rec.RevenueRange] {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if len(records) == 0 {
		return nil, errors.Validationf("no data found for metric: %s", metricID)
	}

	report := &types.RevenueRangeReport{
		Statistics:  make(map[types.RevenueRange]types.RangeStatistics),
		SampleSizes: make(map[types.RevenueRange]int),
	}

	for revenueRange, group := range types.GroupByRange(records) {
		if len(group) < a.cfg.MinSampleSize {
			a.logger.Warn("insufficient data points for bracket",
				zap.String("metric", metricID),
				zap.String("revenue_range", revenueRange.String()),
				zap.Int("count", len(group)))
			continue
		}

		groupStats, err := stats.Compute(types.Values(group))
		if err != nil {
			// One bad bracket must not block the others.
			a.logger.Error("failed computing statistics for bracket",
				zap.String("revenue_range", revenueRange.String()),
				zap.Error(err))
			continue
		}

		report.Statistics[revenueRange] = types.RangeStatistics{
			Statistics: groupStats,
			Trend:      computeTrend(valuesByPeriodEnd(group)),
		}
		report.SampleSizes[revenueRange] = len(group)
	}

	a.cache.Put(key, report, a.cfg.CacheTTL)
	return report, nil
}

// CompareToPeers ranks a single company value against the peer cohort for
// one (metric, bracket) pair. Unlike the group-by operations there is no
// partial answer to give, so any failure propagates to the caller.
func (a *Aggregator) CompareToPeers(metricID string, revenueRange types.RevenueRange, companyValue decimal.Decimal) (*types.ComparisonReport, error) {
	if metricID == "" {
		return nil, errors.Validation("metric name must be specified")
	}
	if !revenueRange.Valid() {
		return nil, errors.Validationf("invalid revenue range: %q", revenueRange)
	}

	key := fmt.Sprintf("comparison_%s_%s_%s", metricID, revenueRange, companyValue)
	if cached, ok := a.cache.Get(key); ok {
		if report, ok := cached.(*types.ComparisonReport); ok {
			return report, nil
		}
	}

	peers := a.dataset.FilterMetricRange(metricID, revenueRange)
	if len(peers) == 0 {
		return nil, errors.Validationf("no benchmark data for %s in %s", metricID, revenueRange)
	}

	peerValues := types.Values(peers)
	peerStats, err := stats.Compute(peerValues)
	if err != nil {
		return nil, err
	}

	value, _ := companyValue.Float64()
	percentile := percentileRank(peerValues, value)

	report := &types.ComparisonReport{
		CompanyValue:    value,
		Percentile:      percentile,
		PeerStatistics:  peerStats,
		Insights:        buildInsights(value, peerStats, percentile),
		Recommendations: buildRecommendations(metricID, value, peerStats),
		Metadata: types.ComparisonMetadata{
			SampleSize:      len(peers),
			ConfidenceLevel: a.cfg.ConfidenceLevel,
		},
	}

	a.cache.Put(key, report, a.cfg.CacheTTL)
	return report, nil
}

// percentileRank estimates the percentile standing of value among peers as
// rank/n*100, where rank is the leftmost insertion position into the sorted
// peer values. A rank-based approximation, not percentile-of-value
// interpolation.
func percentileRank(peerValues []float64, value float64) float64 {
	sorted := make([]float64, len(peerValues))
	copy(sorted, peerValues)
	sort.Float64s(sorted)

	rank := sort.SearchFloat64s(sorted, value)
	return float64(rank) / float64(len(sorted)) * 100
}

func buildInsights(value float64, peerStats types.Statistics, percentile float64) []string {
	var insights []string

	if peerStats.Median != 0 {
		relative := (value - peerStats.Median) / peerStats.Median * 100
		direction := "above"
		if relative < 0 {
			direction = "below"
			relative = -relative
		}
		insights = append(insights,
			fmt.Sprintf("Performance is %.1f%% %s median", relative, direction))
	}

	insights = append(insights,
		fmt.Sprintf("Performs better than %.1f%% of companies in the same revenue range", percentile))

	if peerStats.Median != 0 {
		marketVolatility := peerStats.IQR / peerStats.Median
		level := "moderate"
		if marketVolatility > 0.5 {
			level = "high"
		}
		insights = append(insights,
			fmt.Sprintf("Market shows %s volatility at %.2f coefficient", level, marketVolatility))
	}

	return insights
}

func buildRecommendations(metricID string, value float64, peerStats types.Statistics) []string {
	var recommendations []string

	if gap := peerStats.Percentiles.P75 - value; gap > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Opportunity to improve %s by %.1f to reach top quartile performance", metricID, gap))
	}

	if value < peerStats.Percentiles.P25 {
		recommendations = append(recommendations,
			fmt.Sprintf("Consider strategies to improve %s as current performance is in bottom quartile", metricID))
	}

	return recommendations
}

// valuesByPeriodEnd returns the group's values ordered by period end
func valuesByPeriodEnd(group []types.Observation) []float64 {
	ordered := make([]types.Observation, len(group))
	copy(ordered, group)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PeriodEnd.Before(ordered[j].PeriodEnd)
	})
	return types.Values(ordered)
}
