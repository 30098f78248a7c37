// Package aggregation - Time-bucketed aggregation and trend analysis
package aggregation

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"saas-benchmark/core/stats"
	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
)

// maxSeasonalityLag bounds the autocorrelation search. Monthly data with an
// annual cycle peaks at lag 12.
const maxSeasonalityLag = 12

// minSeasonalityPoints is the shortest series seasonality is attempted on
const minSeasonalityPoints = 4

// AggregateByTimePeriod buckets a metric's observations into
// (period, bracket) cells by period-end date truncated to the granularity,
// computes statistics per qualifying cell, and derives per-bracket trend
// direction, volatility, and a seasonality signal across periods.
func (a *Aggregator) AggregateByTimePeriod(metricID string, granularity types.PeriodGranularity, start, end *time.Time) (*types.TimeSeriesReport, error) {
	if metricID == "" {
		return nil, errors.Validation("metric name must be specified")
	}
	if !granularity.Valid() {
		return nil, errors.Validationf("invalid period type: %q, must be one of daily, weekly, monthly, quarterly", granularity)
	}

	key := fmt.Sprintf("time_period_%s_%s_%s_%s", metricID, granularity, timeKey(start), timeKey(end))
	if cached, ok := a.cache.Get(key); ok {
		if report, ok := cached.(*types.TimeSeriesReport); ok {
			return report, nil
		}
	}

	records := a.dataset.FilterMetric(metricID)
	filtered := records[:0:0]
	for _, rec := range records {
		if start != nil && rec.PeriodEnd.Before(*start) {
			continue
		}
		if end != nil && rec.PeriodStart.After(*end) {
			continue
		}
		filtered = append(filtered, rec)
	}

	// Bucket into (period, bracket) cells.
	cells := make(map[string]map[types.RevenueRange][]float64)
	for _, rec := range filtered {
		period := periodLabel(rec.PeriodEnd, granularity)
		if cells[period] == nil {
			cells[period] = make(map[types.RevenueRange][]float64)
		}
		cells[period][rec.RevenueRange] = append(cells[period][rec.RevenueRange], rec.ValueFloat())
	}

	timeSeries := make(map[string]map[types.RevenueRange]types.Statistics)
	for period, byRange := range cells {
		for revenueRange, values := range byRange {
			if len(values) < a.cfg.MinSampleSize {
				continue
			}
			cellStats, err := stats.Compute(values)
			if err != nil {
				a.logger.Warn("failed computing statistics for cell",
					zap.String("period", period),
					zap.String("revenue_range", revenueRange.String()),
					zap.Error(err))
				continue
			}
			if timeSeries[period] == nil {
				timeSeries[period] = make(map[types.RevenueRange]types.Statistics)
			}
			timeSeries[period][revenueRange] = cellStats
		}
	}

	report := &types.TimeSeriesReport{
		TimeSeries: timeSeries,
		Trends:     analyzeTimeSeriesTrends(timeSeries),
		Metadata: types.TimeSeriesMetadata{
			Granularity:  granularity,
			Start:        start,
			End:          end,
			TotalPeriods: len(timeSeries),
		},
	}

	a.cache.Put(key, report, a.cfg.CacheTTL)
	return report, nil
}

// analyzeTimeSeriesTrends derives per-bracket direction, volatility, and
// seasonality from the per-period mean series, in chronological order.
// Brackets appearing in fewer than two periods are skipped.
func analyzeTimeSeriesTrends(timeSeries map[string]map[types.RevenueRange]types.Statistics) map[types.RevenueRange]types.RangeTrend {
	periods := make([]string, 0, len(timeSeries))
	for period := range timeSeries {
		periods = append(periods, period)
	}
	// Period labels are chosen to sort chronologically as strings.
	sort.Strings(periods)

	seen := make(map[types.RevenueRange]bool)
	for _, byRange := range timeSeries {
		for revenueRange := range byRange {
			seen[revenueRange] = true
		}
	}

	trends := make(map[types.RevenueRange]types.RangeTrend)
	for revenueRange := range seen {
		var series []float64
		for _, period := range periods {
			if cellStats, ok := timeSeries[period][revenueRange]; ok {
				series = append(series, cellStats.Mean)
			}
		}
		if len(series) < 2 {
			continue
		}

		direction := "down"
		if linearSlope(series) > 0 {
			direction = "up"
		}

		volatility := 0.0
		if mean := stats.Mean(series); mean != 0 {
			volatility = stats.PopulationStdDev(series) / mean
		}

		trends[revenueRange] = types.RangeTrend{
			Direction:   direction,
			Volatility:  volatility,
			Seasonality: detectSeasonality(series),
		}
	}
	return trends
}

// detectSeasonality estimates a seasonality signal from the raw
// autocorrelation of the per-period mean series. Strength is the maximum
// autocorrelation over lags 1..12 normalized by lag 0; the likely period is
// the lag achieving it. Best-effort signal, not a guarantee.
func detectSeasonality(series []float64) types.SeasonalitySignal {
	if len(series) < minSeasonalityPoints {
		return types.SeasonalitySignal{}
	}

	maxLag := len(series) - 1
	if maxLag > maxSeasonalityLag {
		maxLag = maxSeasonalityLag
	}

	acf0 := autocorrelation(series, 0)
	if acf0 == 0 {
		return types.SeasonalitySignal{}
	}

	best := 0.0
	bestLag := 0
	for lag := 1; lag <= maxLag; lag++ {
		ac := autocorrelation(series, lag)
		if bestLag == 0 || ac > best {
			best = ac
			bestLag = lag
		}
	}

	return types.SeasonalitySignal{
		Strength:     best / acf0,
		LikelyPeriod: bestLag,
	}
}

// autocorrelation is the raw (uncentered) autocorrelation at a lag
func autocorrelation(series []float64, lag int) float64 {
	var sum float64
	for i := 0; i+lag < len(series); i++ {
		sum += series[i] * series[i+lag]
	}
	return sum
}

// periodLabel truncates t to the granularity. Label formats are chosen so
// lexicographic order equals chronological order.
func periodLabel(t time.Time, granularity types.PeriodGranularity) string {
	switch granularity {
	case types.PeriodDaily:
		return t.Format("2006-01-02")
	case types.PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case types.PeriodMonthly:
		return t.Format("2006-01")
	default: // quarterly
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%dQ%d", t.Year(), quarter)
	}
}

func timeKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
