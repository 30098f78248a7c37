// Package aggregation - Aggregation engine tests
package aggregation

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saas-benchmark/core/cache"
	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

// obs builds a validated observation for tests. Period end drives time
// bucketing; the start is pinned three months earlier.
func obs(t *testing.T, id string, value float64, revenueRange types.RevenueRange, end time.Time) types.Observation {
	t.Helper()
	o, err := types.NewObservation(types.RawObservation{
		ID:           id,
		MetricID:     "NDR",
		SourceID:     "survey-2024",
		RevenueRange: string(revenueRange),
		Value:        fmt.Sprintf("%g", value),
		PeriodStart:  end.AddDate(0, -3, 0),
		PeriodEnd:    end,
	})
	if err != nil {
		t.Fatalf("building observation %s: %v", id, err)
	}
	return o
}

// benchmarkDataset builds ten 1M-5M observations with values 100..145 in
// steps of 5, plus two 5M-10M observations below the minimum sample size.
func benchmarkDataset(t *testing.T) *types.Dataset {
	t.Helper()
	var records []types.Observation
	for i := 0; i < 10; i++ {
		end := time.Date(2024, time.Month(i+1), 28, 0, 0, 0, 0, time.UTC)
		records = append(records, obs(t, fmt.Sprintf("small-%d", i), 100+float64(i)*5, types.Range1MTo5M, end))
	}
	for i := 0; i < 2; i++ {
		end := time.Date(2024, time.Month(i+1), 28, 0, 0, 0, 0, time.UTC)
		records = append(records, obs(t, fmt.Sprintf("mid-%d", i), 90+float64(i), types.Range5MTo10M, end))
	}
	return &types.Dataset{Records: records}
}

func newTestAggregator(t *testing.T, dataset *types.Dataset) *Aggregator {
	t.Helper()
	a := New(dataset, DefaultConfig(), nil)
	a.Seed(42)
	return a
}

// TestAggregateByRevenueRange verifies per-bracket statistics and that
// undersized brackets are skipped without failing the call
func TestAggregateByRevenueRange(t *testing.T) {
	a := newTestAggregator(t, benchmarkDataset(t))

	report, err := a.AggregateByRevenueRange("NDR", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	small, ok := report.Statistics[types.Range1MTo5M]
	if !ok {
		t.Fatal("missing 1M-5M bracket")
	}
	if !almostEqual(small.Statistics.Mean, 122.5) {
		t.Errorf("mean = %g, want 122.5", small.Statistics.Mean)
	}
	if report.SampleSizes[types.Range1MTo5M] != 10 {
		t.Errorf("sample size = %d, want 10", report.SampleSizes[types.Range1MTo5M])
	}

	// Two observations are below the minimum sample size; the bracket is
	// skipped, not an error.
	if _, ok := report.Statistics[types.Range5MTo10M]; ok {
		t.Error("undersized 5M-10M bracket should have been skipped")
	}

	// Values rise monotonically by period end, so the trend is a perfect
	// positive line.
	if small.Trend.Slope <= 0 {
		t.Errorf("slope = %g, want > 0", small.Trend.Slope)
	}
	if !almostEqual(small.Trend.Correlation, 1) {
		t.Errorf("correlation = %g, want 1", small.Trend.Correlation)
	}
}

// TestAggregateByRevenueRangeValidation covers the rejection paths
func TestAggregateByRevenueRangeValidation(t *testing.T) {
	a := newTestAggregator(t, benchmarkDataset(t))

	if _, err := a.AggregateByRevenueRange("", nil); err == nil {
		t.Error("expected error for empty metric")
	}

	_, err := a.AggregateByRevenueRange("ChurnRate", nil)
	if err == nil {
		t.Fatal("expected error for unknown metric")
	}
	if !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no data found for metric: ChurnRate") {
		t.Errorf("unexpected message: %v", err)
	}
}

// TestAggregateByRevenueRangeRangeFilter verifies the optional bracket filter
func TestAggregateByRevenueRangeRangeFilter(t *testing.T) {
	a := newTestAggregator(t, benchmarkDataset(t))

	// Restricting to an undersized bracket yields an empty report.
	report, err := a.AggregateByRevenueRange("NDR", []types.RevenueRange{types.Range5MTo10M})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Statistics) != 0 {
		t.Errorf("statistics for %d brackets, want 0", len(report.Statistics))
	}

	// Restricting to a bracket with no records at all is a miss.
	if _, err := a.AggregateByRevenueRange("NDR", []types.RevenueRange{types.Range50MPlus}); err == nil {
		t.Error("expected error when the filter matches nothing")
	}
}

// TestAggregateByRevenueRangeCaches verifies repeated queries hit the cache
func TestAggregateByRevenueRangeCaches(t *testing.T) {
	a := New(benchmarkDataset(t), DefaultConfig(), cache.NewMemory(0))

	first, err := a.AggregateByRevenueRange("NDR", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.AggregateByRevenueRange("NDR", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("second call did not return the cached report")
	}
}

// TestCompareToPeers verifies percentile rank and peer statistics
func TestCompareToPeers(t *testing.T) {
	a := newTestAggregator(t, benchmarkDataset(t))

	report, err := a.CompareToPeers("NDR", types.Range1MTo5M, decimal.NewFromFloat(122.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(report.Percentile, 50) {
		t.Errorf("percentile = %g, want 50", report.Percentile)
	}
	if report.Metadata.SampleSize != 10 {
		t.Errorf("sample size = %d, want 10", report.Metadata.SampleSize)
	}
	if !almostEqual(report.Metadata.ConfidenceLevel, 0.95) {
		t.Errorf("confidence level = %g, want 0.95", report.Metadata.ConfidenceLevel)
	}
	if !almostEqual(report.PeerStatistics.Median, 122.5) {
		t.Errorf("peer median = %g, want 122.5", report.PeerStatistics.Median)
	}
	if len(report.Insights) == 0 {
		t.Error("expected insights")
	}
}

// TestCompareToPeersPercentileEdges verifies the rank estimator at the
// extremes: the maximum ranks at (n-1)/n*100, the minimum at 0
func TestCompareToPeersPercentileEdges(t *testing.T) {
	a := newTestAggregator(t, benchmarkDataset(t))

	top, err := a.CompareToPeers("NDR", types.Range1MTo5M, decimal.NewFromFloat(145))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(top.Percentile, 90) {
		t.Errorf("max value percentile = %g, want 90", top.Percentile)
	}

	bottom, err := a.CompareToPeers("NDR", types.Range1MTo5M, decimal.NewFromFloat(90))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(bottom.Percentile, 0) {
		t.Errorf("below-min percentile = %g, want 0", bottom.Percentile)
	}
}

// TestCompareToPeersRecommendations verifies the quartile-based guidance
func TestCompareToPeersRecommendations(t *testing.T) {
	a := newTestAggregator(t, benchmarkDataset(t))

	// 110 sits below the 25th percentile (111.25), so both the gap and the
	// bottom-quartile recommendations fire.
	low, err := a.CompareToPeers("NDR", types.Range1MTo5M, decimal.NewFromFloat(110))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(low.Recommendations) != 2 {
		t.Fatalf("recommendations = %d, want 2: %v", len(low.Recommendations), low.Recommendations)
	}
	if !strings.Contains(low.Recommendations[0], "top quartile") {
		t.Errorf("unexpected first recommendation: %s", low.Recommendations[0])
	}
	if !strings.Contains(low.Recommendations[1], "bottom quartile") {
		t.Errorf("unexpected second recommendation: %s", low.Recommendations[1])
	}

	// 140 is above the 75th percentile (133.75); nothing to recommend.
	high, err := a.CompareToPeers("NDR", types.Range1MTo5M, decimal.NewFromFloat(140))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(high.Recommendations) != 0 {
		t.Errorf("recommendations for top performer = %v, want none", high.Recommendations)
	}
}

// TestCompareToPeersValidation covers the rejection paths
func TestCompareToPeersValidation(t *testing.T) {
	a := newTestAggregator(t, benchmarkDataset(t))

	if _, err := a.CompareToPeers("", types.Range1MTo5M, decimal.NewFromInt(100)); err == nil {
		t.Error("expected error for empty metric")
	}
	if _, err := a.CompareToPeers("NDR", types.RevenueRange("3M-7M"), decimal.NewFromInt(100)); err == nil {
		t.Error("expected error for invalid revenue range")
	}

	_, err := a.CompareToPeers("NDR", types.Range50MPlus, decimal.NewFromInt(100))
	if err == nil {
		t.Fatal("expected error for bracket without data")
	}
	if !strings.Contains(err.Error(), "no benchmark data for NDR in 50M+") {
		t.Errorf("unexpected message: %v", err)
	}
}

// TestPercentileRank verifies the rank estimator directly
func TestPercentileRank(t *testing.T) {
	peers := []float64{100, 105, 110, 115, 120, 125, 130, 135, 140, 145}

	cases := []struct {
		value float64
		want  float64
	}{
		{90, 0},     // below every peer
		{100, 0},    // leftmost insertion at the minimum
		{122.5, 50}, // between the middle pair
		{145, 90},   // leftmost insertion at the maximum
		{200, 100},  // above every peer
	}
	for _, tc := range cases {
		if got := percentileRank(peers, tc.value); !almostEqual(got, tc.want) {
			t.Errorf("percentileRank(%g) = %g, want %g", tc.value, got, tc.want)
		}
	}
}
