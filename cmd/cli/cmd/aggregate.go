// Package cmd - aggregate commands
package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"saas-benchmark/core/aggregation"
	"saas-benchmark/core/processing"
	"saas-benchmark/core/types"
	"saas-benchmark/internal/config"
)

var (
	aggMetric          string
	aggRanges          []string
	aggPeriodType      string
	aggStartDate       string
	aggEndDate         string
	aggPercentiles     []float64
	aggExcludeOutliers bool
	compareRange       string
	compareValue       string
)

// aggregateCmd groups the benchmark aggregation commands
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate benchmark observations",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var revenueRangeCmd = &cobra.Command{
	Use:   "revenue-range [file]",
	Short: "Aggregate a metric by revenue range",
	Long: `Group observations by revenue range and compute descriptive
statistics and trend analysis per bracket.

Examples:
  saas-benchmark aggregate revenue-range --metric NDR observations.json
  saas-benchmark aggregate revenue-range --metric NDR --range 1M-5M --range 5M-10M observations.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := buildAggregator(args[0])
		if err != nil {
			return err
		}

		var ranges []types.RevenueRange
		for _, r := range aggRanges {
			parsed, err := types.ParseRevenueRange(r)
			if err != nil {
				return err
			}
			ranges = append(ranges, parsed)
		}

		report, err := agg.AggregateByRevenueRange(aggMetric, ranges)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var timePeriodCmd = &cobra.Command{
	Use:   "time-period [file]",
	Short: "Aggregate a metric over time periods",
	Long: `Bucket observations by calendar period and revenue range and
compute per-cell statistics plus per-range trend analysis.

Examples:
  saas-benchmark aggregate time-period --metric NDR --period monthly observations.json
  saas-benchmark aggregate time-period --metric NDR --period quarterly --start 2024-01-01 observations.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := buildAggregator(args[0])
		if err != nil {
			return err
		}

		start, err := parseDateFlag(aggStartDate)
		if err != nil {
			return err
		}
		end, err := parseDateFlag(aggEndDate)
		if err != nil {
			return err
		}

		report, err := agg.AggregateByTimePeriod(aggMetric, types.PeriodGranularity(aggPeriodType), start, end)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var percentilesCmd = &cobra.Command{
	Use:   "percentiles [file]",
	Short: "Compute percentile bands with bootstrap confidence intervals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := buildAggregator(args[0])
		if err != nil {
			return err
		}

		result, err := agg.ComputePercentiles(aggMetric, aggPercentiles, aggExcludeOutliers)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [file]",
	Short: "Compare a company value against its peer group",
	Long: `Place a company's metric value within its revenue-range peer group:
percentile rank, peer statistics, insights, and recommendations.

Example:
  saas-benchmark aggregate compare --metric NDR --range 1M-5M --value 112.5 observations.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := buildAggregator(args[0])
		if err != nil {
			return err
		}

		revRange, err := types.ParseRevenueRange(compareRange)
		if err != nil {
			return err
		}
		value, err := decimal.NewFromString(compareValue)
		if err != nil {
			return fmt.Errorf("invalid value for --value: %q", compareValue)
		}

		report, err := agg.CompareToPeers(aggMetric, revRange, value)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	aggregateCmd.PersistentFlags().StringVarP(&aggMetric, "metric", "m", "", "metric name to aggregate")
	aggregateCmd.MarkPersistentFlagRequired("metric")

	revenueRangeCmd.Flags().StringArrayVar(&aggRanges, "range", nil, "restrict to these revenue ranges (repeatable)")

	timePeriodCmd.Flags().StringVarP(&aggPeriodType, "period", "p", "monthly", "period granularity (daily, weekly, monthly, quarterly)")
	timePeriodCmd.Flags().StringVar(&aggStartDate, "start", "", "window start date (YYYY-MM-DD)")
	timePeriodCmd.Flags().StringVar(&aggEndDate, "end", "", "window end date (YYYY-MM-DD)")

	percentilesCmd.Flags().Float64SliceVar(&aggPercentiles, "percentile", []float64{25, 50, 75, 90}, "percentiles to compute")
	percentilesCmd.Flags().BoolVar(&aggExcludeOutliers, "exclude-outliers", false, "strip IQR outliers per bracket first")

	compareCmd.Flags().StringVar(&compareRange, "range", "", "company revenue range")
	compareCmd.Flags().StringVar(&compareValue, "value", "", "company metric value")
	compareCmd.MarkFlagRequired("range")
	compareCmd.MarkFlagRequired("value")

	aggregateCmd.AddCommand(revenueRangeCmd)
	aggregateCmd.AddCommand(timePeriodCmd)
	aggregateCmd.AddCommand(percentilesCmd)
	aggregateCmd.AddCommand(compareCmd)
}

func buildAggregator(path string) (*aggregation.Aggregator, error) {
	batch, err := readObservations(path)
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	processor := processing.NewProcessor(cfg.Aggregation.OutlierThreshold)
	dataset, err := processor.ProcessBatch(batch)
	if err != nil {
		return nil, err
	}

	aggCfg := aggregation.Config{
		MinSampleSize:       cfg.Aggregation.MinSampleSize,
		OutlierThreshold:    cfg.Aggregation.OutlierThreshold,
		BootstrapIterations: cfg.Aggregation.BootstrapIterations,
		ConfidenceLevel:     cfg.Aggregation.ConfidenceLevel,
	}
	return aggregation.New(dataset, aggCfg, nil), nil
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
