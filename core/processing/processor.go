// Package processing - Record processor
// Validates, deduplicates, and cleans a raw observation batch into an
// immutable dataset. Cleaning happens once, batch-wide, before any grouping;
// the statistics engine only ever reports outliers on already-cleaned groups.
package processing

import (
	"strings"

	"go.uber.org/zap"

	"saas-benchmark/core/stats"
	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
	"saas-benchmark/internal/logging"
)

// DefaultOutlierThreshold is the IQR multiplier used for batch cleaning
const DefaultOutlierThreshold = 1.5

// Processor cleans raw observation batches
type Processor struct {
	outlierThreshold float64
	logger           *zap.Logger
}

// NewProcessor creates a processor with the given IQR multiplier.
// A non-positive multiplier falls back to the default.
func NewProcessor(outlierThreshold float64) *Processor {
	if outlierThreshold <= 0 {
		outlierThreshold = DefaultOutlierThreshold
	}
	return &Processor{
		outlierThreshold: outlierThreshold,
		logger:           logging.Named("processing"),
	}
}

// ProcessBatch runs the fixed cleaning pipeline over a raw batch:
// required-field check, dedup by id (last occurrence wins), positive-period
// filter, numeric coercion, and batch-wide IQR outlier removal. Per-record
// drops are counted and logged, never fail the batch; structural problems
// (empty batch, missing fields) do.
func (p *Processor) ProcessBatch(batch []types.RawObservation) (*types.Dataset, error) {
	if len(batch) == 0 {
		return nil, errors.Validation("empty observation batch provided")
	}

	if err := checkRequiredFields(batch); err != nil {
		return nil, err
	}

	summary := types.ProcessingSummary{Received: len(batch)}

	// Deduplicate by id, keeping the last occurrence in input order.
	lastIndex := make(map[string]int, len(batch))
	for i, raw := range batch {
		lastIndex[strings.TrimSpace(raw.ID)] = i
	}
	deduped := make([]types.RawObservation, 0, len(lastIndex))
	for i, raw := range batch {
		if lastIndex[strings.TrimSpace(raw.ID)] == i {
			deduped = append(deduped, raw)
		} else {
			summary.DuplicatesRemoved++
		}
	}

	// Drop non-positive periods. Logged, not fatal.
	periodFiltered := deduped[:0:0]
	for _, raw := range deduped {
		if !raw.PeriodEnd.After(raw.PeriodStart) {
			summary.InvalidPeriodsRemoved++
			continue
		}
		periodFiltered = append(periodFiltered, raw)
	}
	if summary.InvalidPeriodsRemoved > 0 {
		p.logger.Warn("dropped records with invalid period ranges",
			zap.Int("count", summary.InvalidPeriodsRemoved))
	}

	// Coerce values and construct validated observations; drop failures.
	records := make([]types.Observation, 0, len(periodFiltered))
	for _, raw := range periodFiltered {
		obs, err := types.NewObservation(raw)
		if err != nil {
			summary.InvalidValuesRemoved++
			p.logger.Debug("dropped record failing validation",
				zap.String("id", raw.ID), zap.Error(err))
			continue
		}
		records = append(records, obs)
	}
	if summary.InvalidValuesRemoved > 0 {
		p.logger.Warn("dropped records with invalid values",
			zap.Int("count", summary.InvalidValuesRemoved))
	}

	// Batch-wide IQR outlier removal over the value column.
	if len(records) > 0 {
		lower, upper := stats.OutlierBounds(types.Values(records), p.outlierThreshold)
		cleaned := records[:0:0]
		for _, obs := range records {
			v := obs.ValueFloat()
			if v < lower || v > upper {
				summary.OutliersRemoved++
				continue
			}
			cleaned = append(cleaned, obs)
		}
		records = cleaned
		if summary.OutliersRemoved > 0 {
			p.logger.Warn("removed outliers from batch",
				zap.Int("count", summary.OutliersRemoved),
				zap.Float64("lower_bound", lower),
				zap.Float64("upper_bound", upper))
		}
	}

	summary.Retained = len(records)
	p.logger.Info("batch processing complete",
		zap.Int("received", summary.Received),
		zap.Int("retained", summary.Retained),
		zap.Int("outliers_removed", summary.OutliersRemoved),
		zap.Int("invalid_periods_removed", summary.InvalidPeriodsRemoved))

	return &types.Dataset{Records: records, Summary: summary}, nil
}

// ProcessBatch cleans a batch with default settings
func ProcessBatch(batch []types.RawObservation) (*types.Dataset, error) {
	return NewProcessor(DefaultOutlierThreshold).ProcessBatch(batch)
}

func checkRequiredFields(batch []types.RawObservation) error {
	for _, raw := range batch {
		switch {
		case strings.TrimSpace(raw.ID) == "":
			return errors.Validation("missing field: id")
		case strings.TrimSpace(raw.MetricID) == "":
			return errors.Validation("missing field: metric_id")
		case strings.TrimSpace(raw.SourceID) == "":
			return errors.Validation("missing field: source_id")
		case strings.TrimSpace(raw.RevenueRange) == "":
			return errors.Validation("missing field: revenue_range")
		case strings.TrimSpace(raw.Value) == "":
			return errors.Validation("missing field: value")
		case raw.PeriodStart.IsZero():
			return errors.Validation("missing field: period_start")
		case raw.PeriodEnd.IsZero():
			return errors.Validation("missing field: period_end")
		}
	}
	return nil
}
