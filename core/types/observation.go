// Package types - Benchmark observation model
package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"saas-benchmark/internal/errors"
)

// RevenueRange is a fixed categorical bucket of company annual revenue
// used to group peer comparisons.
type RevenueRange string

const (
	Range1MTo5M   RevenueRange = "1M-5M"
	Range5MTo10M  RevenueRange = "5M-10M"
	Range10MTo50M RevenueRange = "10M-50M"
	Range50MPlus  RevenueRange = "50M+"
)

// String returns the string representation
func (r RevenueRange) String() string {
	return string(r)
}

// Valid reports whether r is one of the defined brackets
func (r RevenueRange) Valid() bool {
	switch r {
	case Range1MTo5M, Range5MTo10M, Range10MTo50M, Range50MPlus:
		return true
	}
	return false
}

// AllRevenueRanges returns the fixed bracket set in ascending order
func AllRevenueRanges() []RevenueRange {
	return []RevenueRange{Range1MTo5M, Range5MTo10M, Range10MTo50M, Range50MPlus}
}

// ParseRevenueRange parses a bracket string
func ParseRevenueRange(s string) (RevenueRange, error) {
	r := RevenueRange(strings.TrimSpace(s))
	if !r.Valid() {
		return "", errors.Validationf("invalid revenue range: %q", s)
	}
	return r, nil
}

// Validation bounds for observation values and periods.
var (
	// MinValue is the minimum allowed metric value
	MinValue = decimal.Zero

	// MaxValue is the maximum allowed metric value (1 billion)
	MaxValue = decimal.NewFromInt(1_000_000_000)
)

const (
	// ValuePrecision is the number of fractional digits values are quantized to
	ValuePrecision = 4

	// MaxPeriodDays is the maximum observation period span (5 years)
	MaxPeriodDays = 5 * 365

	// MaxSourceIDLength is the maximum length of a source identifier
	MaxSourceIDLength = 50

	// DefaultCurrency is assumed when an observation carries no currency
	DefaultCurrency = "USD"
)

// RawObservation is an observation as it arrives from the wire or a storage
// row, before validation. Value is carried as a string so numeric coercion
// is an explicit processing step.
type RawObservation struct {
	// ID uniquely identifies the observation
	ID string `json:"id"`

	// MetricID names the metric this observation measures (e.g. "NDR")
	MetricID string `json:"metric_id"`

	// SourceID identifies the data source
	SourceID string `json:"source_id"`

	// RevenueRange is the company's revenue bracket
	RevenueRange string `json:"revenue_range"`

	// Value is the metric value as a decimal string
	Value string `json:"value"`

	// PeriodStart is the start of the observation window
	PeriodStart time.Time `json:"period_start"`

	// PeriodEnd is the end of the observation window
	PeriodEnd time.Time `json:"period_end"`

	// Currency is the ISO currency code (defaults to USD)
	Currency string `json:"currency,omitempty"`

	// Metadata carries free-form source annotations
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Observation is a validated, immutable per-company metric observation.
// Constructed only through NewObservation; never mutated, only replaced.
type Observation struct {
	// ID uniquely identifies the observation
	ID string `json:"id"`

	// MetricID names the metric this observation measures
	MetricID string `json:"metric_id"`

	// SourceID identifies the data source
	SourceID string `json:"source_id"`

	// RevenueRange is the company's revenue bracket
	RevenueRange RevenueRange `json:"revenue_range"`

	// Value is the metric value, quantized to ValuePrecision digits
	Value decimal.Decimal `json:"value"`

	// PeriodStart is the start of the observation window
	PeriodStart time.Time `json:"period_start"`

	// PeriodEnd is the end of the observation window
	PeriodEnd time.Time `json:"period_end"`

	// Currency is the upper-cased ISO currency code
	Currency string `json:"currency"`

	// Metadata carries free-form source annotations
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewObservation validates a raw observation and constructs the immutable
// model. All construction-time invariants live here.
func NewObservation(raw RawObservation) (Observation, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return Observation{}, errors.Validation("missing field: id")
	}
	metricID := strings.TrimSpace(raw.MetricID)
	if metricID == "" {
		return Observation{}, errors.Validation("missing field: metric_id")
	}

	sourceID := strings.TrimSpace(raw.SourceID)
	if sourceID == "" {
		return Observation{}, errors.Validation("missing field: source_id")
	}
	if len(sourceID) > MaxSourceIDLength {
		return Observation{}, errors.Validationf("source_id exceeds maximum length of %d characters", MaxSourceIDLength)
	}

	revenueRange, err := ParseRevenueRange(raw.RevenueRange)
	if err != nil {
		return Observation{}, err
	}

	value, err := decimal.NewFromString(strings.TrimSpace(raw.Value))
	if err != nil {
		return Observation{}, errors.Validationf("value is not numeric: %q", raw.Value)
	}
	if value.LessThan(MinValue) {
		return Observation{}, errors.Validationf("value cannot be negative: %s", value)
	}
	if value.GreaterThan(MaxValue) {
		return Observation{}, errors.Validationf("value exceeds maximum allowed: %s", value)
	}
	value = value.Round(ValuePrecision)

	if raw.PeriodStart.IsZero() {
		return Observation{}, errors.Validation("missing field: period_start")
	}
	if raw.PeriodEnd.IsZero() {
		return Observation{}, errors.Validation("missing field: period_end")
	}
	if !raw.PeriodEnd.After(raw.PeriodStart) {
		return Observation{}, errors.Validation("period_end must be after period_start")
	}
	if raw.PeriodEnd.Sub(raw.PeriodStart) > MaxPeriodDays*24*time.Hour {
		return Observation{}, errors.Validationf("period cannot exceed %d years", MaxPeriodDays/365)
	}

	currency := strings.ToUpper(strings.TrimSpace(raw.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	metadata := raw.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return Observation{
		ID:           id,
		MetricID:     metricID,
		SourceID:     sourceID,
		RevenueRange: revenueRange,
		Value:        value,
		PeriodStart:  raw.PeriodStart,
		PeriodEnd:    raw.PeriodEnd,
		Currency:     currency,
		Metadata:     metadata,
	}, nil
}

// Raw converts the observation back to its wire form
func (o Observation) Raw() RawObservation {
	return RawObservation{
		ID:           o.ID,
		MetricID:     o.MetricID,
		SourceID:     o.SourceID,
		RevenueRange: string(o.RevenueRange),
		Value:        o.Value.StringFixed(ValuePrecision),
		PeriodStart:  o.PeriodStart,
		PeriodEnd:    o.PeriodEnd,
		Currency:     o.Currency,
		Metadata:     o.Metadata,
	}
}

// ValueFloat returns the observation value as a float64 for statistics
func (o Observation) ValueFloat() float64 {
	f, _ := o.Value.Float64()
	return f
}
