// Package api - Request and response envelopes
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"saas-benchmark/core/types"
)

// ProcessRequest carries a raw observation batch to clean
type ProcessRequest struct {
	// Observations is the raw batch
	Observations []types.RawObservation `json:"observations"`
}

// ProcessResponse reports the cleaning outcome
type ProcessResponse struct {
	// Summary holds the per-stage cleaning counters
	Summary types.ProcessingSummary `json:"summary"`

	// Records are the surviving observations
	Records []types.RawObservation `json:"records"`
}

// RevenueRangeRequest parameterizes bracket aggregation
type RevenueRangeRequest struct {
	// Metric is the target metric name
	Metric string `json:"metric"`

	// RevenueRanges optionally restricts the brackets considered
	RevenueRanges []types.RevenueRange `json:"revenue_ranges,omitempty"`

	// Observations optionally carries an inline batch; when absent the
	// configured store supplies the data
	Observations []types.RawObservation `json:"observations,omitempty"`
}

// TimePeriodRequest parameterizes time-bucketed aggregation
type TimePeriodRequest struct {
	// Metric is the target metric name
	Metric string `json:"metric"`

	// PeriodType is the bucketing granularity
	PeriodType types.PeriodGranularity `json:"period_type"`

	// StartDate optionally bounds the window
	StartDate *time.Time `json:"start_date,omitempty"`

	// EndDate optionally bounds the window
	EndDate *time.Time `json:"end_date,omitempty"`

	// Observations optionally carries an inline batch
	Observations []types.RawObservation `json:"observations,omitempty"`
}

// PercentilesRequest parameterizes percentile distribution queries
type PercentilesRequest struct {
	// Metric is the target metric name
	Metric string `json:"metric"`

	// Percentiles are the targets, each in [0, 100]
	Percentiles []float64 `json:"percentiles"`

	// ExcludeOutliers strips 1.5x IQR outliers per bracket first
	ExcludeOutliers bool `json:"exclude_outliers"`

	// Observations optionally carries an inline batch
	Observations []types.RawObservation `json:"observations,omitempty"`
}

// ComparisonRequest parameterizes a peer comparison
type ComparisonRequest struct {
	// Metric is the target metric name
	Metric string `json:"metric"`

	// RevenueRange is the company's bracket
	RevenueRange types.RevenueRange `json:"revenue_range"`

	// CompanyValue is the company's observed value
	CompanyValue decimal.Decimal `json:"company_value"`

	// Observations optionally carries an inline batch
	Observations []types.RawObservation `json:"observations,omitempty"`
}

// NDRRequest carries Net Dollar Retention inputs
type NDRRequest struct {
	StartingARR  decimal.Decimal `json:"starting_arr"`
	Expansions   decimal.Decimal `json:"expansions"`
	Contractions decimal.Decimal `json:"contractions"`
	Churn        decimal.Decimal `json:"churn"`
}

// MagicNumberRequest carries Magic Number inputs
type MagicNumberRequest struct {
	NetNewARR           decimal.Decimal `json:"net_new_arr"`
	SalesMarketingSpend decimal.Decimal `json:"sales_marketing_spend"`
}

// CACPaybackRequest carries CAC Payback inputs
type CACPaybackRequest struct {
	CAC         decimal.Decimal `json:"cac"`
	ARPA        decimal.Decimal `json:"arpa"`
	GrossMargin decimal.Decimal `json:"gross_margin"`
}

// FormulaResponse is the result envelope for formula endpoints
type FormulaResponse struct {
	// Metric names the computed formula
	Metric string `json:"metric"`

	// Value is the result, quantized to 4 fractional digits
	Value decimal.Decimal `json:"value"`
}

// SaveResponse reports a persistence outcome
type SaveResponse struct {
	// Saved is the number of observations written
	Saved int `json:"saved"`
}

// ErrorBody is the client-facing error envelope
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
