// Package types - Cleaned dataset produced by the record processor
package types

// ProcessingSummary counts what survived each cleaning stage
type ProcessingSummary struct {
	// Received is the raw batch size
	Received int `json:"received"`

	// Retained is the number of records in the cleaned dataset
	Retained int `json:"retained"`

	// DuplicatesRemoved counts records dropped by id deduplication
	DuplicatesRemoved int `json:"duplicates_removed"`

	// InvalidPeriodsRemoved counts records with non-positive period spans
	InvalidPeriodsRemoved int `json:"invalid_periods_removed"`

	// InvalidValuesRemoved counts records whose value failed coercion or validation
	InvalidValuesRemoved int `json:"invalid_values_removed"`

	// OutliersRemoved counts records outside the batch-wide IQR bounds
	OutliersRemoved int `json:"outliers_removed"`
}

// Dataset is a cleaned, deduplicated collection of observations. It is
// treated as immutable once produced: aggregation operations are concurrent
// readers and never modify it.
type Dataset struct {
	// Records are the surviving observations in input order
	Records []Observation `json:"records"`

	// Summary reports the cleaning counters
	Summary ProcessingSummary `json:"summary"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// FilterMetric returns records matching a metric name
func (d *Dataset) FilterMetric(metricID string) []Observation {
	var out []Observation
	for _, r := range d.Records {
		if r.MetricID == metricID {
			out = append(out, r)
		}
	}
	return out
}

// FilterMetricRange returns records matching a metric name and bracket
func (d *Dataset) FilterMetricRange(metricID string, revenueRange RevenueRange) []Observation {
	var out []Observation
	for _, r := range d.Records {
		if r.MetricID == metricID && r.RevenueRange == revenueRange {
			out = append(out, r)
		}
	}
	return out
}

// GroupByRange partitions records by revenue bracket
func GroupByRange(records []Observation) map[RevenueRange][]Observation {
	groups := make(map[RevenueRange][]Observation)
	for _, r := range records {
		groups[r.RevenueRange] = append(groups[r.RevenueRange], r)
	}
	return groups
}

// Values extracts the float64 value column from records
func Values(records []Observation) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.ValueFloat()
	}
	return out
}
