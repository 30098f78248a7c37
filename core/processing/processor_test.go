// Package processing - Cleaning pipeline tests
package processing

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"saas-benchmark/core/types"
	"saas-benchmark/internal/errors"
)

var (
	periodStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

func rawObs(id, value string) types.RawObservation {
	return types.RawObservation{
		ID:           id,
		MetricID:     "NDR",
		SourceID:     "survey-2024",
		RevenueRange: "1M-5M",
		Value:        value,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
	}
}

// TestProcessBatchRejectsEmptyBatch verifies an empty batch is a structural
// failure, not an empty result
func TestProcessBatchRejectsEmptyBatch(t *testing.T) {
	_, err := ProcessBatch(nil)
	if err == nil {
		t.Fatal("expected error for empty batch")
	}
	if !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty observation batch provided") {
		t.Errorf("unexpected message: %v", err)
	}
}

// TestProcessBatchRejectsMissingFields verifies any record with a missing
// required field fails the whole batch
func TestProcessBatchRejectsMissingFields(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*types.RawObservation)
	}{
		{"id", func(r *types.RawObservation) { r.ID = "  " }},
		{"metric_id", func(r *types.RawObservation) { r.MetricID = "" }},
		{"source_id", func(r *types.RawObservation) { r.SourceID = "" }},
		{"revenue_range", func(r *types.RawObservation) { r.RevenueRange = "" }},
		{"value", func(r *types.RawObservation) { r.Value = "" }},
		{"period_start", func(r *types.RawObservation) { r.PeriodStart = time.Time{} }},
		{"period_end", func(r *types.RawObservation) { r.PeriodEnd = time.Time{} }},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			good := rawObs("a", "100")
			bad := rawObs("b", "100")
			tc.mutate(&bad)

			_, err := ProcessBatch([]types.RawObservation{good, bad})
			if err == nil {
				t.Fatal("expected error")
			}
			want := "missing field: " + tc.field
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error = %v, want it to contain %q", err, want)
			}
		})
	}
}

// TestProcessBatchDeduplicatesLastWins verifies duplicate ids keep the last
// occurrence in input order
func TestProcessBatchDeduplicatesLastWins(t *testing.T) {
	batch := []types.RawObservation{
		rawObs("a", "100"),
		rawObs("b", "102"),
		rawObs("a", "105"),
	}

	dataset, err := ProcessBatch(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dataset.Summary.DuplicatesRemoved != 1 {
		t.Errorf("duplicates removed = %d, want 1", dataset.Summary.DuplicatesRemoved)
	}
	if dataset.Len() != 2 {
		t.Fatalf("retained = %d, want 2", dataset.Len())
	}

	// Input order preserved, and id "a" carries the later value.
	if dataset.Records[0].ID != "b" || dataset.Records[1].ID != "a" {
		t.Errorf("unexpected record order: %s, %s", dataset.Records[0].ID, dataset.Records[1].ID)
	}
	if got := dataset.Records[1].Value.String(); got != "105" {
		t.Errorf("record a value = %s, want 105 (last occurrence)", got)
	}
}

// TestProcessBatchDropsInvalidPeriods verifies reversed periods are dropped
// and counted rather than failing the batch
func TestProcessBatchDropsInvalidPeriods(t *testing.T) {
	reversed := rawObs("bad", "100")
	reversed.PeriodStart, reversed.PeriodEnd = reversed.PeriodEnd, reversed.PeriodStart

	zeroSpan := rawObs("flat", "100")
	zeroSpan.PeriodEnd = zeroSpan.PeriodStart

	batch := []types.RawObservation{rawObs("a", "100"), reversed, zeroSpan}
	dataset, err := ProcessBatch(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dataset.Summary.InvalidPeriodsRemoved != 2 {
		t.Errorf("invalid periods removed = %d, want 2", dataset.Summary.InvalidPeriodsRemoved)
	}
	if dataset.Summary.Retained != 1 {
		t.Errorf("retained = %d, want 1", dataset.Summary.Retained)
	}
}

// TestProcessBatchDropsUncoercibleValues verifies non-numeric and
// out-of-range values are dropped per record
func TestProcessBatchDropsUncoercibleValues(t *testing.T) {
	batch := []types.RawObservation{
		rawObs("a", "100"),
		rawObs("b", "not-a-number"),
		rawObs("c", "-5"),
		rawObs("d", "2000000000"), // above the value ceiling
	}

	dataset, err := ProcessBatch(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dataset.Summary.InvalidValuesRemoved != 3 {
		t.Errorf("invalid values removed = %d, want 3", dataset.Summary.InvalidValuesRemoved)
	}
	if dataset.Summary.Retained != 1 {
		t.Errorf("retained = %d, want 1", dataset.Summary.Retained)
	}
}

// TestProcessBatchRemovesOutliersBatchWide verifies IQR removal over the
// whole value column
func TestProcessBatchRemovesOutliersBatchWide(t *testing.T) {
	batch := []types.RawObservation{
		rawObs("a", "100"),
		rawObs("b", "101"),
		rawObs("c", "102"),
		rawObs("d", "103"),
		rawObs("e", "1000"),
	}

	dataset, err := ProcessBatch(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dataset.Summary.OutliersRemoved != 1 {
		t.Errorf("outliers removed = %d, want 1", dataset.Summary.OutliersRemoved)
	}
	if dataset.Summary.Retained != 4 {
		t.Errorf("retained = %d, want 4", dataset.Summary.Retained)
	}
	for _, rec := range dataset.Records {
		if rec.ID == "e" {
			t.Error("outlier record e survived cleaning")
		}
	}
}

// TestProcessBatchIdempotentOnCleanData verifies reprocessing cleaned output
// changes nothing
func TestProcessBatchIdempotentOnCleanData(t *testing.T) {
	batch := []types.RawObservation{
		rawObs("a", "100"),
		rawObs("b", "105"),
		rawObs("c", "110"),
		rawObs("d", "115"),
		rawObs("e", "120"),
	}

	first, err := ProcessBatch(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reprocessed := make([]types.RawObservation, len(first.Records))
	for i, rec := range first.Records {
		reprocessed[i] = rec.Raw()
	}

	second, err := ProcessBatch(reprocessed)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}

	if second.Summary.Retained != first.Summary.Retained {
		t.Errorf("second pass retained %d, first retained %d", second.Summary.Retained, first.Summary.Retained)
	}
	removed := second.Summary.DuplicatesRemoved + second.Summary.InvalidPeriodsRemoved +
		second.Summary.InvalidValuesRemoved + second.Summary.OutliersRemoved
	if removed != 0 {
		t.Errorf("second pass removed %d records from already-clean data", removed)
	}
	for i := range first.Records {
		if !first.Records[i].Value.Equal(second.Records[i].Value) {
			t.Errorf("record %d value changed: %s -> %s",
				i, first.Records[i].Value, second.Records[i].Value)
		}
	}
}

// TestProcessBatchSummaryAccounting verifies every received record is
// accounted for exactly once
func TestProcessBatchSummaryAccounting(t *testing.T) {
	reversed := rawObs("r", "100")
	reversed.PeriodEnd = reversed.PeriodStart

	batch := []types.RawObservation{
		rawObs("a", "100"),
		rawObs("a", "101"),
		reversed,
		rawObs("b", "oops"),
		rawObs("c", "102"),
		rawObs("d", "103"),
	}

	dataset, err := ProcessBatch(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := dataset.Summary
	total := s.Retained + s.DuplicatesRemoved + s.InvalidPeriodsRemoved +
		s.InvalidValuesRemoved + s.OutliersRemoved
	if total != s.Received {
		t.Errorf("accounting mismatch: %s", summaryString(s))
	}
	if s.Received != len(batch) {
		t.Errorf("received = %d, want %d", s.Received, len(batch))
	}
}

func summaryString(s types.ProcessingSummary) string {
	return fmt.Sprintf("received=%d retained=%d dup=%d period=%d value=%d outlier=%d",
		s.Received, s.Retained, s.DuplicatesRemoved, s.InvalidPeriodsRemoved,
		s.InvalidValuesRemoved, s.OutliersRemoved)
}
