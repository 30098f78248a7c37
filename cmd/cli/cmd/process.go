// Package cmd - process command
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"saas-benchmark/core/processing"
	"saas-benchmark/core/types"
	"saas-benchmark/internal/config"
)

var processOutput string

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Clean a raw observation batch",
	Long: `Run a raw observation batch through the cleaning pipeline:
deduplication, period validation, value coercion, and outlier removal.

The file must contain a JSON array of raw observations.

Examples:
  saas-benchmark process observations.json
  saas-benchmark process --output cleaned.json observations.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "write surviving records to this file")
}

func runProcess(cmd *cobra.Command, args []string) error {
	batch, err := readObservations(args[0])
	if err != nil {
		return err
	}

	cfg := config.Get()
	processor := processing.NewProcessor(cfg.Aggregation.OutlierThreshold)
	dataset, err := processor.ProcessBatch(batch)
	if err != nil {
		return err
	}

	s := dataset.Summary
	fmt.Printf("Received:                %d\n", s.Received)
	fmt.Printf("Duplicates removed:      %d\n", s.DuplicatesRemoved)
	fmt.Printf("Invalid periods removed: %d\n", s.InvalidPeriodsRemoved)
	fmt.Printf("Invalid values removed:  %d\n", s.InvalidValuesRemoved)
	fmt.Printf("Outliers removed:        %d\n", s.OutliersRemoved)
	fmt.Printf("Retained:                %d\n", s.Retained)

	if processOutput != "" {
		records := make([]types.RawObservation, len(dataset.Records))
		for i, rec := range dataset.Records {
			records[i] = rec.Raw()
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(processOutput, data, 0644); err != nil {
			return err
		}
		fmt.Printf("\nWrote %d records to %s\n", len(records), processOutput)
	}

	return nil
}

func readObservations(path string) ([]types.RawObservation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	var batch []types.RawObservation
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parse observations: %w", err)
	}
	return batch, nil
}
