// Package cmd provides the CLI commands for saas-benchmark.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"saas-benchmark/internal/config"
	"saas-benchmark/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "saas-benchmark",
	Short: "Benchmark SaaS metrics against peer companies",
	Long: `saas-benchmark computes SaaS metrics and benchmarks them across
revenue ranges and time periods.

It cleans raw observation batches, derives descriptive statistics with
outlier detection and confidence intervals, and compares a company's
value against its peer group.

Examples:
  saas-benchmark metrics ndr --starting-arr 1000000 --expansions 200000 --contractions 50000 --churn 100000
  saas-benchmark process observations.json
  saas-benchmark aggregate revenue-range --metric NDR observations.json`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.saas-benchmark.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("saas-benchmark version 1.0.0")
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			fmt.Printf("min sample size:      %d\n", cfg.Aggregation.MinSampleSize)
			fmt.Printf("outlier threshold:    %.2f\n", cfg.Aggregation.OutlierThreshold)
			fmt.Printf("bootstrap iterations: %d\n", cfg.Aggregation.BootstrapIterations)
			fmt.Printf("confidence level:     %.2f\n", cfg.Aggregation.ConfidenceLevel)
			fmt.Printf("cache enabled:        %v\n", cfg.Cache.Enabled)
			fmt.Printf("cache ttl:            %s\n", cfg.Cache.TTL())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = home + "/.saas-benchmark.json"
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	})
}
