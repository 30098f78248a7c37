// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"saas-benchmark/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Aggregation contains aggregation engine settings
	Aggregation AggregationConfig `json:"aggregation"`

	// Cache contains result cache settings
	Cache CacheConfig `json:"cache"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server"`

	// Database contains observation store settings
	Database DatabaseConfig `json:"database,omitempty"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// AggregationConfig contains aggregation engine settings
type AggregationConfig struct {
	// MinSampleSize is the minimum group size for computing statistics
	MinSampleSize int `json:"min_sample_size"`

	// OutlierThreshold is the IQR multiplier for outlier bounds
	OutlierThreshold float64 `json:"outlier_threshold"`

	// BootstrapIterations is the resample count for percentile CIs
	BootstrapIterations int `json:"bootstrap_iterations"`

	// ConfidenceLevel is the confidence level reported in comparison metadata
	ConfidenceLevel float64 `json:"confidence_level"`
}

// CacheConfig contains result cache settings
type CacheConfig struct {
	// Enabled enables result caching
	Enabled bool `json:"enabled"`

	// TTLSeconds is how long cached results stay valid
	TTLSeconds int `json:"ttl_seconds"`

	// MaxEntries is the maximum number of cached results
	MaxEntries int `json:"max_entries"`

	// SweepIntervalSeconds is how often expired entries are swept
	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
}

// TTL returns the cache TTL as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SweepInterval returns the sweep interval as a duration
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`
}

// DatabaseConfig contains observation store settings
type DatabaseConfig struct {
	// DSN is the Postgres connection string; empty disables the store
	DSN string `json:"dsn,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Aggregation: AggregationConfig{
			MinSampleSize:       3,
			OutlierThreshold:    1.5,
			BootstrapIterations: 1000,
			ConfidenceLevel:     0.95,
		},
		Cache: CacheConfig{
			Enabled:              true,
			TTLSeconds:           3600, // 1 hour
			MaxEntries:           10000,
			SweepIntervalSeconds: 21600, // 6 hours
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
