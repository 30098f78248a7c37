// Package main - Entry point for the SaaS benchmark server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"saas-benchmark/api"
	"saas-benchmark/core/aggregation"
	"saas-benchmark/core/cache"
	"saas-benchmark/db"
	"saas-benchmark/internal/config"
	"saas-benchmark/internal/logging"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", "", "Server address (overrides config)")
	cfgPath := flag.String("config", "", "Path to config file")
	dsn := flag.String("db", "", "Postgres DSN for the observation store (overrides config)")
	flag.Parse()

	cfg := config.Get()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		config.Set(loaded)
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}

	// Observation store is optional; without it the API only accepts
	// inline observation batches.
	var store db.ObservationStore
	if cfg.Database.DSN != "" {
		pg, err := db.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open observation store: %v", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		store = pg
	}

	var resultCache *cache.Memory
	if cfg.Cache.Enabled {
		resultCache = cache.NewMemory(cfg.Cache.MaxEntries)
		stop := make(chan struct{})
		defer close(stop)
		resultCache.StartSweeper(cfg.Cache.SweepInterval(), stop)
	}

	aggCfg := aggregation.Config{
		MinSampleSize:       cfg.Aggregation.MinSampleSize,
		OutlierThreshold:    cfg.Aggregation.OutlierThreshold,
		BootstrapIterations: cfg.Aggregation.BootstrapIterations,
		ConfidenceLevel:     cfg.Aggregation.ConfidenceLevel,
		CacheTTL:            cfg.Cache.TTL(),
	}

	apiServer := api.NewServerWithStore(version, aggCfg, store, resultCache)

	fmt.Printf("SaaS Benchmark Server v%s\n", version)
	fmt.Printf("   API: http://localhost%s\n", cfg.Server.Addr)
	if store != nil {
		fmt.Println("   Observation store: postgres")
	}
	fmt.Println()

	if err := apiServer.ListenAndServe(cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}
