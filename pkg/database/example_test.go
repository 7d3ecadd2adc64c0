package database_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wonny/chartsignal/pkg/config"
	"github.com/wonny/chartsignal/pkg/database"
)

// Example demonstrates how to open the pool and prepare the signal tables
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Database.Enabled() {
		return
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}

	status, err := db.HealthCheck(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("Database is healthy: %v (max conns %d)\n", status.Healthy, status.Stats.MaxConns)
}
