package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnoviawan/termul-sub001/internal/app"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/config"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	dataDir := flag.String("data-dir", "", "Storage root (overrides TERMUL_DATA_DIR)")
	project := flag.String("project", "", "Project ID to restore on startup")
	logLevel := flag.String("log-level", "", "Log level (overrides TERMUL_LOG_LEVEL)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	engine, err := app.New(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	restoreID := *project
	if restoreID == "" {
		restoreID = engine.LastActiveProject()
	}
	if restoreID != "" {
		if err := engine.RestoreProject(ctx, restoreID); err != nil {
			log.Fatalf("Failed to restore project %s: %v", restoreID, err)
		}
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	cancel()
	if err := engine.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
