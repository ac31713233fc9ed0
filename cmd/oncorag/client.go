package oncorag

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oncorag/oncorag"
	"github.com/oncorag/oncorag/pkg/config"
	"github.com/oncorag/oncorag/pkg/logger"
	"github.com/oncorag/oncorag/pkg/telemetry"
)

// buildLogger creates the process logger. Error-level records are
// additionally persisted to parquet when a telemetry path is configured.
func buildLogger(cfg *config.Config) *slog.Logger {
	colorHandler := logger.NewColorHandler(os.Stderr, logger.ParseLevel(cfg.Log.Level))

	if cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err := telemetry.NewParquetHandler(colorHandler, cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		} else {
			return slog.New(parquetHandler)
		}
	}

	return slog.New(colorHandler)
}

// newClient loads configuration and constructs the pipeline client.
func newClient(cfg *config.Config) (*oncorag.Client, error) {
	log := buildLogger(cfg)

	client, err := oncorag.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	fmt.Printf("Initialized with store driver: %s, embedding provider: %s\n",
		cfg.Store.Driver, cfg.Embedding.Provider)

	return client, nil
}
