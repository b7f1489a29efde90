package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/brojonat/minisolscan/service/config"
	"github.com/brojonat/minisolscan/service/db"
	"github.com/brojonat/minisolscan/service/network"
)

// main applies the schema and rewrites lookup rows recorded under a network
// alias (for example "mainnet") to the canonical network label.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("starting lookup history migration")

	cfg := config.MustLoad()
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not configured")
		os.Exit(1)
	}

	ctx := context.Background()
	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("connected to database")

	store := db.NewStore(dbPool, nil)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}
	logger.Info("schema applied")

	rows, err := dbPool.Query(ctx, "SELECT DISTINCT network FROM lookups ORDER BY network")
	if err != nil {
		logger.Error("failed to query lookup networks", "error", err)
		os.Exit(1)
	}
	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			rows.Close()
			logger.Error("failed to scan network row", "error", err)
			os.Exit(1)
		}
		labels = append(labels, label)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		logger.Error("error iterating network rows", "error", err)
		os.Exit(1)
	}

	logger.Info("found network labels", "count", len(labels))

	var updated int64
	errorCount := 0
	for _, label := range labels {
		canonical, err := network.ParseType(label)
		if err != nil {
			logger.Warn("unknown network label, leaving rows as-is", "network", label)
			errorCount++
			continue
		}
		if string(canonical) == label {
			continue
		}

		tag, err := dbPool.Exec(ctx, "UPDATE lookups SET network = $1 WHERE network = $2", string(canonical), label)
		if err != nil {
			logger.Error("failed to relabel lookups", "from", label, "to", canonical, "error", err)
			errorCount++
			continue
		}

		logger.Info("relabeled lookups", "from", label, "to", canonical, "rows", tag.RowsAffected())
		updated += tag.RowsAffected()
	}

	logger.Info("migration complete",
		"labels", len(labels),
		"rows_updated", updated,
		"errors", errorCount,
	)

	if errorCount > 0 {
		os.Exit(1)
	}
}
