// Command slotgen runs one slot generation pass and exits.
package main

import (
	"context"
	"time"

	"speakbook/internal/config"
	"speakbook/internal/db"
	"speakbook/internal/logger"
	"speakbook/internal/provider"
	"speakbook/internal/slot"
)

func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	generator := slot.NewGenerator(slot.NewRepository(database), provider.NewRepository(database), cfg.SlotCount)
	res, err := generator.Run(ctx)
	if err != nil {
		logger.Fatalf("Slot generation failed: %v", err)
	}
	logger.Info("Slot generation done", "providers", res.Providers, "created", res.Created)
}
