// Command seed loads the sample hostel into an empty database.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"hostel/internal/config"
	"hostel/internal/fixtures"
	"hostel/internal/store/backend"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.StoreBackend == "memory" {
		logger.Error("nothing to seed: STORE_BACKEND=memory already starts with the sample data")
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	opened, err := backend.Open(ctx, backend.Options{
		Backend:       cfg.StoreBackend,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		DatabaseURL:   cfg.DatabaseURL,
		Location:      loc,
	}, logger)
	if err != nil {
		logger.Error("store connect failed", "err", err)
		os.Exit(1)
	}
	defer opened.Store.Close()

	sum, err := fixtures.Load(ctx, opened.Store, time.Now(), loc)
	if err != nil {
		logger.Error("seeding failed; the database must be empty", "err", err, "written", sum.String())
		os.Exit(1)
	}
	logger.Info("database seeded",
		"summary", sum.String(),
		"admin", fixtures.AdminEmail,
		"student", fixtures.StudentEmail,
	)
}
