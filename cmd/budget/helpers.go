package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-budget-must-balance/internal/budget"
	"github.com/Veraticus/the-budget-must-balance/internal/category"
	"github.com/Veraticus/the-budget-must-balance/internal/config"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/pattern"
	"github.com/Veraticus/the-budget-must-balance/internal/storage"
)

// app bundles the services a command needs.
type app struct {
	settings   *config.Settings
	store      *storage.SQLiteStorage
	categories *category.Cache
	manager    *category.Manager
	suggester  *pattern.Suggester
	aggregator *budget.Aggregator
}

// loadSettings resolves settings from the global viper instance.
func loadSettings() (*config.Settings, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens and migrates the configured database.
func initStorage(ctx context.Context, settings *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath, storage.WithRetryDelay(settings.RetryDelay))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openApp opens the database, seeds the configured categories and wires the
// services together. The returned cleanup closes the database.
func openApp(ctx context.Context) (*app, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}

	a, err := wireApp(ctx, settings, store)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

func wireApp(ctx context.Context, settings *config.Settings, store *storage.SQLiteStorage) (*app, error) {
	manager, err := category.NewManager(store)
	if err != nil {
		return nil, err
	}

	// Configured categories seed an empty database only; after that the
	// stored list is authoritative.
	stored, err := store.GetTaxonomy(ctx)
	if err != nil {
		return nil, err
	}
	if stored.Len() == 0 {
		seed, err := settings.Taxonomy()
		if err != nil {
			return nil, err
		}
		if _, err := manager.Seed(ctx, seed); err != nil {
			return nil, err
		}
	}

	cache, err := category.NewCache(store)
	if err != nil {
		return nil, err
	}
	suggester, err := pattern.NewSuggester(store)
	if err != nil {
		return nil, err
	}
	aggregator, err := budget.NewAggregator(store, settings.People)
	if err != nil {
		return nil, err
	}

	return &app{
		settings:   settings,
		store:      store,
		categories: cache,
		manager:    manager,
		suggester:  suggester,
		aggregator: aggregator,
	}, nil
}

// monthFlag reads --month, defaulting to the current month.
func monthFlag(cmd *cobra.Command) (int, time.Month, error) {
	value, _ := cmd.Flags().GetString("month")
	if value == "" {
		now := time.Now()
		return now.Year(), now.Month(), nil
	}
	return budget.ParseMonth(value)
}

func addMonthFlag(cmd *cobra.Command) {
	cmd.Flags().String("month", "", "month as YYYY-MM (default: current month)")
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return date, nil
}
