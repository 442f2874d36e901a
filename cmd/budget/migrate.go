package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(settings.DatabasePath, storage.WithRetryDelay(settings.RetryDelay))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Database:        %s\n", store.Path())
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\n", current)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		return nil
	}

	slog.Info("🗄️  Running database migrations...", "database", store.Path(), "from_version", current)

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	slog.Info("✅ Database migrations completed successfully!", "version", storage.ExpectedSchemaVersion)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", storage.ExpectedSchemaVersion)
	return nil
}
