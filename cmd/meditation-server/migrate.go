package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/go-sleep-meditation/internal/config"
	"github.com/justestif/go-sleep-meditation/internal/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(database *db.DB) error {
					if err := database.Migrate(cmd.Context()); err != nil {
						return err
					}
					return printVersion(cmd, database)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(database *db.DB) error {
					if err := database.MigrateDown(cmd.Context()); err != nil {
						return err
					}
					return printVersion(cmd, database)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(database *db.DB) error {
					return printVersion(cmd, database)
				})
			},
		},
	)
	return cmd
}

func withDatabase(ctx context.Context, fn func(*db.DB) error) error {
	url, err := config.LoadDatabaseURL()
	if err != nil {
		return err
	}

	database, err := db.New(ctx, url)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	return fn(database)
}

func printVersion(cmd *cobra.Command, database *db.DB) error {
	version, err := database.SchemaVersion(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return nil
}
