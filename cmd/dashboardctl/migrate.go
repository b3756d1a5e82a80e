package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dashboard-service/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Postgres.DSN == "" {
			return errors.New("DATABASE_URL is required")
		}
		db, err := postgres.Open(cmd.Context(), cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(db); err != nil {
			return err
		}
		version, _, err := postgres.SchemaVersion(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", version)
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Postgres.DSN == "" {
			return errors.New("DATABASE_URL is required")
		}
		db, err := postgres.Open(cmd.Context(), cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()

		version, dirty, err := postgres.SchemaVersion(db)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %d\n", version)
		if dirty {
			fmt.Fprintln(cmd.OutOrStdout(), "Dirty: true (a previous migration failed)")
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}
