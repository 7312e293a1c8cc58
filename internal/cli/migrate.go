package cli

import (
	"fmt"

	"procurement-portal/internal/infrastructure/database"

	"github.com/spf13/cobra"
)

// MigrateCmd returns the migrate command with up, down and status subcommands.
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var auto bool
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Long: `Apply every pending SQL migration. With --auto the schema is created
from the models instead, which is only meant for local development.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			if auto {
				if err := database.AutoMigrate(db); err != nil {
					return fmt.Errorf("auto migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema synced from models")
				return nil
			}
			if err := database.MigrateUp(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	up.Flags().BoolVar(&auto, "auto", false, "create the schema from the models instead of SQL migrations")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			if err := database.MigrateDown(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			return database.MigrateStatus(cmd.Context(), db)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
