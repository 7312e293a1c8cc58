package cli

import (
	"fmt"

	"procurement-portal/internal/infrastructure/database"

	"github.com/spf13/cobra"
)

// SeedCmd returns the seed command.
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-categories",
		Short: "Insert the default RFP categories",
		Long:  `Insert the default RFP categories. Categories that already exist by name are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			added, err := database.SeedCategories(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d categories added\n", added)
			return nil
		},
	}
}
