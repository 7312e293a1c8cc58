package main

import (
	"fmt"
	"os"

	"procurement-portal/internal/cli"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Maintenance commands for the procurement portal database",
		Long: `portalctl applies schema migrations, seeds reference data and
audits committed awards against the portal database named by DATABASE_URL.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.VerifyAwardsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
