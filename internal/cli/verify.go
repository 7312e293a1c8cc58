package cli

import (
	"fmt"

	"procurement-portal/internal/application/lifecycle"

	"github.com/spf13/cobra"
)

// VerifyAwardsCmd returns the verify-awards command. It exits non-zero when any award is inconsistent.
func VerifyAwardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-awards",
		Short: "Check every awarded RFP for a consistent contract and bid set",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			m := &lifecycle.Manager{DB: db}
			failed, err := m.VerifyAllAwards(cmd.Context())
			if err != nil {
				return fmt.Errorf("verify awards: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, id := range failed {
				fmt.Fprintf(out, "inconsistent award: rfp %s\n", id)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d inconsistent award(s)", len(failed))
			}
			fmt.Fprintln(out, "all awards consistent")
			return nil
		},
	}
}
