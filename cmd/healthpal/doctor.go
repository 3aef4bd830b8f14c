package healthpal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check stored ledger totals against their entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			report, err := s.svc.RunDoctor(cmd.Context(), doctorFix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ledgers checked: %d\n", report.LedgersChecked)
			fmt.Fprintf(cmd.OutOrStdout(), "Drifted ledgers: %d\n", len(report.Drifted))
			for _, d := range report.Drifted {
				fmt.Fprintf(cmd.OutOrStdout(), "  ledger %d (%s %s): stored net %.2f, actual net %.2f\n", d.LedgerID, d.UserID, d.Date, d.Stored.NetKcal(), d.Actual.NetKcal())
			}
			if doctorFix {
				fmt.Fprintf(cmd.OutOrStdout(), "Fixed ledgers: %d\n", report.Fixed)
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Recompute drifted ledgers")
}
