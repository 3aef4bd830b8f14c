package healthpal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect daily ledgers",
}

var (
	ledgerUser string
	ledgerDate string

	reportFrom      string
	reportTo        string
	reportTolerance float64
	reportJSON      bool
)

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a user's ledger for a day with its entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			at, err := parseDateTimeOrNow(ledgerDate, "", s.cfg.Location())
			if err != nil {
				return err
			}
			if at.IsZero() {
				at = time.Now()
			}
			l, err := s.svc.LedgerForDay(cmd.Context(), ledgerUser, at)
			if err != nil {
				return err
			}
			view, err := s.svc.LedgerDetail(cmd.Context(), l.ID)
			if err != nil {
				return err
			}
			l = view.Ledger
			fmt.Fprintf(cmd.OutOrStdout(), "Ledger %d (%s)\n", l.ID, l.Date)
			fmt.Fprintf(cmd.OutOrStdout(), "Eaten: %.1f kcal\nBurned: %.1f kcal\nNet: %.1f kcal\n", l.TotalKcalEaten, l.TotalKcalBurned, l.TotalKcal)
			fmt.Fprintf(cmd.OutOrStdout(), "Protein: %.1fg\nFat: %.1fg\nCarbs: %.1fg\nFiber: %.1fg\n", l.TotalProteinG, l.TotalFatG, l.TotalCarbsG, l.TotalFiberG)

			fmt.Fprintln(cmd.OutOrStdout(), "\nID\tITEM\tQTY\tKCAL")
			for _, e := range view.Nutrition {
				item := "-"
				switch {
				case e.IngredientID != nil:
					item = fmt.Sprintf("ingredient:%d", *e.IngredientID)
				case e.MealID != nil:
					item = fmt.Sprintf("meal:%d", *e.MealID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%g\t%.1f\n", e.ID, item, e.Quantity, e.Kcal)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			printActivityRows(cmd, view.Activities)
			return nil
		})
	},
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledgers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			items, err := s.svc.ListLedgers(cmd.Context(), ledgerUser)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tUSER\tDATE\tEATEN\tBURNED\tNET")
			for _, l := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%.1f\t%.1f\t%.1f\n", l.ID, l.UserID, l.Date, l.TotalKcalEaten, l.TotalKcalBurned, l.TotalKcal)
			}
			return nil
		})
	},
}

var ledgerRecomputeCmd = &cobra.Command{
	Use:   "recompute <ledger-id>",
	Short: "Rebuild ledger totals from its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("ledger id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			l, err := s.svc.Recompute(cmd.Context(), id)
			if err != nil {
				return err
			}
			printLedgerSummary(cmd, l)
			return nil
		})
	},
}

var ledgerReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a user's ledgers over a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			from, err := parseDateTimeOrNow(reportFrom, "", s.cfg.Location())
			if err != nil {
				return err
			}
			to, err := parseDateTimeOrNow(reportTo, "", s.cfg.Location())
			if err != nil {
				return err
			}
			if to.IsZero() {
				to = time.Now()
			}
			if from.IsZero() {
				from = to.AddDate(0, 0, -6)
			}
			report, err := s.svc.AnalyticsRange(cmd.Context(), ledgerUser, from, to, reportTolerance)
			if err != nil {
				return err
			}
			if reportJSON {
				b, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal report json: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Range: %s to %s\n", report.FromDate, report.ToDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Days with ledgers: %d\n", report.DaysWithLedgers)
			fmt.Fprintf(cmd.OutOrStdout(), "Eaten: %.1f kcal (avg %.1f/day)\n", report.TotalEatenKcal, report.AverageEatenPerDay)
			fmt.Fprintf(cmd.OutOrStdout(), "Burned: %.1f kcal (avg %.1f/day)\n", report.TotalBurnedKcal, report.AverageBurnedDay)
			fmt.Fprintf(cmd.OutOrStdout(), "Net: %.1f kcal (avg %.1f/day)\n", report.TotalNetKcal, report.AverageNetPerDay)
			if report.HighestDay != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Highest day: %s (%.1f net)\n", report.HighestDay.Date, report.HighestDay.NetKcal)
				fmt.Fprintf(cmd.OutOrStdout(), "Lowest day: %s (%.1f net)\n", report.LowestDay.Date, report.LowestDay.NetKcal)
			}
			if report.Adherence != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Within goal: %d/%d days (%.1f%%)\n", report.Adherence.WithinGoalDays, report.Adherence.EvaluatedDays, report.Adherence.PercentWithin)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerShowCmd, ledgerListCmd, ledgerRecomputeCmd, ledgerReportCmd)

	ledgerShowCmd.Flags().StringVar(&ledgerUser, "user", "", "User id")
	ledgerShowCmd.Flags().StringVar(&ledgerDate, "date", "", "Date YYYY-MM-DD (default today)")
	_ = ledgerShowCmd.MarkFlagRequired("user")
	ledgerListCmd.Flags().StringVar(&ledgerUser, "user", "", "Only this user's ledgers")

	ledgerReportCmd.Flags().StringVar(&ledgerUser, "user", "", "User id")
	ledgerReportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date YYYY-MM-DD (default 6 days before --to)")
	ledgerReportCmd.Flags().StringVar(&reportTo, "to", "", "End date YYYY-MM-DD (default today)")
	ledgerReportCmd.Flags().Float64Var(&reportTolerance, "tolerance", 10, "Macro adherence tolerance in percent")
	ledgerReportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output JSON")
	_ = ledgerReportCmd.MarkFlagRequired("user")
}
