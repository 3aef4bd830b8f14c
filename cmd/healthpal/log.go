package healthpal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log food and activity against the daily ledger",
}

var logFoodCmd = &cobra.Command{
	Use:   "food",
	Short: "Manage nutrition entries",
}

var logActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Manage activity entries",
}

var (
	logUser       string
	logDate       string
	logTime       string
	logIngredient int64
	logMeal       int64
	logQuantity   float64
	logChallenge  int64

	logActivityAdd    measurementFlags
	logActivityUpdate measurementFlags
)

func nutritionItem(cmd *cobra.Command) service.NutritionItem {
	return service.NutritionItem{
		IngredientID: optInt64(cmd, "ingredient", logIngredient),
		MealID:       optInt64(cmd, "meal", logMeal),
		Quantity:     logQuantity,
	}
}

var logFoodAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log an ingredient (grams) or a meal (servings)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			at, err := parseDateTimeOrNow(logDate, logTime, s.cfg.Location())
			if err != nil {
				return err
			}
			e, l, err := s.svc.AddNutrition(cmd.Context(), service.NutritionInput{
				UserID:        logUser,
				At:            at,
				NutritionItem: nutritionItem(cmd),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added nutrition entry %d (%.1f kcal)\n", e.ID, e.Kcal)
			printLedgerSummary(cmd, l)
			return nil
		})
	},
}

var logFoodUpdateCmd = &cobra.Command{
	Use:   "update <entry-id>",
	Short: "Replace the item and quantity of a nutrition entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			e, l, err := s.svc.UpdateNutrition(cmd.Context(), id, nutritionItem(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated nutrition entry %d (%.1f kcal)\n", e.ID, e.Kcal)
			printLedgerSummary(cmd, l)
			return nil
		})
	},
}

var logFoodDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete a nutrition entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			l, err := s.svc.RemoveNutrition(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted nutrition entry %d\n", id)
			printLedgerSummary(cmd, l)
			return nil
		})
	},
}

var logActivityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log an activity on a day or against a challenge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			m, err := logActivityAdd.build(cmd.Context(), cmd, s.svc)
			if err != nil {
				return err
			}
			in := service.ActivityInput{
				UserID:               logUser,
				ChallengeID:          optInt64(cmd, "challenge", logChallenge),
				ActivityMeasurements: m,
			}
			at, err := parseDateTimeOrNow(logDate, logTime, s.cfg.Location())
			if err != nil {
				return err
			}
			if !at.IsZero() {
				in.Day = &at
			}
			e, err := s.svc.LogActivity(cmd.Context(), in)
			if err != nil {
				return err
			}
			printActivityEntry(cmd, e)
			return nil
		})
	},
}

var logActivityUpdateCmd = &cobra.Command{
	Use:   "update <entry-id>",
	Short: "Re-measure an activity entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			m, err := logActivityUpdate.build(cmd.Context(), cmd, s.svc)
			if err != nil {
				return err
			}
			e, err := s.svc.UpdateActivity(cmd.Context(), id, m)
			if err != nil {
				return err
			}
			printActivityEntry(cmd, e)
			return nil
		})
	},
}

var logActivityDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete an activity entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			if err := s.svc.RemoveActivity(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity entry %d\n", id)
			return nil
		})
	},
}

func printLedgerSummary(cmd *cobra.Command, l model.DailyLedger) {
	fmt.Fprintf(cmd.OutOrStdout(), "Ledger %s: eaten %.1f, burned %.1f, net %.1f kcal\n", l.Date, l.TotalKcalEaten, l.TotalKcalBurned, l.TotalKcal)
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logFoodCmd, logActivityCmd)
	logFoodCmd.AddCommand(logFoodAddCmd, logFoodUpdateCmd, logFoodDeleteCmd)
	logActivityCmd.AddCommand(logActivityAddCmd, logActivityUpdateCmd, logActivityDeleteCmd)

	for _, c := range []*cobra.Command{logFoodAddCmd, logFoodUpdateCmd} {
		c.Flags().Int64Var(&logIngredient, "ingredient", 0, "Ingredient id (quantity in grams)")
		c.Flags().Int64Var(&logMeal, "meal", 0, "Meal id (quantity in servings)")
		c.Flags().Float64Var(&logQuantity, "qty", 0, "Quantity")
		c.MarkFlagsMutuallyExclusive("ingredient", "meal")
		_ = c.MarkFlagRequired("qty")
	}
	for _, c := range []*cobra.Command{logFoodAddCmd, logActivityAddCmd} {
		c.Flags().StringVar(&logUser, "user", "", "User id")
		c.Flags().StringVar(&logDate, "date", "", "Date YYYY-MM-DD (default today)")
		c.Flags().StringVar(&logTime, "time", "", "Time HH:MM")
		_ = c.MarkFlagRequired("user")
	}
	logActivityAdd.register(logActivityAddCmd)
	logActivityAddCmd.Flags().Int64Var(&logChallenge, "challenge", 0, "Log against a challenge instead of the daily ledger")
	logActivityAddCmd.MarkFlagsMutuallyExclusive("challenge", "date")
	logActivityUpdate.register(logActivityUpdateCmd)
}
