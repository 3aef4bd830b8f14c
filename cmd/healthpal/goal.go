package healthpal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage fitness goals and daily targets",
}

var (
	goalUser       string
	goalType       string
	goalDiet       string
	goalProteinPct float64
	goalFatPct     float64
	goalCarbsPct   float64
	goalKcal       float64
	goalProtein    float64
	goalFat        float64
	goalCarbs      float64
	goalFiber      float64
)

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the active goal and derive targets from the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.GoalInput{
			GoalType:         goalType,
			DietType:         goalDiet,
			ProteinPct:       optFloat(cmd, "protein-pct", goalProteinPct),
			FatPct:           optFloat(cmd, "fat-pct", goalFatPct),
			CarbsPct:         optFloat(cmd, "carbs-pct", goalCarbsPct),
			OverrideKcal:     optFloat(cmd, "kcal", goalKcal),
			OverrideProteinG: optFloat(cmd, "protein", goalProtein),
			OverrideFatG:     optFloat(cmd, "fat", goalFat),
			OverrideCarbsG:   optFloat(cmd, "carbs", goalCarbs),
			OverrideFiberG:   optFloat(cmd, "fiber", goalFiber),
		}
		return withService(cmd, func(s *session) error {
			g, err := s.svc.SetGoal(cmd.Context(), goalUser, in)
			if err != nil {
				return err
			}
			printGoal(cmd, g)
			return nil
		})
	},
}

var goalCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the active goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			g, err := s.svc.CurrentGoal(cmd.Context(), goalUser)
			if err != nil {
				return err
			}
			printGoal(cmd, g)
			return nil
		})
	},
}

func printGoal(cmd *cobra.Command, g model.FitnessGoal) {
	diet := g.DietType
	if diet == "" {
		diet = "-"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Goal %d: %s (diet %s)\nCalories: %.0f\nProtein: %.0fg\nFat: %.0fg\nCarbs: %.0fg\nFiber: %.0fg\n",
		g.ID, g.GoalType, diet, g.TargetKcal, g.TargetProteinG, g.TargetFatG, g.TargetCarbsG, g.TargetFiberG)
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalSetCmd, goalCurrentCmd)

	for _, c := range []*cobra.Command{goalSetCmd, goalCurrentCmd} {
		c.Flags().StringVar(&goalUser, "user", "", "User id")
		_ = c.MarkFlagRequired("user")
	}
	goalSetCmd.Flags().StringVar(&goalType, "type", "", "cut|bulk|gain_muscles|maintain|recovery")
	goalSetCmd.Flags().StringVar(&goalDiet, "diet", "", "balanced|high_protein|low_carb|keto")
	goalSetCmd.Flags().Float64Var(&goalProteinPct, "protein-pct", 0, "Protein share of calories in percent")
	goalSetCmd.Flags().Float64Var(&goalFatPct, "fat-pct", 0, "Fat share of calories in percent")
	goalSetCmd.Flags().Float64Var(&goalCarbsPct, "carbs-pct", 0, "Carbs share of calories in percent")
	goalSetCmd.Flags().Float64Var(&goalKcal, "kcal", 0, "Override calorie target")
	goalSetCmd.Flags().Float64Var(&goalProtein, "protein", 0, "Override protein grams")
	goalSetCmd.Flags().Float64Var(&goalFat, "fat", 0, "Override fat grams")
	goalSetCmd.Flags().Float64Var(&goalCarbs, "carbs", 0, "Override carbs grams")
	goalSetCmd.Flags().Float64Var(&goalFiber, "fiber", 0, "Override fiber grams")
	_ = goalSetCmd.MarkFlagRequired("type")
}
