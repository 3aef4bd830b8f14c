package healthpal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/provider/openfoodfacts"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Manage ingredients and meals",
}

var ingredientCmd = &cobra.Command{
	Use:   "ingredient",
	Short: "Manage ingredients (values per 100 g)",
}

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Manage meals built from ingredients",
}

var (
	ingredientName    string
	ingredientKcal    float64
	ingredientProtein float64
	ingredientFat     float64
	ingredientCarbs   float64
	ingredientFiber   float64

	mealName       string
	mealComponents []string

	importBarcode string
	importName    string
)

var ingredientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an ingredient",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.IngredientInput{
			Name:     ingredientName,
			Kcal:     ingredientKcal,
			ProteinG: ingredientProtein,
			FatG:     ingredientFat,
			CarbsG:   ingredientCarbs,
			FiberG:   ingredientFiber,
		}
		return withService(cmd, func(s *session) error {
			ing, err := s.svc.CreateIngredient(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added ingredient %d (%s)\n", ing.ID, ing.Name)
			return nil
		})
	},
}

var ingredientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingredients",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			items, err := s.svc.ListIngredients(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tKCAL\tP\tF\tC\tFIBER")
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n", it.ID, it.Name, it.Kcal, it.ProteinG, it.FatG, it.CarbsG, it.FiberG)
			}
			return nil
		})
	},
}

var ingredientImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an ingredient from OpenFoodFacts by barcode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			client := &openfoodfacts.Client{BaseURL: s.cfg.OpenFoodFactsURL}
			p, err := client.LookupBarcode(cmd.Context(), importBarcode)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(importName)
			if name == "" {
				name = p.Name
			}
			ing, err := s.svc.CreateIngredient(cmd.Context(), service.IngredientInput{
				Name:     name,
				Kcal:     p.Per100g.Kcal,
				ProteinG: p.Per100g.ProteinG,
				FatG:     p.Per100g.FatG,
				CarbsG:   p.Per100g.CarbsG,
				FiberG:   p.Per100g.FiberG,
			})
			if err != nil {
				return err
			}
			s.log.WithField("barcode", p.Barcode).WithField("ingredient_id", ing.ID).Info("imported ingredient")
			fmt.Fprintf(cmd.OutOrStdout(), "Imported ingredient %d (%s, %.1f kcal/100g)\n", ing.ID, ing.Name, ing.Kcal)
			return nil
		})
	},
}

var mealAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a meal from ingredient:grams components",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.MealInput{Name: mealName}
		for _, raw := range mealComponents {
			c, err := parseMealComponent(raw)
			if err != nil {
				return err
			}
			in.Components = append(in.Components, c)
		}
		return withService(cmd, func(s *session) error {
			m, err := s.svc.CreateMeal(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added meal %d (%s) with %d components\n", m.ID, m.Name, len(m.Components))
			return nil
		})
	},
}

var mealShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the nutrition of one meal serving",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(s *session) error {
			n, err := s.svc.MealNutrition(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Calories: %.1f\nProtein: %.1fg\nFat: %.1fg\nCarbs: %.1fg\nFiber: %.1fg\n", n.Kcal, n.ProteinG, n.FatG, n.CarbsG, n.FiberG)
			return nil
		})
	},
}

// parseMealComponent reads "<ingredient id>:<grams>".
func parseMealComponent(raw string) (service.MealComponentInput, error) {
	idPart, gramsPart, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return service.MealComponentInput{}, fmt.Errorf("invalid --component %q (expected <ingredient id>:<grams>)", raw)
	}
	id, err := parseInt64Arg("ingredient id", idPart)
	if err != nil {
		return service.MealComponentInput{}, err
	}
	grams, err := strconv.ParseFloat(strings.TrimSpace(gramsPart), 64)
	if err != nil {
		return service.MealComponentInput{}, fmt.Errorf("invalid grams in --component %q", raw)
	}
	return service.MealComponentInput{IngredientID: id, Grams: grams}, nil
}

func init() {
	rootCmd.AddCommand(foodCmd)
	foodCmd.AddCommand(ingredientCmd, mealCmd)
	ingredientCmd.AddCommand(ingredientAddCmd, ingredientListCmd, ingredientImportCmd)
	mealCmd.AddCommand(mealAddCmd, mealShowCmd)

	ingredientAddCmd.Flags().StringVar(&ingredientName, "name", "", "Ingredient name")
	ingredientAddCmd.Flags().Float64Var(&ingredientKcal, "kcal", 0, "Calories per 100 g")
	ingredientAddCmd.Flags().Float64Var(&ingredientProtein, "protein", 0, "Protein grams per 100 g")
	ingredientAddCmd.Flags().Float64Var(&ingredientFat, "fat", 0, "Fat grams per 100 g")
	ingredientAddCmd.Flags().Float64Var(&ingredientCarbs, "carbs", 0, "Carbs grams per 100 g")
	ingredientAddCmd.Flags().Float64Var(&ingredientFiber, "fiber", 0, "Fiber grams per 100 g")
	_ = ingredientAddCmd.MarkFlagRequired("name")
	_ = ingredientAddCmd.MarkFlagRequired("kcal")

	ingredientImportCmd.Flags().StringVar(&importBarcode, "barcode", "", "Product barcode")
	ingredientImportCmd.Flags().StringVar(&importName, "name", "", "Ingredient name (default: product name)")
	_ = ingredientImportCmd.MarkFlagRequired("barcode")

	mealAddCmd.Flags().StringVar(&mealName, "name", "", "Meal name")
	mealAddCmd.Flags().StringArrayVar(&mealComponents, "component", nil, "Component as <ingredient id>:<grams> (repeatable)")
	_ = mealAddCmd.MarkFlagRequired("name")
}
