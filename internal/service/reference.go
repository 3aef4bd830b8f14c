package service

import (
	"context"
	"strings"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type ActivityTypeInput struct {
	Name     string  `validate:"required"`
	METValue float64 `validate:"gt=0"`
}

// CreateActivity stores an activity type. The name is trimmed but otherwise
// kept as given; challenge matching compares names exactly.
func (s *Service) CreateActivity(ctx context.Context, in ActivityTypeInput) (model.Activity, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return model.Activity{}, err
	}
	id, err := s.reference.CreateActivity(ctx, model.Activity{Name: in.Name, METValue: in.METValue})
	if err != nil {
		return model.Activity{}, err
	}
	return s.reference.ActivityByID(ctx, id)
}

func (s *Service) ListActivities(ctx context.Context) ([]model.Activity, error) {
	return s.reference.ListActivities(ctx)
}

// ResolveActivity accepts a numeric id or a name.
func (s *Service) ResolveActivity(ctx context.Context, idOrName string) (model.Activity, error) {
	if id, ok := parseID(idOrName); ok {
		return s.reference.ActivityByID(ctx, id)
	}
	return s.reference.ActivityByName(ctx, idOrName)
}

// IngredientInput values are per 100 g.
type IngredientInput struct {
	Name     string  `validate:"required"`
	Kcal     float64 `validate:"gte=0"`
	ProteinG float64 `validate:"gte=0"`
	FatG     float64 `validate:"gte=0"`
	CarbsG   float64 `validate:"gte=0"`
	FiberG   float64 `validate:"gte=0"`
}

func (s *Service) CreateIngredient(ctx context.Context, in IngredientInput) (model.Ingredient, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return model.Ingredient{}, err
	}
	id, err := s.reference.CreateIngredient(ctx, model.Ingredient{
		Name:     in.Name,
		Kcal:     in.Kcal,
		ProteinG: in.ProteinG,
		FatG:     in.FatG,
		CarbsG:   in.CarbsG,
		FiberG:   in.FiberG,
	})
	if err != nil {
		return model.Ingredient{}, err
	}
	return s.reference.IngredientByID(ctx, id)
}

func (s *Service) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	return s.reference.ListIngredients(ctx)
}

type MealComponentInput struct {
	IngredientID int64   `validate:"gt=0"`
	Grams        float64 `validate:"gt=0"`
}

type MealInput struct {
	Name       string               `validate:"required"`
	Components []MealComponentInput `validate:"required,min=1,dive"`
}

func (s *Service) CreateMeal(ctx context.Context, in MealInput) (model.Meal, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return model.Meal{}, err
	}
	m := model.Meal{Name: in.Name}
	for _, c := range in.Components {
		if _, err := s.reference.IngredientByID(ctx, c.IngredientID); err != nil {
			return model.Meal{}, err
		}
		m.Components = append(m.Components, model.MealComponent{IngredientID: c.IngredientID, Grams: c.Grams})
	}
	id, err := s.reference.CreateMeal(ctx, m)
	if err != nil {
		return model.Meal{}, err
	}
	return s.reference.MealByID(ctx, id)
}

// MealNutrition is the nutrition of one serving: the sum of its components.
func (s *Service) MealNutrition(ctx context.Context, mealID int64) (model.Nutrients, error) {
	m, err := s.reference.MealByID(ctx, mealID)
	if err != nil {
		return model.Nutrients{}, err
	}
	if len(m.Components) == 0 {
		return model.Nutrients{}, apperr.Preconditionf("meal %d has no components", mealID)
	}
	var total model.Nutrients
	for _, c := range m.Components {
		ing, err := s.reference.IngredientByID(ctx, c.IngredientID)
		if err != nil {
			return model.Nutrients{}, err
		}
		total = total.Add(ingredientNutrients(ing).Scale(c.Grams / 100))
	}
	return total, nil
}

type ChallengeInput struct {
	Name        string `validate:"required"`
	Description string
}

func (s *Service) CreateChallenge(ctx context.Context, in ChallengeInput) (model.Challenge, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return model.Challenge{}, err
	}
	id, err := s.challenges.CreateChallenge(ctx, model.Challenge{Name: in.Name, Description: strings.TrimSpace(in.Description)})
	if err != nil {
		return model.Challenge{}, err
	}
	return s.challenges.ChallengeByID(ctx, id)
}

func (s *Service) ListChallenges(ctx context.Context) ([]model.Challenge, error) {
	return s.challenges.ListChallenges(ctx)
}
