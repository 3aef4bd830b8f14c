package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

func (s *Store) ActivityByID(ctx context.Context, id int64) (model.Activity, error) {
	var a model.Activity
	if err := s.db.GetContext(ctx, &a, `SELECT id, name, met_value, created_at FROM activities WHERE id = ?`, id); err != nil {
		return model.Activity{}, lookupErr(err, "activity", id)
	}
	return a, nil
}

func (s *Store) ActivityByName(ctx context.Context, name string) (model.Activity, error) {
	var a model.Activity
	if err := s.db.GetContext(ctx, &a, `SELECT id, name, met_value, created_at FROM activities WHERE lower(name) = lower(?)`, strings.TrimSpace(name)); err != nil {
		return model.Activity{}, lookupErr(err, "activity", name)
	}
	return a, nil
}

func (s *Store) CreateActivity(ctx context.Context, a model.Activity) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO activities(name, met_value) VALUES(?, ?)`, a.Name, a.METValue)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflictf("activity %q already exists", a.Name)
		}
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListActivities(ctx context.Context) ([]model.Activity, error) {
	var out []model.Activity
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, met_value, created_at FROM activities ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

func (s *Store) IngredientByID(ctx context.Context, id int64) (model.Ingredient, error) {
	var in model.Ingredient
	if err := s.db.GetContext(ctx, &in, `
SELECT id, name, kcal, protein_g, fat_g, carbs_g, fiber_g, created_at
FROM ingredients WHERE id = ?
`, id); err != nil {
		return model.Ingredient{}, lookupErr(err, "ingredient", id)
	}
	return in, nil
}

func (s *Store) CreateIngredient(ctx context.Context, in model.Ingredient) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, `
INSERT INTO ingredients(name, kcal, protein_g, fat_g, carbs_g, fiber_g)
VALUES(:name, :kcal, :protein_g, :fat_g, :carbs_g, :fiber_g)
`, in)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflictf("ingredient %q already exists", in.Name)
		}
		return 0, fmt.Errorf("insert ingredient: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	var out []model.Ingredient
	if err := s.db.SelectContext(ctx, &out, `
SELECT id, name, kcal, protein_g, fat_g, carbs_g, fiber_g, created_at
FROM ingredients ORDER BY name
`); err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return out, nil
}

func (s *Store) MealByID(ctx context.Context, id int64) (model.Meal, error) {
	var m model.Meal
	if err := s.db.QueryRowxContext(ctx, `SELECT id, name, created_at FROM meals WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
		return model.Meal{}, lookupErr(err, "meal", id)
	}
	if err := s.db.SelectContext(ctx, &m.Components, `
SELECT meal_id, ingredient_id, grams FROM meal_components
WHERE meal_id = ? ORDER BY ingredient_id
`, id); err != nil {
		return model.Meal{}, fmt.Errorf("list components for meal %d: %w", id, err)
	}
	return m, nil
}

func (s *Store) CreateMeal(ctx context.Context, m model.Meal) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin meal tx: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `INSERT INTO meals(name) VALUES(?)`, m.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflictf("meal %q already exists", m.Name)
		}
		return 0, fmt.Errorf("insert meal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("meal id: %w", err)
	}
	for _, c := range m.Components {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meal_components(meal_id, ingredient_id, grams) VALUES(?, ?, ?)`, id, c.IngredientID, c.Grams); err != nil {
			if isUniqueViolation(err) {
				return 0, apperr.Invalidf("ingredient %d listed twice in meal %q", c.IngredientID, m.Name)
			}
			return 0, fmt.Errorf("insert meal component: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit meal: %w", err)
	}
	return id, nil
}
