package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type profileRow struct {
	model.FitnessProfile
	BodyFatJSON string `db:"body_fat_json"`
}

func (r profileRow) toModel() (model.FitnessProfile, error) {
	p := r.FitnessProfile
	p.BodyFatPercentages = map[string]float64{}
	if r.BodyFatJSON != "" {
		if err := json.Unmarshal([]byte(r.BodyFatJSON), &p.BodyFatPercentages); err != nil {
			return model.FitnessProfile{}, fmt.Errorf("decode body fat for profile %d: %w", r.ID, err)
		}
	}
	return p, nil
}

const profileColumns = `id, user_id, weight_kg, height_cm, waist_cm, hip_cm, neck_cm, activity_level,
  bmr, bmi, tdee_kcal, body_fat_json, created_at, deleted_at`

func (s *Store) CreateProfile(ctx context.Context, p model.FitnessProfile) (int64, error) {
	bf := p.BodyFatPercentages
	if bf == nil {
		bf = map[string]float64{}
	}
	raw, err := json.Marshal(bf)
	if err != nil {
		return 0, fmt.Errorf("encode body fat: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO fitness_profiles(user_id, weight_kg, height_cm, waist_cm, hip_cm, neck_cm, activity_level,
  bmr, bmi, tdee_kcal, body_fat_json, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, p.UserID, p.WeightKg, p.HeightCm, p.WaistCm, p.HipCm, p.NeckCm, p.ActivityLevel,
		p.BMR, p.BMI, p.TDEEKcal, string(raw), utc(p.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert fitness profile: %w", err)
	}
	return res.LastInsertId()
}

// CurrentProfile is the most recent non-deleted profile.
func (s *Store) CurrentProfile(ctx context.Context, userID string) (model.FitnessProfile, error) {
	var row profileRow
	if err := s.db.GetContext(ctx, &row, `
SELECT `+profileColumns+` FROM fitness_profiles
WHERE user_id = ? AND deleted_at IS NULL
ORDER BY created_at DESC, id DESC LIMIT 1
`, userID); err != nil {
		return model.FitnessProfile{}, lookupErr(err, "fitness profile for user", userID)
	}
	return row.toModel()
}

func (s *Store) ProfileByID(ctx context.Context, id int64) (model.FitnessProfile, error) {
	var row profileRow
	if err := s.db.GetContext(ctx, &row, `
SELECT `+profileColumns+` FROM fitness_profiles
WHERE id = ? AND deleted_at IS NULL
`, id); err != nil {
		return model.FitnessProfile{}, lookupErr(err, "fitness profile", id)
	}
	return row.toModel()
}

func (s *Store) ListProfiles(ctx context.Context, userID string) ([]model.FitnessProfile, error) {
	var rows []profileRow
	if err := s.db.SelectContext(ctx, &rows, `
SELECT `+profileColumns+` FROM fitness_profiles
WHERE user_id = ? AND deleted_at IS NULL
ORDER BY created_at DESC, id DESC
`, userID); err != nil {
		return nil, fmt.Errorf("list fitness profiles: %w", err)
	}
	out := make([]model.FitnessProfile, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) SoftDeleteProfile(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE fitness_profiles SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, utc(at), id)
	if err != nil {
		return fmt.Errorf("delete fitness profile %d: %w", id, err)
	}
	return requireRow(res, "fitness profile", id)
}

const goalColumns = `id, user_id, goal_type, diet_type, protein_pct, fat_pct, carbs_pct,
  override_kcal, override_protein_g, override_fat_g, override_carbs_g, override_fiber_g,
  target_kcal, target_protein_g, target_fat_g, target_carbs_g, target_fiber_g,
  source_profile_id, created_at, deleted_at`

// CreateGoal retires the user's previous goal and inserts the new one
// atomically.
func (s *Store) CreateGoal(ctx context.Context, g model.FitnessGoal) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin goal tx: %w", err)
	}
	defer rollback(tx)

	created := utc(g.CreatedAt)
	if _, err := tx.ExecContext(ctx, `UPDATE fitness_goals SET deleted_at = ? WHERE user_id = ? AND deleted_at IS NULL`, created, g.UserID); err != nil {
		return 0, fmt.Errorf("retire previous goal: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
INSERT INTO fitness_goals(user_id, goal_type, diet_type, protein_pct, fat_pct, carbs_pct,
  override_kcal, override_protein_g, override_fat_g, override_carbs_g, override_fiber_g,
  target_kcal, target_protein_g, target_fat_g, target_carbs_g, target_fiber_g,
  source_profile_id, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, g.UserID, g.GoalType, g.DietType, g.ProteinPct, g.FatPct, g.CarbsPct,
		g.OverrideKcal, g.OverrideProteinG, g.OverrideFatG, g.OverrideCarbsG, g.OverrideFiberG,
		g.TargetKcal, g.TargetProteinG, g.TargetFatG, g.TargetCarbsG, g.TargetFiberG,
		g.SourceProfileID, created)
	if err != nil {
		return 0, fmt.Errorf("insert fitness goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("goal id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit goal: %w", err)
	}
	return id, nil
}

func (s *Store) CurrentGoal(ctx context.Context, userID string) (model.FitnessGoal, error) {
	var g model.FitnessGoal
	if err := s.db.GetContext(ctx, &g, `
SELECT `+goalColumns+` FROM fitness_goals
WHERE user_id = ? AND deleted_at IS NULL
ORDER BY created_at DESC, id DESC LIMIT 1
`, userID); err != nil {
		return model.FitnessGoal{}, lookupErr(err, "fitness goal for user", userID)
	}
	return g, nil
}

func (s *Store) UpdateGoalTargets(ctx context.Context, g model.FitnessGoal) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE fitness_goals
SET target_kcal = ?, target_protein_g = ?, target_fat_g = ?, target_carbs_g = ?, target_fiber_g = ?,
    source_profile_id = ?
WHERE id = ? AND deleted_at IS NULL
`, g.TargetKcal, g.TargetProteinG, g.TargetFatG, g.TargetCarbsG, g.TargetFiberG, g.SourceProfileID, g.ID)
	if err != nil {
		return fmt.Errorf("update goal %d targets: %w", g.ID, err)
	}
	return requireRow(res, "fitness goal", g.ID)
}
