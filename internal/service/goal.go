package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/targets"
)

type GoalInput struct {
	GoalType string `validate:"required,oneof=cut bulk gain_muscles maintain recovery"`
	DietType string `validate:"omitempty,oneof=balanced high_protein low_carb keto"`

	ProteinPct *float64 `validate:"omitempty,gte=0,lte=100"`
	FatPct     *float64 `validate:"omitempty,gte=0,lte=100"`
	CarbsPct   *float64 `validate:"omitempty,gte=0,lte=100"`

	OverrideKcal     *float64 `validate:"omitempty,gt=0"`
	OverrideProteinG *float64 `validate:"omitempty,gte=0"`
	OverrideFatG     *float64 `validate:"omitempty,gte=0"`
	OverrideCarbsG   *float64 `validate:"omitempty,gte=0"`
	OverrideFiberG   *float64 `validate:"omitempty,gte=0"`
}

// goalSplit picks explicit percentages over the diet preset; nil means the
// default split.
func goalSplit(g model.FitnessGoal) (*targets.MacroSplit, error) {
	set := 0
	for _, p := range []*float64{g.ProteinPct, g.FatPct, g.CarbsPct} {
		if p != nil {
			set++
		}
	}
	switch {
	case set == 3:
		return &targets.MacroSplit{ProteinPct: *g.ProteinPct, FatPct: *g.FatPct, CarbsPct: *g.CarbsPct}, nil
	case set > 0:
		return nil, apperr.Invalidf("protein, fat and carbs percentages must be set together")
	case g.DietType != "":
		split, ok := targets.DietSplits[g.DietType]
		if !ok {
			return nil, apperr.Invalidf("unknown diet type %q", g.DietType)
		}
		return &split, nil
	default:
		return nil, nil
	}
}

func goalTargets(g model.FitnessGoal, tdee float64) (targets.Targets, error) {
	goal, err := targets.ParseGoalType(g.GoalType)
	if err != nil {
		return targets.Targets{}, err
	}
	split, err := goalSplit(g)
	if err != nil {
		return targets.Targets{}, err
	}
	return targets.Derive(tdee, goal, split, targets.Overrides{
		Kcal:     g.OverrideKcal,
		ProteinG: g.OverrideProteinG,
		FatG:     g.OverrideFatG,
		CarbsG:   g.OverrideCarbsG,
		FiberG:   g.OverrideFiberG,
	})
}

func applyTargets(g *model.FitnessGoal, t targets.Targets) {
	g.TargetKcal = t.Kcal
	g.TargetProteinG = t.ProteinG
	g.TargetFatG = t.FatG
	g.TargetCarbsG = t.CarbsG
	g.TargetFiberG = t.FiberG
}

// SetGoal derives targets from the user's current profile and makes the new
// goal the active one.
func (s *Service) SetGoal(ctx context.Context, userID string, in GoalInput) (model.FitnessGoal, error) {
	if err := validateInput(in); err != nil {
		return model.FitnessGoal{}, err
	}
	if _, err := s.users.User(ctx, userID); err != nil {
		return model.FitnessGoal{}, err
	}
	p, err := s.profiles.CurrentProfile(ctx, userID)
	if err != nil {
		return model.FitnessGoal{}, err
	}
	g := model.FitnessGoal{
		UserID:           userID,
		GoalType:         in.GoalType,
		DietType:         in.DietType,
		ProteinPct:       in.ProteinPct,
		FatPct:           in.FatPct,
		CarbsPct:         in.CarbsPct,
		OverrideKcal:     in.OverrideKcal,
		OverrideProteinG: in.OverrideProteinG,
		OverrideFatG:     in.OverrideFatG,
		OverrideCarbsG:   in.OverrideCarbsG,
		OverrideFiberG:   in.OverrideFiberG,
		SourceProfileID:  &p.ID,
		CreatedAt:        s.now(),
	}
	t, err := goalTargets(g, p.TDEEKcal)
	if err != nil {
		return model.FitnessGoal{}, err
	}
	applyTargets(&g, t)
	id, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return model.FitnessGoal{}, err
	}
	g.ID = id
	s.log.WithFields(logrus.Fields{"user_id": userID, "goal_id": id, "goal_type": g.GoalType, "target_kcal": g.TargetKcal}).Info("set fitness goal")
	return g, nil
}

func (s *Service) CurrentGoal(ctx context.Context, userID string) (model.FitnessGoal, error) {
	return s.goals.CurrentGoal(ctx, userID)
}
