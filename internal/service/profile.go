package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metabolic"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type ProfileInput struct {
	WeightKg       float64  `validate:"gt=0"`
	HeightCm       float64  `validate:"gt=0"`
	WaistCm        *float64 `validate:"omitempty,gt=0"`
	HipCm          *float64 `validate:"omitempty,gt=0"`
	NeckCm         *float64 `validate:"omitempty,gt=0"`
	ActivityLevel  string   `validate:"required,oneof=sedentary lightly_active moderate active very_active"`
	BodyFatMethods []string `validate:"dive,oneof=bmi us_navy ymca"`
}

// RecordProfile derives and stores a new measurement snapshot, then
// re-derives the user's active goal from the new TDEE.
func (s *Service) RecordProfile(ctx context.Context, userID string, in ProfileInput) (model.FitnessProfile, error) {
	if err := validateInput(in); err != nil {
		return model.FitnessProfile{}, err
	}
	u, err := s.users.User(ctx, userID)
	if err != nil {
		return model.FitnessProfile{}, err
	}
	methods, err := s.bodyFatMethods(ctx, in.BodyFatMethods)
	if err != nil {
		return model.FitnessProfile{}, err
	}
	now := s.now()
	d, err := metabolic.Derive(metabolic.Subject{
		Sex:       u.Sex,
		BirthDate: u.BirthDate,
		WeightKg:  in.WeightKg,
		HeightCm:  in.HeightCm,
		WaistCm:   in.WaistCm,
		HipCm:     in.HipCm,
		NeckCm:    in.NeckCm,
		At:        now,
	}, in.ActivityLevel, methods)
	if err != nil {
		return model.FitnessProfile{}, err
	}

	p := model.FitnessProfile{
		UserID:             userID,
		WeightKg:           in.WeightKg,
		HeightCm:           in.HeightCm,
		WaistCm:            in.WaistCm,
		HipCm:              in.HipCm,
		NeckCm:             in.NeckCm,
		ActivityLevel:      in.ActivityLevel,
		BMR:                d.BMR,
		BMI:                d.BMI,
		TDEEKcal:           d.TDEE,
		BodyFatPercentages: d.BodyFatPercentages,
		CreatedAt:          now,
	}
	id, err := s.profiles.CreateProfile(ctx, p)
	if err != nil {
		return model.FitnessProfile{}, err
	}
	p.ID = id
	s.log.WithFields(logrus.Fields{"user_id": userID, "profile_id": id, "tdee": p.TDEEKcal}).Debug("recorded fitness profile")

	if err := s.rederiveGoal(ctx, p); err != nil {
		return model.FitnessProfile{}, err
	}
	return p, nil
}

// bodyFatMethods parses the requested methods, falling back to the stored
// default method and then to bmi.
func (s *Service) bodyFatMethods(ctx context.Context, requested []string) ([]metabolic.BodyFatMethod, error) {
	if len(requested) == 0 && s.settings != nil {
		v, ok, err := s.settings.GetSetting(ctx, SettingDefaultBodyFatMethod)
		if err != nil {
			return nil, err
		}
		if ok && strings.TrimSpace(v) != "" {
			requested = []string{v}
		}
	}
	out := make([]metabolic.BodyFatMethod, 0, len(requested))
	seen := map[metabolic.BodyFatMethod]bool{}
	for _, r := range requested {
		m, err := metabolic.ParseBodyFatMethod(strings.TrimSpace(r))
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

func (s *Service) rederiveGoal(ctx context.Context, p model.FitnessProfile) error {
	g, err := s.goals.CurrentGoal(ctx, p.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t, err := goalTargets(g, p.TDEEKcal)
	if err != nil {
		return err
	}
	applyTargets(&g, t)
	g.SourceProfileID = &p.ID
	if err := s.goals.UpdateGoalTargets(ctx, g); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": p.UserID, "goal_id": g.ID, "target_kcal": g.TargetKcal}).Debug("re-derived goal targets")
	return nil
}

func (s *Service) CurrentProfile(ctx context.Context, userID string) (model.FitnessProfile, error) {
	return s.profiles.CurrentProfile(ctx, userID)
}

func (s *Service) ProfileHistory(ctx context.Context, userID string) ([]model.FitnessProfile, error) {
	return s.profiles.ListProfiles(ctx, userID)
}

// DeleteProfile soft-deletes a snapshot and re-derives the active goal from
// whichever profile is current afterwards. With no profile left the goal keeps
// its last targets.
func (s *Service) DeleteProfile(ctx context.Context, profileID int64) error {
	p, err := s.profiles.ProfileByID(ctx, profileID)
	if err != nil {
		return err
	}
	if err := s.profiles.SoftDeleteProfile(ctx, profileID, s.now()); err != nil {
		return err
	}
	cur, err := s.profiles.CurrentProfile(ctx, p.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.log.WithFields(logrus.Fields{"user_id": p.UserID, "profile_id": profileID}).Debug("deleted last fitness profile")
		return nil
	}
	if err != nil {
		return err
	}
	return s.rederiveGoal(ctx, cur)
}
