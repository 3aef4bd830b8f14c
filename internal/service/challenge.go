package service

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metrics"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

// metricRule reads one measurement from an entry.
type metricRule struct {
	name  string
	value func(e model.ActivityEntry) (float64, bool)
}

// dominantMetrics is checked in order; the first positive value on a target
// decides how that item is scored.
var dominantMetrics = []metricRule{
	{name: "hours", value: func(e model.ActivityEntry) (float64, bool) {
		if e.Hours == nil {
			return 0, false
		}
		return *e.Hours, true
	}},
	{name: "reps", value: func(e model.ActivityEntry) (float64, bool) {
		if e.Reps == nil {
			return 0, false
		}
		return float64(*e.Reps), true
	}},
	{name: "distance_km", value: func(e model.ActivityEntry) (float64, bool) {
		if e.DistanceKm == nil {
			return 0, false
		}
		return *e.DistanceKm, true
	}},
	{name: "load_kg", value: func(e model.ActivityEntry) (float64, bool) {
		if e.LoadKg == nil {
			return 0, false
		}
		return *e.LoadKg, true
	}},
}

type dominant struct {
	rule   metricRule
	target float64
}

func dominantMetric(target model.ActivityEntry) (dominant, bool) {
	for _, r := range dominantMetrics {
		if v, ok := r.value(target); ok && v > 0 {
			return dominant{rule: r, target: v}, true
		}
	}
	return dominant{}, false
}

func dominantTarget(m ActivityMeasurements) (dominant, bool) {
	var e model.ActivityEntry
	m.apply(&e, model.Activity{})
	return dominantMetric(e)
}

// itemPercent scores one challenge item from the user's entries: the sum of
// the dominant metric over matching entries against the target, capped at 100.
func itemPercent(target model.ActivityEntry, userID string, entries []model.ActivityEntry) (float64, error) {
	d, ok := dominantMetric(target)
	if !ok {
		return 0, apperr.Preconditionf("challenge item %d has no positive hours, reps, distance or load target", target.ID)
	}
	var sum float64
	for _, e := range entries {
		if !matchesItem(target, userID, e) {
			continue
		}
		if v, ok := d.rule.value(e); ok {
			sum += v
		}
	}
	return math.Min(100, sum/d.target*100), nil
}

func matchesItem(target model.ActivityEntry, userID string, e model.ActivityEntry) bool {
	return e.UserOwned &&
		e.DeletedAt == nil &&
		e.UserID != nil && *e.UserID == userID &&
		e.ChallengeID != nil && target.ChallengeID != nil && *e.ChallengeID == *target.ChallengeID &&
		e.ActivityName == target.ActivityName
}

// averagePercent is the unweighted mean rounded to one decimal.
func averagePercent(items []float64) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, p := range items {
		sum += p
	}
	return math.Round(sum/float64(len(items))*10) / 10
}

func progressKey(challengeID int64, userID string) string {
	return fmt.Sprintf("%d|%s", challengeID, userID)
}

// ItemPercent scores a single challenge item for a user.
func (s *Service) ItemPercent(ctx context.Context, userID string, targetEntryID int64) (float64, error) {
	target, err := s.activities.ActivityEntryByID(ctx, targetEntryID)
	if err != nil {
		return 0, err
	}
	if target.ChallengeID == nil || target.UserOwned {
		return 0, apperr.NotFoundf("challenge item %d not found", targetEntryID)
	}
	snap, err := s.challenges.ProgressSnapshot(ctx, *target.ChallengeID, userID)
	if err != nil {
		return 0, err
	}
	return itemPercent(target, userID, snap.UserEntries)
}

// RecalculateProgress scores every item of the challenge from one snapshot
// and stores the mean. completed_at is never touched.
func (s *Service) RecalculateProgress(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error) {
	p, err := s.recalculateProgress(ctx, challengeID, userID)
	metrics.RecordProgressRecalculation(err)
	return p, err
}

func (s *Service) recalculateProgress(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error) {
	if _, err := s.challenges.ChallengeByID(ctx, challengeID); err != nil {
		return model.ChallengeProgress{}, err
	}
	if _, err := s.users.User(ctx, userID); err != nil {
		return model.ChallengeProgress{}, err
	}
	unlock := s.locks.Lock(progressKey(challengeID, userID))
	defer unlock()

	snap, err := s.challenges.ProgressSnapshot(ctx, challengeID, userID)
	if err != nil {
		return model.ChallengeProgress{}, err
	}
	items := make([]float64, 0, len(snap.Targets))
	for _, t := range snap.Targets {
		pct, err := itemPercent(t, userID, snap.UserEntries)
		if err != nil {
			return model.ChallengeProgress{}, err
		}
		items = append(items, pct)
	}
	percent := averagePercent(items)
	p, err := s.challenges.SaveProgressPercent(ctx, challengeID, userID, percent, s.now())
	if err != nil {
		return model.ChallengeProgress{}, err
	}
	s.log.WithFields(logrus.Fields{
		"challenge_id": challengeID,
		"user_id":      userID,
		"items":        len(items),
		"percent":      percent,
	}).Debug("recalculated challenge progress")
	return p, nil
}

// refreshParticipants recalculates every unfinished participant after the
// challenge items change. Finished participants keep their 100%.
func (s *Service) refreshParticipants(ctx context.Context, challengeID int64) error {
	rows, err := s.challenges.ListProgress(ctx, challengeID)
	if err != nil {
		return err
	}
	refreshed := 0
	for _, p := range rows {
		if p.CompletedAt != nil {
			continue
		}
		if _, err := s.RecalculateProgress(ctx, challengeID, p.UserID); err != nil {
			return err
		}
		refreshed++
	}
	if refreshed > 0 {
		s.log.WithFields(logrus.Fields{"challenge_id": challengeID, "participants": refreshed}).Debug("refreshed challenge participants")
	}
	return nil
}

// ChallengeItems lists the target items of a challenge.
func (s *Service) ChallengeItems(ctx context.Context, challengeID int64) ([]model.ActivityEntry, error) {
	if _, err := s.challenges.ChallengeByID(ctx, challengeID); err != nil {
		return nil, err
	}
	snap, err := s.challenges.ProgressSnapshot(ctx, challengeID, "")
	if err != nil {
		return nil, err
	}
	return snap.Targets, nil
}

func (s *Service) Progress(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error) {
	return s.challenges.ChallengeProgress(ctx, challengeID, userID)
}

// JoinChallenge creates the user's progress record at 0% if it is missing.
func (s *Service) JoinChallenge(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error) {
	if _, err := s.challenges.ChallengeByID(ctx, challengeID); err != nil {
		return model.ChallengeProgress{}, err
	}
	if _, err := s.users.User(ctx, userID); err != nil {
		return model.ChallengeProgress{}, err
	}
	unlock := s.locks.Lock(progressKey(challengeID, userID))
	defer unlock()
	p, err := s.challenges.EnsureProgress(ctx, challengeID, userID, s.now())
	if err != nil {
		return model.ChallengeProgress{}, err
	}
	s.log.WithFields(logrus.Fields{"challenge_id": challengeID, "user_id": userID}).Info("joined challenge")
	return p, nil
}

// FinishChallenge marks the challenge complete at exactly 100% regardless of
// the accumulated percent. Finishing twice is a conflict.
func (s *Service) FinishChallenge(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error) {
	p, err := s.finishChallenge(ctx, challengeID, userID)
	metrics.RecordChallengeFinish(err)
	return p, err
}

func (s *Service) finishChallenge(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error) {
	if _, err := s.challenges.ChallengeByID(ctx, challengeID); err != nil {
		return model.ChallengeProgress{}, err
	}
	if _, err := s.users.User(ctx, userID); err != nil {
		return model.ChallengeProgress{}, err
	}
	unlock := s.locks.Lock(progressKey(challengeID, userID))
	defer unlock()
	p, err := s.challenges.MarkCompleted(ctx, challengeID, userID, s.now())
	if err != nil {
		return model.ChallengeProgress{}, err
	}
	s.log.WithFields(logrus.Fields{"challenge_id": challengeID, "user_id": userID}).Info("finished challenge")
	return p, nil
}

// AddChallengeItem adds a target item to the challenge template.
func (s *Service) AddChallengeItem(ctx context.Context, challengeID int64, m ActivityMeasurements) (model.ActivityEntry, error) {
	if err := validateInput(m); err != nil {
		return model.ActivityEntry{}, err
	}
	if _, ok := dominantTarget(m); !ok {
		return model.ActivityEntry{}, apperr.Invalidf("challenge item needs a positive hours, reps, distance or load target")
	}
	if _, err := s.challenges.ChallengeByID(ctx, challengeID); err != nil {
		return model.ActivityEntry{}, err
	}
	a, err := s.reference.ActivityByID(ctx, m.ActivityID)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	est, err := s.estimate(ctx, "", a, m)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	e := model.ActivityEntry{ChallengeID: &challengeID}
	m.apply(&e, a)
	setEstimate(&e, est)
	id, err := s.activities.CreateActivityEntry(ctx, e)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	e.ID = id
	if err := s.refreshParticipants(ctx, challengeID); err != nil {
		return model.ActivityEntry{}, err
	}
	return e, nil
}

// LogChallengeActivity records a user session against a challenge and
// refreshes the user's progress. It never counts toward a ledger.
func (s *Service) LogChallengeActivity(ctx context.Context, in ActivityInput) (model.ActivityEntry, model.ChallengeProgress, error) {
	if err := checkActivityOwner(in); err != nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, err
	}
	if in.ChallengeID == nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, apperr.Invalidf("challenge id is required")
	}
	if err := validateInput(in); err != nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, err
	}
	challengeID := *in.ChallengeID
	if _, err := s.challenges.ChallengeByID(ctx, challengeID); err != nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, err
	}
	a, err := s.reference.ActivityByID(ctx, in.ActivityID)
	if err != nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, err
	}
	est, err := s.estimate(ctx, in.UserID, a, in.ActivityMeasurements)
	if err != nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, err
	}
	userID := in.UserID
	e := model.ActivityEntry{ChallengeID: &challengeID, UserID: &userID, UserOwned: true}
	in.apply(&e, a)
	setEstimate(&e, est)
	id, err := s.activities.CreateActivityEntry(ctx, e)
	if err != nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, err
	}
	e.ID = id
	p, err := s.RecalculateProgress(ctx, challengeID, userID)
	if err != nil {
		return model.ActivityEntry{}, model.ChallengeProgress{}, err
	}
	return e, p, nil
}
