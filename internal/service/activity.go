package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/energy"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metabolic"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metrics"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

// ActivityMeasurements is what was done and how it was measured.
type ActivityMeasurements struct {
	ActivityID      int64    `validate:"gt=0"`
	DurationMinutes *float64 `validate:"omitempty,gt=0"`
	Hours           *float64 `validate:"omitempty,gt=0"`
	Reps            *int     `validate:"omitempty,gt=0"`
	LoadKg          *float64 `validate:"omitempty,gte=0"`
	DistanceKm      *float64 `validate:"omitempty,gt=0"`
	RHR             *int     `validate:"omitempty,gt=0,lt=250"`
	AHR             *int     `validate:"omitempty,gt=0,lt=250"`
	IntensityLevel  *int     `validate:"omitempty,min=1,max=5"`
}

// ActivityInput attaches measurements to exactly one owner: the daily ledger
// for Day, or the challenge ChallengeID.
type ActivityInput struct {
	UserID      string `validate:"required"`
	Day         *time.Time
	ChallengeID *int64 `validate:"omitempty,gt=0"`
	ActivityMeasurements
}

func (m ActivityMeasurements) hasDuration() bool {
	return m.Hours != nil || m.DurationMinutes != nil
}

func (m ActivityMeasurements) energyInput() energy.Input {
	return energy.Input{
		DurationMinutes: m.DurationMinutes,
		Hours:           m.Hours,
		RHR:             m.RHR,
		AHR:             m.AHR,
		IntensityLevel:  m.IntensityLevel,
		LoadKg:          m.LoadKg,
		DistanceKm:      m.DistanceKm,
		Reps:            m.Reps,
	}
}

// apply copies the measurements onto e, storing duration as hours.
func (m ActivityMeasurements) apply(e *model.ActivityEntry, a model.Activity) {
	e.ActivityID = a.ID
	e.ActivityName = a.Name
	e.Reps = m.Reps
	e.LoadKg = m.LoadKg
	e.DistanceKm = m.DistanceKm
	e.RHR = m.RHR
	e.AHR = m.AHR
	e.IntensityLevel = m.IntensityLevel
	e.Hours = nil
	if m.hasDuration() {
		h := m.energyInput().DurationHours()
		e.Hours = &h
	}
}

func setEstimate(e *model.ActivityEntry, est energy.Estimate) {
	e.KcalBurned = est.KcalBurned
	e.EstimateMethod = est.Method
	e.EstimateNotes = est.NotesString()
}

func checkActivityOwner(in ActivityInput) error {
	if in.Day != nil && in.ChallengeID != nil {
		return apperr.Invalidf("activity entry cannot belong to both a ledger and a challenge")
	}
	return nil
}

// estimate runs the energy estimator with the user's bodyweight and age when
// they are known. userID may be empty for challenge templates.
func (s *Service) estimate(ctx context.Context, userID string, a model.Activity, m ActivityMeasurements) (energy.Estimate, error) {
	in := m.energyInput()
	in.DefaultBodyweightKg = s.defaultBodyweightKg
	if userID != "" {
		bw, age, err := s.subjectFacts(ctx, userID)
		if err != nil {
			return energy.Estimate{}, err
		}
		in.BodyweightKg = bw
		in.AgeYears = age
	}
	est := energy.Calculate(in, energy.Reference{Name: a.Name, METValue: a.METValue})
	metrics.RecordEstimate(est.Method)
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"activity": a.Name,
		"method":   est.Method,
		"kcal":     est.KcalBurned,
	}).Debug("estimated energy expenditure")
	return est, nil
}

// subjectFacts resolves bodyweight from the current profile, then the user
// record; age comes from the birth date.
func (s *Service) subjectFacts(ctx context.Context, userID string) (*float64, *int, error) {
	u, err := s.users.User(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	var bw *float64
	p, err := s.profiles.CurrentProfile(ctx, userID)
	switch {
	case err == nil:
		w := p.WeightKg
		bw = &w
	case errors.Is(err, apperr.ErrNotFound):
		bw = u.WeightKg
	default:
		return nil, nil, err
	}
	var age *int
	if u.BirthDate != nil {
		a := metabolic.Age(*u.BirthDate, s.now())
		if a > 0 {
			age = &a
		}
	}
	return bw, age, nil
}

// LogActivity routes the entry to its owner.
func (s *Service) LogActivity(ctx context.Context, in ActivityInput) (model.ActivityEntry, error) {
	if err := checkActivityOwner(in); err != nil {
		return model.ActivityEntry{}, err
	}
	if in.ChallengeID != nil {
		e, _, err := s.LogChallengeActivity(ctx, in)
		return e, err
	}
	e, _, err := s.AddActivity(ctx, in)
	return e, err
}

// AddActivity logs a daily activity on the ledger for in.Day (now when nil).
func (s *Service) AddActivity(ctx context.Context, in ActivityInput) (model.ActivityEntry, model.DailyLedger, error) {
	if err := checkActivityOwner(in); err != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, err
	}
	if in.ChallengeID != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, apperr.Invalidf("challenge activity must be logged with LogChallengeActivity")
	}
	if err := validateInput(in); err != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, err
	}
	if !in.hasDuration() {
		return model.ActivityEntry{}, model.DailyLedger{}, apperr.Invalidf("duration is required for a daily activity")
	}
	a, err := s.reference.ActivityByID(ctx, in.ActivityID)
	if err != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, err
	}
	est, err := s.estimate(ctx, in.UserID, a, in.ActivityMeasurements)
	if err != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, err
	}
	at := s.now()
	if in.Day != nil {
		at = *in.Day
	}
	date := s.Day(at)
	unlock := s.locks.Lock(ledgerKey(in.UserID, date))
	defer unlock()

	l, err := s.ledgers.GetOrCreateLedger(ctx, in.UserID, date)
	if err != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, err
	}
	userID := in.UserID
	e := model.ActivityEntry{LedgerID: &l.ID, UserID: &userID, UserOwned: true}
	in.apply(&e, a)
	setEstimate(&e, est)
	id, err := s.activities.CreateActivityEntry(ctx, e)
	if err != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, err
	}
	e.ID = id
	l, err = s.applyDelta(ctx, l, model.Nutrients{}, e.KcalBurned)
	if err != nil {
		return model.ActivityEntry{}, model.DailyLedger{}, err
	}
	return e, l, nil
}

// UpdateActivity re-measures an entry and re-estimates its kcal. Ledger
// entries rebalance their ledger; challenge entries refresh the progress they
// count toward.
func (s *Service) UpdateActivity(ctx context.Context, entryID int64, m ActivityMeasurements) (model.ActivityEntry, error) {
	if err := validateInput(m); err != nil {
		return model.ActivityEntry{}, err
	}
	e, err := s.activities.ActivityEntryByID(ctx, entryID)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	a, err := s.reference.ActivityByID(ctx, m.ActivityID)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	userID := ""
	if e.UserID != nil {
		userID = *e.UserID
	}

	if e.LedgerID == nil {
		if !e.UserOwned {
			if _, ok := dominantTarget(m); !ok {
				return model.ActivityEntry{}, apperr.Invalidf("challenge item needs a positive hours, reps, distance or load target")
			}
		}
		est, err := s.estimate(ctx, userID, a, m)
		if err != nil {
			return model.ActivityEntry{}, err
		}
		m.apply(&e, a)
		setEstimate(&e, est)
		if err := s.activities.UpdateActivityEntry(ctx, e); err != nil {
			return model.ActivityEntry{}, err
		}
		if e.ChallengeID != nil {
			if err := s.refreshChallengeOf(ctx, e); err != nil {
				return model.ActivityEntry{}, err
			}
		}
		return e, nil
	}

	if !m.hasDuration() {
		return model.ActivityEntry{}, apperr.Invalidf("duration is required for a daily activity")
	}
	est, err := s.estimate(ctx, userID, a, m)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	l, unlock, err := s.lockEntryLedger(ctx, *e.LedgerID)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	defer unlock()

	e, err = s.activities.ActivityEntryByID(ctx, entryID)
	if err != nil {
		return model.ActivityEntry{}, err
	}
	old := e.KcalBurned
	m.apply(&e, a)
	setEstimate(&e, est)
	if err := s.activities.UpdateActivityEntry(ctx, e); err != nil {
		return model.ActivityEntry{}, err
	}
	if _, err := s.applyDelta(ctx, l, model.Nutrients{}, e.KcalBurned-old); err != nil {
		return model.ActivityEntry{}, err
	}
	return e, nil
}

// refreshChallengeOf recalculates the progress a challenge entry affects: the
// owner's for a user entry, every participant's for a challenge item.
func (s *Service) refreshChallengeOf(ctx context.Context, e model.ActivityEntry) error {
	if !e.UserOwned {
		return s.refreshParticipants(ctx, *e.ChallengeID)
	}
	if e.UserID == nil {
		return nil
	}
	_, err := s.RecalculateProgress(ctx, *e.ChallengeID, *e.UserID)
	return err
}

// RemoveActivity soft-deletes an entry and rebalances whatever it counted
// toward.
func (s *Service) RemoveActivity(ctx context.Context, entryID int64) error {
	e, err := s.activities.ActivityEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if e.LedgerID == nil {
		if err := s.activities.SoftDeleteActivityEntry(ctx, entryID, s.now()); err != nil {
			return err
		}
		if e.ChallengeID != nil {
			return s.refreshChallengeOf(ctx, e)
		}
		return nil
	}

	l, unlock, err := s.lockEntryLedger(ctx, *e.LedgerID)
	if err != nil {
		return err
	}
	defer unlock()

	e, err = s.activities.ActivityEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.activities.SoftDeleteActivityEntry(ctx, entryID, s.now()); err != nil {
		return err
	}
	_, err = s.applyDelta(ctx, l, model.Nutrients{}, -e.KcalBurned)
	return err
}
