// Package service orchestrates the engine: the daily ledger aggregator, the
// challenge progress accumulator, and the profile and goal flows. Persistence
// is reached through the repository interfaces in repository.go.
package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/keylock"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/logging"
)

// Repositories groups the persistence ports. A single store usually
// implements all of them.
type Repositories struct {
	Users      UserRepository
	Reference  ReferenceRepository
	Ledgers    LedgerRepository
	Activities ActivityEntryRepository
	Challenges ChallengeRepository
	Profiles   ProfileRepository
	Goals      GoalRepository
	Settings   SettingsRepository
}

type Options struct {
	Log      logrus.FieldLogger
	Location *time.Location
	Now      func() time.Time
	// DefaultBodyweightKg is used by the energy estimator when neither a
	// profile nor the user record has a weight.
	DefaultBodyweightKg float64
}

type Service struct {
	users      UserRepository
	reference  ReferenceRepository
	ledgers    LedgerRepository
	activities ActivityEntryRepository
	challenges ChallengeRepository
	profiles   ProfileRepository
	goals      GoalRepository
	settings   SettingsRepository

	log   logrus.FieldLogger
	loc   *time.Location
	now   func() time.Time
	locks *keylock.Map

	defaultBodyweightKg float64
}

func New(r Repositories, o Options) *Service {
	s := &Service{
		users:      r.Users,
		reference:  r.Reference,
		ledgers:    r.Ledgers,
		activities: r.Activities,
		challenges: r.Challenges,
		profiles:   r.Profiles,
		goals:      r.Goals,
		settings:   r.Settings,
		log:        o.Log,
		loc:        o.Location,
		now:        o.Now,
		locks:      keylock.New(),

		defaultBodyweightKg: o.DefaultBodyweightKg,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Day returns the ledger date of t in the configured day timezone.
func (s *Service) Day(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}
