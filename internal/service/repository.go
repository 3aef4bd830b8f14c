package service

import (
	"context"
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

// UserDirectory supplies birth date, sex and fallback bodyweight.
type UserDirectory interface {
	User(ctx context.Context, id string) (model.User, error)
}

type UserRepository interface {
	UserDirectory
	CreateUser(ctx context.Context, u model.User) error
}

type ReferenceRepository interface {
	ActivityByID(ctx context.Context, id int64) (model.Activity, error)
	ActivityByName(ctx context.Context, name string) (model.Activity, error)
	CreateActivity(ctx context.Context, a model.Activity) (int64, error)
	ListActivities(ctx context.Context) ([]model.Activity, error)
	IngredientByID(ctx context.Context, id int64) (model.Ingredient, error)
	CreateIngredient(ctx context.Context, in model.Ingredient) (int64, error)
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	MealByID(ctx context.Context, id int64) (model.Meal, error)
	CreateMeal(ctx context.Context, m model.Meal) (int64, error)
}

type LedgerRepository interface {
	FindLedger(ctx context.Context, userID, date string) (model.DailyLedger, error)
	GetOrCreateLedger(ctx context.Context, userID, date string) (model.DailyLedger, error)
	LedgerByID(ctx context.Context, id int64) (model.DailyLedger, error)
	ListLedgers(ctx context.Context, userID string) ([]model.DailyLedger, error)
	SaveLedgerTotals(ctx context.Context, l model.DailyLedger) error
	// RecomputeLedger sums the live children and overwrites every total in
	// one transaction.
	RecomputeLedger(ctx context.Context, id int64) (model.DailyLedger, error)
	LedgerChildTotals(ctx context.Context, id int64) (model.LedgerTotals, error)

	NutritionEntryByID(ctx context.Context, id int64) (model.NutritionEntry, error)
	CreateNutritionEntry(ctx context.Context, e model.NutritionEntry) (int64, error)
	UpdateNutritionEntry(ctx context.Context, e model.NutritionEntry) error
	SoftDeleteNutritionEntry(ctx context.Context, id int64, at time.Time) error
	ListNutritionEntries(ctx context.Context, ledgerID int64) ([]model.NutritionEntry, error)
}

type ActivityEntryRepository interface {
	ActivityEntryByID(ctx context.Context, id int64) (model.ActivityEntry, error)
	CreateActivityEntry(ctx context.Context, e model.ActivityEntry) (int64, error)
	UpdateActivityEntry(ctx context.Context, e model.ActivityEntry) error
	SoftDeleteActivityEntry(ctx context.Context, id int64, at time.Time) error
	ListLedgerActivityEntries(ctx context.Context, ledgerID int64) ([]model.ActivityEntry, error)
}

type ChallengeRepository interface {
	ChallengeByID(ctx context.Context, id int64) (model.Challenge, error)
	CreateChallenge(ctx context.Context, c model.Challenge) (int64, error)
	ListChallenges(ctx context.Context) ([]model.Challenge, error)
	ProgressSnapshot(ctx context.Context, challengeID int64, userID string) (model.ProgressSnapshot, error)
	ChallengeProgress(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error)
	EnsureProgress(ctx context.Context, challengeID int64, userID string, at time.Time) (model.ChallengeProgress, error)
	// ListProgress returns every participant's progress row.
	ListProgress(ctx context.Context, challengeID int64) ([]model.ChallengeProgress, error)
	SaveProgressPercent(ctx context.Context, challengeID int64, userID string, percent float64, at time.Time) (model.ChallengeProgress, error)
	// MarkCompleted fails with a conflict when completed_at is already set.
	MarkCompleted(ctx context.Context, challengeID int64, userID string, at time.Time) (model.ChallengeProgress, error)
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, p model.FitnessProfile) (int64, error)
	ProfileByID(ctx context.Context, id int64) (model.FitnessProfile, error)
	CurrentProfile(ctx context.Context, userID string) (model.FitnessProfile, error)
	ListProfiles(ctx context.Context, userID string) ([]model.FitnessProfile, error)
	SoftDeleteProfile(ctx context.Context, id int64, at time.Time) error
}

type GoalRepository interface {
	CreateGoal(ctx context.Context, g model.FitnessGoal) (int64, error)
	CurrentGoal(ctx context.Context, userID string) (model.FitnessGoal, error)
	UpdateGoalTargets(ctx context.Context, g model.FitnessGoal) error
}

type SettingsRepository interface {
	SetSetting(ctx context.Context, key, value string) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
	ListSettings(ctx context.Context) (map[string]string, error)
}
