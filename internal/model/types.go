package model

import (
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type User struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	BirthDate *time.Time `db:"birth_date"`
	Sex       Sex        `db:"sex"`
	WeightKg  *float64   `db:"weight_kg"`
	CreatedAt time.Time  `db:"created_at"`
}

type Activity struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	METValue  float64   `db:"met_value"`
	CreatedAt time.Time `db:"created_at"`
}

// Ingredient nutrition values are per 100 g.
type Ingredient struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Kcal      float64   `db:"kcal"`
	ProteinG  float64   `db:"protein_g"`
	FatG      float64   `db:"fat_g"`
	CarbsG    float64   `db:"carbs_g"`
	FiberG    float64   `db:"fiber_g"`
	CreatedAt time.Time `db:"created_at"`
}

type Meal struct {
	ID         int64
	Name       string
	Components []MealComponent
	CreatedAt  time.Time
}

type MealComponent struct {
	MealID       int64   `db:"meal_id"`
	IngredientID int64   `db:"ingredient_id"`
	Grams        float64 `db:"grams"`
}

// Nutrients is a kcal/macro bundle shared by entries and ledgers.
type Nutrients struct {
	Kcal     float64 `db:"kcal"`
	ProteinG float64 `db:"protein_g"`
	FatG     float64 `db:"fat_g"`
	CarbsG   float64 `db:"carbs_g"`
	FiberG   float64 `db:"fiber_g"`
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Kcal:     n.Kcal + o.Kcal,
		ProteinG: n.ProteinG + o.ProteinG,
		FatG:     n.FatG + o.FatG,
		CarbsG:   n.CarbsG + o.CarbsG,
		FiberG:   n.FiberG + o.FiberG,
	}
}

func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		Kcal:     n.Kcal * factor,
		ProteinG: n.ProteinG * factor,
		FatG:     n.FatG * factor,
		CarbsG:   n.CarbsG * factor,
		FiberG:   n.FiberG * factor,
	}
}

type DailyLedger struct {
	ID              int64     `db:"id"`
	UserID          string    `db:"user_id"`
	Date            string    `db:"date"`
	TotalKcalEaten  float64   `db:"total_kcal_eaten"`
	TotalKcalBurned float64   `db:"total_kcal_burned"`
	TotalKcal       float64   `db:"total_kcal"`
	TotalProteinG   float64   `db:"total_protein_g"`
	TotalFatG       float64   `db:"total_fat_g"`
	TotalCarbsG     float64   `db:"total_carbs_g"`
	TotalFiberG     float64   `db:"total_fiber_g"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// LedgerTotals is the full set of denormalized fields a recompute overwrites.
type LedgerTotals struct {
	KcalEaten  float64
	KcalBurned float64
	ProteinG   float64
	FatG       float64
	CarbsG     float64
	FiberG     float64
}

func (t LedgerTotals) NetKcal() float64 {
	return t.KcalEaten - t.KcalBurned
}

func (l DailyLedger) Totals() LedgerTotals {
	return LedgerTotals{
		KcalEaten:  l.TotalKcalEaten,
		KcalBurned: l.TotalKcalBurned,
		ProteinG:   l.TotalProteinG,
		FatG:       l.TotalFatG,
		CarbsG:     l.TotalCarbsG,
		FiberG:     l.TotalFiberG,
	}
}

func (l *DailyLedger) SetTotals(t LedgerTotals) {
	l.TotalKcalEaten = t.KcalEaten
	l.TotalKcalBurned = t.KcalBurned
	l.TotalKcal = t.NetKcal()
	l.TotalProteinG = t.ProteinG
	l.TotalFatG = t.FatG
	l.TotalCarbsG = t.CarbsG
	l.TotalFiberG = t.FiberG
}

type NutritionEntry struct {
	ID           int64      `db:"id"`
	LedgerID     int64      `db:"ledger_id"`
	IngredientID *int64     `db:"ingredient_id"`
	MealID       *int64     `db:"meal_id"`
	Quantity     float64    `db:"quantity"`
	Kcal         float64    `db:"kcal"`
	ProteinG     float64    `db:"protein_g"`
	FatG         float64    `db:"fat_g"`
	CarbsG       float64    `db:"carbs_g"`
	FiberG       float64    `db:"fiber_g"`
	CreatedAt    time.Time  `db:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (e NutritionEntry) Nutrients() Nutrients {
	return Nutrients{Kcal: e.Kcal, ProteinG: e.ProteinG, FatG: e.FatG, CarbsG: e.CarbsG, FiberG: e.FiberG}
}

func (e *NutritionEntry) SetNutrients(n Nutrients) {
	e.Kcal = n.Kcal
	e.ProteinG = n.ProteinG
	e.FatG = n.FatG
	e.CarbsG = n.CarbsG
	e.FiberG = n.FiberG
}

type ActivityEntry struct {
	ID             int64      `db:"id"`
	ActivityID     int64      `db:"activity_id"`
	ActivityName   string     `db:"activity_name"`
	LedgerID       *int64     `db:"ledger_id"`
	ChallengeID    *int64     `db:"challenge_id"`
	UserID         *string    `db:"user_id"`
	UserOwned      bool       `db:"user_owned"`
	KcalBurned     float64    `db:"kcal_burned"`
	EstimateMethod string     `db:"estimate_method"`
	EstimateNotes  string     `db:"estimate_notes"`
	Reps           *int       `db:"reps"`
	Hours          *float64   `db:"hours"`
	LoadKg         *float64   `db:"load_kg"`
	DistanceKm     *float64   `db:"distance_km"`
	RHR            *int       `db:"rhr"`
	AHR            *int       `db:"ahr"`
	IntensityLevel *int       `db:"intensity_level"`
	CreatedAt      time.Time  `db:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

// CheckOwnership enforces that an entry belongs to exactly one of a daily
// ledger or a challenge.
func (e ActivityEntry) CheckOwnership() error {
	switch {
	case e.LedgerID != nil && e.ChallengeID != nil:
		return apperr.Invalidf("activity entry cannot belong to both a ledger and a challenge")
	case e.LedgerID == nil && e.ChallengeID == nil:
		return apperr.Invalidf("activity entry must belong to a ledger or a challenge")
	}
	return nil
}

type Challenge struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type ChallengeProgress struct {
	UserID          string     `db:"user_id"`
	ChallengeID     int64      `db:"challenge_id"`
	ProgressPercent float64    `db:"progress_percent"`
	CompletedAt     *time.Time `db:"completed_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// Claimable reports whether the user may claim the challenge reward.
func (p ChallengeProgress) Claimable() bool {
	return p.CompletedAt != nil && p.ProgressPercent >= 100
}

// ProgressSnapshot is every input of a progress calculation, read at one
// point in time.
type ProgressSnapshot struct {
	Targets     []ActivityEntry
	UserEntries []ActivityEntry
}

type FitnessProfile struct {
	ID                 int64              `db:"id"`
	UserID             string             `db:"user_id"`
	WeightKg           float64            `db:"weight_kg"`
	HeightCm           float64            `db:"height_cm"`
	WaistCm            *float64           `db:"waist_cm"`
	HipCm              *float64           `db:"hip_cm"`
	NeckCm             *float64           `db:"neck_cm"`
	ActivityLevel      string             `db:"activity_level"`
	BMR                float64            `db:"bmr"`
	BMI                float64            `db:"bmi"`
	TDEEKcal           float64            `db:"tdee_kcal"`
	BodyFatPercentages map[string]float64 `db:"-"`
	CreatedAt          time.Time          `db:"created_at"`
	DeletedAt          *time.Time         `db:"deleted_at"`
}

type FitnessGoal struct {
	ID               int64      `db:"id"`
	UserID           string     `db:"user_id"`
	GoalType         string     `db:"goal_type"`
	DietType         string     `db:"diet_type"`
	ProteinPct       *float64   `db:"protein_pct"`
	FatPct           *float64   `db:"fat_pct"`
	CarbsPct         *float64   `db:"carbs_pct"`
	OverrideKcal     *float64   `db:"override_kcal"`
	OverrideProteinG *float64   `db:"override_protein_g"`
	OverrideFatG     *float64   `db:"override_fat_g"`
	OverrideCarbsG   *float64   `db:"override_carbs_g"`
	OverrideFiberG   *float64   `db:"override_fiber_g"`
	TargetKcal       float64    `db:"target_kcal"`
	TargetProteinG   float64    `db:"target_protein_g"`
	TargetFatG       float64    `db:"target_fat_g"`
	TargetCarbsG     float64    `db:"target_carbs_g"`
	TargetFiberG     float64    `db:"target_fiber_g"`
	SourceProfileID  *int64     `db:"source_profile_id"`
	CreatedAt        time.Time  `db:"created_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}
