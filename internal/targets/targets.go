// Package targets turns a TDEE figure and a goal type into daily kcal and
// macro targets.
package targets

import (
	"math"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
)

type GoalType string

const (
	Cut         GoalType = "cut"
	Bulk        GoalType = "bulk"
	GainMuscles GoalType = "gain_muscles"
	Maintain    GoalType = "maintain"
	Recovery    GoalType = "recovery"
)

const (
	MinKcal = 1200

	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4
	fiberPer1000Kcal   = 14
)

var kcalOffsets = map[GoalType]float64{
	Cut:         -500,
	Bulk:        400,
	GainMuscles: 400,
	Maintain:    0,
	Recovery:    200,
}

// MacroSplit holds percentages of kcal; they must add up to 100.
type MacroSplit struct {
	ProteinPct float64
	FatPct     float64
	CarbsPct   float64
}

var DefaultSplit = MacroSplit{ProteinPct: 30, FatPct: 25, CarbsPct: 45}

// DietSplits are the named presets offered to callers.
var DietSplits = map[string]MacroSplit{
	"balanced":     DefaultSplit,
	"high_protein": {ProteinPct: 40, FatPct: 30, CarbsPct: 30},
	"low_carb":     {ProteinPct: 35, FatPct: 45, CarbsPct: 20},
	"keto":         {ProteinPct: 20, FatPct: 75, CarbsPct: 5},
}

func (s MacroSplit) validate() error {
	if s.ProteinPct < 0 || s.FatPct < 0 || s.CarbsPct < 0 {
		return apperr.Invalidf("macro split percentages must be >= 0")
	}
	if sum := s.ProteinPct + s.FatPct + s.CarbsPct; math.Abs(sum-100) > 0.5 {
		return apperr.Invalidf("macro split must add up to 100, got %.1f", sum)
	}
	return nil
}

// Overrides are caller-supplied values; a non-nil field replaces the derived one.
type Overrides struct {
	Kcal     *float64
	ProteinG *float64
	FatG     *float64
	CarbsG   *float64
	FiberG   *float64
}

type Targets struct {
	Kcal     float64
	ProteinG float64
	FatG     float64
	CarbsG   float64
	FiberG   float64
}

func ParseGoalType(v string) (GoalType, error) {
	g := GoalType(v)
	if _, ok := kcalOffsets[g]; !ok {
		return "", apperr.Invalidf("invalid goal type %q (use cut, bulk, gain_muscles, maintain or recovery)", v)
	}
	return g, nil
}

// Derive computes targets. Grams derive from the derived kcal, not from an
// overridden kcal, so each override only replaces its own field.
func Derive(tdee float64, goal GoalType, split *MacroSplit, o Overrides) (Targets, error) {
	offset, ok := kcalOffsets[goal]
	if !ok {
		return Targets{}, apperr.Invalidf("invalid goal type %q", goal)
	}
	if tdee <= 0 {
		return Targets{}, apperr.Invalidf("tdee must be > 0")
	}
	s := DefaultSplit
	if split != nil {
		if err := split.validate(); err != nil {
			return Targets{}, err
		}
		s = *split
	}

	kcal := math.Round(math.Max(MinKcal, tdee+offset))
	t := Targets{
		Kcal:     kcal,
		ProteinG: math.Round(kcal * s.ProteinPct / 100 / kcalPerGramProtein),
		FatG:     math.Round(kcal * s.FatPct / 100 / kcalPerGramFat),
		CarbsG:   math.Round(kcal * s.CarbsPct / 100 / kcalPerGramCarbs),
		FiberG:   math.Round(kcal / 1000 * fiberPer1000Kcal),
	}
	applyOverride(&t.Kcal, o.Kcal)
	applyOverride(&t.ProteinG, o.ProteinG)
	applyOverride(&t.FatG, o.FatG)
	applyOverride(&t.CarbsG, o.CarbsG)
	applyOverride(&t.FiberG, o.FiberG)
	return t, nil
}

func applyOverride(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
