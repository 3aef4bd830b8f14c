// Package energy estimates kcal burned for a single activity entry.
//
// Estimation methods are tried in a fixed order and the first applicable one
// wins; the order is part of the contract because the methods disagree.
package energy

import (
	"fmt"
	"math"
	"strings"
)

const (
	MethodHeartRateReserve = "heart_rate_reserve"
	MethodLoadDistance     = "load_distance"
	MethodMET              = "met"

	// PopulationBodyweightKg stands in for an unknown bodyweight.
	PopulationBodyweightKg = 70.0
	defaultAgeYears        = 35
	loadKcalPerKgKm        = 1.0
)

type Input struct {
	DurationMinutes *float64
	Hours           *float64
	RHR             *int
	AHR             *int
	IntensityLevel  *int
	LoadKg          *float64
	DistanceKm      *float64
	Reps            *int
	BodyweightKg    *float64
	AgeYears        *int
	// DefaultBodyweightKg replaces the population average when positive.
	DefaultBodyweightKg float64
}

// Reference is the activity reference data an estimate is based on.
type Reference struct {
	Name     string
	METValue float64
}

type Estimate struct {
	KcalBurned float64
	Method     string
	Notes      []string
}

func (e Estimate) NotesString() string {
	return strings.Join(e.Notes, "; ")
}

// Rule is one estimation method in the priority list.
type Rule struct {
	Method  string
	Applies func(in Input) bool
	Compute func(in Input, ref Reference, n *Notes) float64
}

// Rules is the priority-ordered method list.
var Rules = []Rule{
	{
		Method: MethodHeartRateReserve,
		Applies: func(in Input) bool {
			return in.RHR != nil && in.AHR != nil && *in.RHR > 0 && *in.AHR > *in.RHR
		},
		Compute: heartRateReserve,
	},
	{
		Method: MethodLoadDistance,
		Applies: func(in Input) bool {
			return in.LoadKg != nil && in.DistanceKm != nil
		},
		Compute: loadDistance,
	},
	{
		Method:  MethodMET,
		Applies: func(Input) bool { return true },
		Compute: metFallback,
	},
}

// Notes collects the caveats a rule raises while computing.
type Notes struct {
	items []string
}

func (n *Notes) note(s string) {
	n.items = append(n.items, s)
}

func (n *Notes) bodyweight(in Input) float64 {
	if in.BodyweightKg == nil || *in.BodyweightKg <= 0 {
		if in.DefaultBodyweightKg > 0 && in.DefaultBodyweightKg != PopulationBodyweightKg {
			n.note(fmt.Sprintf("bodyweight unknown: using configured default %g kg", in.DefaultBodyweightKg))
			return in.DefaultBodyweightKg
		}
		n.note("bodyweight unknown: using population average 70 kg")
		return PopulationBodyweightKg
	}
	return *in.BodyweightKg
}

// DurationHours resolves the session length; Hours wins over DurationMinutes.
func (in Input) DurationHours() float64 {
	if in.Hours != nil {
		return *in.Hours
	}
	if in.DurationMinutes != nil {
		return *in.DurationMinutes / 60
	}
	return 0
}

// Calculate runs the first applicable rule. Duration is assumed positive;
// callers validate it. The result is never negative.
func Calculate(in Input, ref Reference) Estimate {
	n := &Notes{}
	for _, r := range Rules {
		if !r.Applies(in) {
			continue
		}
		kcal := r.Compute(in, ref, n)
		if kcal < 0 || math.IsNaN(kcal) {
			n.note("negative estimate clamped to 0")
			kcal = 0
		}
		return Estimate{KcalBurned: round2(kcal), Method: r.Method, Notes: n.items}
	}
	// the MET rule always applies
	return Estimate{Method: MethodMET, Notes: n.items}
}

func heartRateReserve(in Input, ref Reference, n *Notes) float64 {
	age := defaultAgeYears
	if in.AgeYears != nil && *in.AgeYears > 0 {
		age = *in.AgeYears
	} else {
		n.note("age unknown: assuming 35 for max heart rate")
	}
	maxHR := float64(220 - age)
	rhr, ahr := float64(*in.RHR), float64(*in.AHR)
	fraction := 1.0
	if maxHR > rhr {
		fraction = (ahr - rhr) / (maxHR - rhr)
	} else {
		n.note("resting heart rate at or above max: reserve fraction set to 1")
	}
	if fraction > 1 {
		n.note("average heart rate above max: reserve fraction capped at 1")
		fraction = 1
	}
	return ref.METValue * fraction * n.bodyweight(in) * in.DurationHours()
}

func loadDistance(in Input, _ Reference, n *Notes) float64 {
	return (n.bodyweight(in) + *in.LoadKg) * *in.DistanceKm * loadKcalPerKgKm
}

func metFallback(in Input, ref Reference, n *Notes) float64 {
	n.note("fallback: no heart-rate data")
	return ref.METValue * n.bodyweight(in) * in.DurationHours()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
