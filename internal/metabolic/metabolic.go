// Package metabolic holds the stateless body-composition formulas: BMR
// (Mifflin-St Jeor), BMI, TDEE and three body-fat estimates.
package metabolic

import (
	"math"
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

const (
	cmPerInch = 2.54
	lbPerKg   = 2.20462

	bodyFatMin = 0
	bodyFatMax = 70
)

// Activity levels accepted by TDEE.
const (
	Sedentary     = "sedentary"
	LightlyActive = "lightly_active"
	Moderate      = "moderate"
	Active        = "active"
	VeryActive    = "very_active"
)

var activityMultipliers = map[string]float64{
	Sedentary:     1.2,
	LightlyActive: 1.375,
	Moderate:      1.55,
	Active:        1.725,
	VeryActive:    1.9,
}

// Subject is the profile snapshot plus the user-directory facts the formulas need.
type Subject struct {
	Sex       model.Sex
	BirthDate *time.Time
	WeightKg  float64
	HeightCm  float64
	WaistCm   *float64
	HipCm     *float64
	NeckCm    *float64
	// At is the reference instant for age; zero means now.
	At time.Time
}

func (s Subject) age() (int, error) {
	if s.BirthDate == nil || s.BirthDate.IsZero() {
		return 0, apperr.Invalidf("birth date is required")
	}
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	age := Age(*s.BirthDate, at)
	if age < 0 || age > 130 {
		return 0, apperr.Invalidf("implausible age %d derived from birth date", age)
	}
	return age, nil
}

// Age returns whole years elapsed between birth and at.
func Age(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if at.Before(birth.AddDate(age, 0, 0)) {
		age--
	}
	return age
}

func validSex(sex model.Sex) error {
	switch sex {
	case model.SexMale, model.SexFemale:
		return nil
	default:
		return apperr.Invalidf("invalid sex %q (use male or female)", sex)
	}
}

func BMR(s Subject) (float64, error) {
	if err := validSex(s.Sex); err != nil {
		return 0, err
	}
	if s.WeightKg <= 0 || s.HeightCm <= 0 {
		return 0, apperr.Invalidf("weight and height must be > 0")
	}
	age, err := s.age()
	if err != nil {
		return 0, err
	}
	bmr := 10*s.WeightKg + 6.25*s.HeightCm - 5*float64(age)
	if s.Sex == model.SexMale {
		return bmr + 5, nil
	}
	return bmr - 161, nil
}

func BMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, apperr.Invalidf("weight and height must be > 0")
	}
	m := heightCm / 100
	return weightKg / (m * m), nil
}

func TDEE(bmr float64, activityLevel string) (float64, error) {
	mult, ok := activityMultipliers[activityLevel]
	if !ok {
		return 0, apperr.Invalidf("invalid activity level %q", activityLevel)
	}
	return bmr * mult, nil
}

// ActivityMultiplier exposes the lookup table for callers that validate input.
func ActivityMultiplier(level string) (float64, bool) {
	m, ok := activityMultipliers[level]
	return m, ok
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func clampBodyFat(v float64) float64 {
	return Round(math.Min(bodyFatMax, math.Max(bodyFatMin, v)), 2)
}
