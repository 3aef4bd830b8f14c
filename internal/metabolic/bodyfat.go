package metabolic

import (
	"math"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type BodyFatMethod string

const (
	MethodBMI    BodyFatMethod = "bmi"
	MethodUSNavy BodyFatMethod = "us_navy"
	MethodYMCA   BodyFatMethod = "ymca"
)

func ParseBodyFatMethod(v string) (BodyFatMethod, error) {
	switch m := BodyFatMethod(v); m {
	case "":
		return MethodBMI, nil
	case MethodBMI, MethodUSNavy, MethodYMCA:
		return m, nil
	default:
		return "", apperr.Invalidf("invalid body-fat method %q (use bmi, us_navy or ymca)", v)
	}
}

// BodyFatPercent estimates body fat with the chosen method. Results are clamped
// to [0, 70] and rounded to 2 decimals; invalid measurements are errors.
func BodyFatPercent(method BodyFatMethod, s Subject) (float64, error) {
	if method == "" {
		method = MethodBMI
	}
	if err := validSex(s.Sex); err != nil {
		return 0, err
	}
	var (
		raw float64
		err error
	)
	switch method {
	case MethodBMI:
		raw, err = bodyFatBMI(s)
	case MethodUSNavy:
		raw, err = bodyFatUSNavy(s)
	case MethodYMCA:
		raw, err = bodyFatYMCA(s)
	default:
		return 0, apperr.Invalidf("invalid body-fat method %q", method)
	}
	if err != nil {
		return 0, err
	}
	return clampBodyFat(raw), nil
}

func bodyFatBMI(s Subject) (float64, error) {
	bmi, err := BMI(s.WeightKg, s.HeightCm)
	if err != nil {
		return 0, err
	}
	age, err := s.age()
	if err != nil {
		return 0, err
	}
	if s.Sex == model.SexMale {
		return 1.2*bmi + 0.23*float64(age) - 16.2, nil
	}
	return 1.2*bmi + 0.23*float64(age) - 5.4, nil
}

func bodyFatUSNavy(s Subject) (float64, error) {
	if s.HeightCm <= 0 {
		return 0, apperr.Invalidf("us_navy method requires height")
	}
	if s.WaistCm == nil || s.NeckCm == nil {
		return 0, apperr.Invalidf("us_navy method requires waist and neck measurements")
	}
	waist := *s.WaistCm / cmPerInch
	neck := *s.NeckCm / cmPerInch
	height := s.HeightCm / cmPerInch
	if s.Sex == model.SexMale {
		if waist <= neck {
			return 0, apperr.Invalidf("us_navy method requires waist > neck")
		}
		return 86.01*math.Log10(waist-neck) - 70.041*math.Log10(height) + 36.76, nil
	}
	if s.HipCm == nil {
		return 0, apperr.Invalidf("us_navy method requires hip measurement for female subjects")
	}
	hip := *s.HipCm / cmPerInch
	if waist+hip <= neck {
		return 0, apperr.Invalidf("us_navy method requires waist + hip > neck")
	}
	return 163.205*math.Log10(waist+hip-neck) - 97.684*math.Log10(height) - 78.387, nil
}

func bodyFatYMCA(s Subject) (float64, error) {
	if s.WaistCm == nil || *s.WaistCm <= 0 {
		return 0, apperr.Invalidf("ymca method requires waist measurement")
	}
	if s.WeightKg <= 0 {
		return 0, apperr.Invalidf("ymca method requires weight")
	}
	waist := *s.WaistCm / cmPerInch
	weightLb := s.WeightKg * lbPerKg
	if s.Sex == model.SexMale {
		return 1.634*waist - 0.1804*weightLb - 98.42, nil
	}
	return 1.634*waist - 0.1804*weightLb - 76.76, nil
}
