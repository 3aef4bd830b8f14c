package metabolic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metabolic"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

var refDate = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func subject(sex model.Sex, weightKg, heightCm float64) metabolic.Subject {
	birth := time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC)
	return metabolic.Subject{Sex: sex, BirthDate: &birth, WeightKg: weightKg, HeightCm: heightCm, At: refDate}
}

func floatPtr(v float64) *float64 { return &v }

func TestGoldenValues(t *testing.T) {
	s := subject(model.SexMale, 70, 175)

	bmi, err := metabolic.BMI(s.WeightKg, s.HeightCm)
	require.NoError(t, err)
	assert.InDelta(t, 22.86, bmi, 0.01)

	bmr, err := metabolic.BMR(s)
	require.NoError(t, err)
	assert.Equal(t, 1648.75, bmr)

	tdee, err := metabolic.TDEE(bmr, metabolic.Moderate)
	require.NoError(t, err)
	assert.InDelta(t, 2555.56, tdee, 0.01)
}

func TestBMRFemaleOffset(t *testing.T) {
	bmr, err := metabolic.BMR(subject(model.SexFemale, 70, 175))
	require.NoError(t, err)
	assert.Equal(t, 1648.75-166, bmr)
}

func TestBMRRequiresBirthDate(t *testing.T) {
	s := subject(model.SexMale, 70, 175)
	s.BirthDate = nil
	_, err := metabolic.BMR(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestAgeBeforeBirthday(t *testing.T) {
	birth := time.Date(1990, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 34, metabolic.Age(birth, time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 35, metabolic.Age(birth, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestTDEEMultipliers(t *testing.T) {
	cases := map[string]float64{
		metabolic.Sedentary:     1200,
		metabolic.LightlyActive: 1375,
		metabolic.Moderate:      1550,
		metabolic.Active:        1725,
		metabolic.VeryActive:    1900,
	}
	for level, want := range cases {
		got, err := metabolic.TDEE(1000, level)
		require.NoError(t, err, level)
		assert.InDelta(t, want, got, 1e-9, level)
	}

	_, err := metabolic.TDEE(1000, "couch")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestBodyFatMethods(t *testing.T) {
	male := subject(model.SexMale, 70, 175)
	female := subject(model.SexFemale, 70, 175)

	got, err := metabolic.BodyFatPercent("", male)
	require.NoError(t, err)
	assert.Equal(t, 18.13, got, "default method is bmi")

	got, err = metabolic.BodyFatPercent(metabolic.MethodBMI, female)
	require.NoError(t, err)
	assert.Equal(t, 28.93, got)

	navyMale := subject(model.SexMale, 80, 178)
	navyMale.WaistCm = floatPtr(85)
	navyMale.NeckCm = floatPtr(38)
	got, err = metabolic.BodyFatPercent(metabolic.MethodUSNavy, navyMale)
	require.NoError(t, err)
	assert.Equal(t, 16.49, got)

	navyFemale := subject(model.SexFemale, 60, 165)
	navyFemale.WaistCm = floatPtr(75)
	navyFemale.HipCm = floatPtr(100)
	navyFemale.NeckCm = floatPtr(33)
	got, err = metabolic.BodyFatPercent(metabolic.MethodUSNavy, navyFemale)
	require.NoError(t, err)
	assert.Equal(t, 29.74, got)

	ymca := subject(model.SexFemale, 50, 160)
	ymca.WaistCm = floatPtr(160)
	got, err = metabolic.BodyFatPercent(metabolic.MethodYMCA, ymca)
	require.NoError(t, err)
	assert.Equal(t, 6.28, got)
}

func TestBodyFatClampsToBounds(t *testing.T) {
	heavy := subject(model.SexFemale, 200, 150)
	got, err := metabolic.BodyFatPercent(metabolic.MethodBMI, heavy)
	require.NoError(t, err)
	assert.Equal(t, 70.0, got)

	lean := subject(model.SexMale, 80, 180)
	lean.WaistCm = floatPtr(90)
	got, err = metabolic.BodyFatPercent(metabolic.MethodYMCA, lean)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestUSNavyInvalidGeometry(t *testing.T) {
	s := subject(model.SexMale, 80, 178)
	s.WaistCm = floatPtr(38)
	s.NeckCm = floatPtr(40)
	_, err := metabolic.BodyFatPercent(metabolic.MethodUSNavy, s)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	f := subject(model.SexFemale, 60, 165)
	f.WaistCm = floatPtr(75)
	f.NeckCm = floatPtr(33)
	_, err = metabolic.BodyFatPercent(metabolic.MethodUSNavy, f)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "female requires hip")
}

func TestDeriveBundlesFields(t *testing.T) {
	s := subject(model.SexMale, 70, 175)
	d, err := metabolic.Derive(s, metabolic.Moderate, nil)
	require.NoError(t, err)
	assert.Equal(t, 1648.75, d.BMR)
	assert.Equal(t, 22.86, d.BMI)
	assert.Equal(t, 2555.56, d.TDEE)
	assert.Equal(t, map[string]float64{"bmi": 18.13}, d.BodyFatPercentages)

	_, err = metabolic.Derive(s, metabolic.Moderate, []metabolic.BodyFatMethod{metabolic.MethodUSNavy})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestParseBodyFatMethod(t *testing.T) {
	m, err := metabolic.ParseBodyFatMethod("")
	require.NoError(t, err)
	assert.Equal(t, metabolic.MethodBMI, m)

	_, err = metabolic.ParseBodyFatMethod("calipers")
	assert.Error(t, err)
}
