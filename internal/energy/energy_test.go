package energy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/energy"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

var running = energy.Reference{Name: "Running", METValue: 8}

func TestRuleOrder(t *testing.T) {
	methods := make([]string, 0, len(energy.Rules))
	for _, r := range energy.Rules {
		methods = append(methods, r.Method)
	}
	assert.Equal(t, []string{
		energy.MethodHeartRateReserve,
		energy.MethodLoadDistance,
		energy.MethodMET,
	}, methods)
}

func TestHeartRateReserveWinsOverLoadDistance(t *testing.T) {
	est := energy.Calculate(energy.Input{
		Hours:        f(1),
		RHR:          i(60),
		AHR:          i(150),
		AgeYears:     i(30),
		BodyweightKg: f(70),
		LoadKg:       f(10),
		DistanceKm:   f(5),
	}, running)

	assert.Equal(t, energy.MethodHeartRateReserve, est.Method)
	assert.Equal(t, 387.69, est.KcalBurned)
	assert.Empty(t, est.Notes)
}

func TestHeartRateReserveDefaultsAge(t *testing.T) {
	est := energy.Calculate(energy.Input{
		DurationMinutes: f(60),
		RHR:             i(60),
		AHR:             i(150),
		BodyweightKg:    f(70),
	}, running)

	assert.Equal(t, energy.MethodHeartRateReserve, est.Method)
	assert.InDelta(t, 403.2, est.KcalBurned, 1e-9)
	assert.Contains(t, est.NotesString(), "age unknown")
}

func TestHeartRateReserveRestingAboveMax(t *testing.T) {
	// max heart rate 120 at age 100
	est := energy.Calculate(energy.Input{
		Hours:        f(1),
		RHR:          i(130),
		AHR:          i(150),
		AgeYears:     i(100),
		BodyweightKg: f(70),
	}, running)

	assert.Equal(t, energy.MethodHeartRateReserve, est.Method)
	assert.Equal(t, 560.0, est.KcalBurned)
	assert.Equal(t, []string{"resting heart rate at or above max: reserve fraction set to 1"}, est.Notes)
}

func TestInvalidHeartRateFallsThrough(t *testing.T) {
	est := energy.Calculate(energy.Input{
		Hours:        f(1),
		RHR:          i(120),
		AHR:          i(100),
		BodyweightKg: f(70),
		LoadKg:       f(10),
		DistanceKm:   f(5),
	}, running)
	assert.Equal(t, energy.MethodLoadDistance, est.Method)
	assert.Equal(t, 400.0, est.KcalBurned)

	est = energy.Calculate(energy.Input{Hours: f(1), RHR: i(60), BodyweightKg: f(70)}, running)
	assert.Equal(t, energy.MethodMET, est.Method)
	assert.Equal(t, 560.0, est.KcalBurned)
	assert.Equal(t, []string{"fallback: no heart-rate data"}, est.Notes)
}

func TestMETFallbackPopulationBodyweight(t *testing.T) {
	est := energy.Calculate(energy.Input{DurationMinutes: f(30), BodyweightKg: f(0)}, running)

	assert.Equal(t, energy.MethodMET, est.Method)
	assert.Equal(t, 280.0, est.KcalBurned)
	assert.Contains(t, est.NotesString(), "population average")
	assert.Contains(t, est.NotesString(), "fallback: no heart-rate data")
}

func TestMETFallbackConfiguredBodyweight(t *testing.T) {
	est := energy.Calculate(energy.Input{DurationMinutes: f(30), DefaultBodyweightKg: 80}, running)

	assert.Equal(t, 320.0, est.KcalBurned)
	assert.Contains(t, est.NotesString(), "configured default 80 kg")
}

func TestHoursWinOverMinutes(t *testing.T) {
	in := energy.Input{Hours: f(2), DurationMinutes: f(30)}
	assert.Equal(t, 2.0, in.DurationHours())
	assert.Equal(t, 0.5, energy.Input{DurationMinutes: f(30)}.DurationHours())
}

func TestNegativeEstimateClamped(t *testing.T) {
	est := energy.Calculate(energy.Input{
		BodyweightKg: f(70),
		LoadKg:       f(-100),
		DistanceKm:   f(5),
	}, running)

	assert.Equal(t, energy.MethodLoadDistance, est.Method)
	assert.Equal(t, 0.0, est.KcalBurned)
	assert.Contains(t, est.NotesString(), "clamped to 0")
}
