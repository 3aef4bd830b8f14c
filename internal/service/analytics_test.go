package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

func TestAnalyticsRangeTotalsAndAdherence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := createUser(t, svc)
	rice := createRice(t, svc)
	run := activityByName(t, svc, "Running")

	day1 := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 11, 13, 0, 0, 0, time.UTC)
	for _, in := range []service.NutritionInput{
		{UserID: u.ID, At: day1, NutritionItem: service.NutritionItem{IngredientID: &rice.ID, Quantity: 200}},
		{UserID: u.ID, At: day2, NutritionItem: service.NutritionItem{IngredientID: &rice.ID, Quantity: 100}},
	} {
		if _, _, err := svc.AddNutrition(ctx, in); err != nil {
			t.Fatalf("add nutrition: %v", err)
		}
	}
	if _, _, err := svc.AddActivity(ctx, service.ActivityInput{
		UserID:               u.ID,
		Day:                  &day1,
		ActivityMeasurements: service.ActivityMeasurements{ActivityID: run.ID, DurationMinutes: ptr(30.0)},
	}); err != nil {
		t.Fatalf("add activity: %v", err)
	}

	report, err := svc.AnalyticsRange(ctx, u.ID, day1, day2, 10)
	if err != nil {
		t.Fatalf("analytics range: %v", err)
	}
	if report.DaysWithLedgers != 2 {
		t.Fatalf("expected 2 days, got %d", report.DaysWithLedgers)
	}
	if !approx(report.TotalEatenKcal, 390) || !approx(report.TotalBurnedKcal, 392) || !approx(report.TotalNetKcal, -2) {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if !approx(report.AverageEatenPerDay, 195) {
		t.Fatalf("expected avg eaten 195, got %v", report.AverageEatenPerDay)
	}
	if report.HighestDay == nil || report.HighestDay.Date != "2026-02-11" {
		t.Fatalf("expected highest day 2026-02-11, got %+v", report.HighestDay)
	}
	if report.LowestDay == nil || report.LowestDay.Date != "2026-02-10" {
		t.Fatalf("expected lowest day 2026-02-10, got %+v", report.LowestDay)
	}
	if report.Adherence != nil {
		t.Fatalf("expected no adherence without a goal, got %+v", report.Adherence)
	}

	if _, err := svc.RecordProfile(ctx, u.ID, service.ProfileInput{WeightKg: 80, HeightCm: 180, ActivityLevel: "moderate"}); err != nil {
		t.Fatalf("record profile: %v", err)
	}
	if _, err := svc.SetGoal(ctx, u.ID, service.GoalInput{GoalType: "maintain"}); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	report, err = svc.AnalyticsRange(ctx, u.ID, day1, day2, 10)
	if err != nil {
		t.Fatalf("analytics range with goal: %v", err)
	}
	if report.Adherence == nil || report.Adherence.EvaluatedDays != 2 {
		t.Fatalf("expected 2 evaluated days, got %+v", report.Adherence)
	}
	// rice alone misses every macro target
	if report.Adherence.WithinGoalDays != 0 || report.Adherence.PercentWithin != 0 {
		t.Fatalf("expected no days within goal, got %+v", report.Adherence)
	}
}

func TestAnalyticsRangeEmptyAndInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := createUser(t, svc)

	report, err := svc.AnalyticsRange(ctx, u.ID, testNow, testNow, 5)
	if err != nil {
		t.Fatalf("analytics range: %v", err)
	}
	if report.DaysWithLedgers != 0 || report.HighestDay != nil || report.LowestDay != nil || len(report.Days) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}

	if _, err := svc.AnalyticsRange(ctx, u.ID, testNow, testNow.AddDate(0, 0, -1), 5); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for reversed range, got %v", err)
	}
	if _, err := svc.AnalyticsRange(ctx, u.ID, testNow, testNow, -1); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative tolerance, got %v", err)
	}
	if _, err := svc.AnalyticsRange(ctx, "missing", testNow, testNow, 5); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdherenceWithin(t *testing.T) {
	if !service.AdherenceWithin(105, 100, 5) {
		t.Fatalf("105 should be within 5%% of 100")
	}
	if service.AdherenceWithin(106, 100, 5) {
		t.Fatalf("106 should not be within 5%% of 100")
	}
}
