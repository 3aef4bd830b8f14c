package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type DaySummary struct {
	Date       string  `json:"date"`
	EatenKcal  float64 `json:"eaten_kcal"`
	BurnedKcal float64 `json:"burned_kcal"`
	NetKcal    float64 `json:"net_kcal"`
	ProteinG   float64 `json:"protein_g"`
	FatG       float64 `json:"fat_g"`
	CarbsG     float64 `json:"carbs_g"`
	FiberG     float64 `json:"fiber_g"`
}

type AdherenceSummary struct {
	GoalID         int64   `json:"goal_id"`
	TargetKcal     float64 `json:"target_kcal"`
	EvaluatedDays  int     `json:"evaluated_days"`
	WithinGoalDays int     `json:"within_goal_days"`
	PercentWithin  float64 `json:"percent_within_goal"`
}

type AnalyticsReport struct {
	UserID             string            `json:"user_id"`
	FromDate           string            `json:"from_date"`
	ToDate             string            `json:"to_date"`
	DaysWithLedgers    int               `json:"days_with_ledgers"`
	TotalEatenKcal     float64           `json:"total_eaten_kcal"`
	TotalBurnedKcal    float64           `json:"total_burned_kcal"`
	TotalNetKcal       float64           `json:"total_net_kcal"`
	AverageEatenPerDay float64           `json:"avg_eaten_per_day"`
	AverageBurnedDay   float64           `json:"avg_burned_per_day"`
	AverageNetPerDay   float64           `json:"avg_net_per_day"`
	HighestDay         *DaySummary       `json:"highest_day,omitempty"`
	LowestDay          *DaySummary       `json:"lowest_day,omitempty"`
	Adherence          *AdherenceSummary `json:"adherence,omitempty"`
	Days               []DaySummary      `json:"days"`
}

// AdherenceWithin reports whether actual is within tolerance percent of
// target.
func AdherenceWithin(actual, target, tolerance float64) bool {
	return math.Abs(actual-target) <= target*tolerance/100
}

func daySummary(l model.DailyLedger) DaySummary {
	return DaySummary{
		Date:       l.Date,
		EatenKcal:  l.TotalKcalEaten,
		BurnedKcal: l.TotalKcalBurned,
		NetKcal:    l.TotalKcal,
		ProteinG:   l.TotalProteinG,
		FatG:       l.TotalFatG,
		CarbsG:     l.TotalCarbsG,
		FiberG:     l.TotalFiberG,
	}
}

// AnalyticsRange summarizes the user's stored ledgers for the days from..to
// inclusive. Adherence is scored against the active goal: a day is within
// goal when net kcal does not exceed the target and each macro is within
// tolerance percent.
func (s *Service) AnalyticsRange(ctx context.Context, userID string, from, to time.Time, tolerance float64) (AnalyticsReport, error) {
	fromDate, toDate := s.Day(from), s.Day(to)
	if fromDate > toDate {
		return AnalyticsReport{}, apperr.Invalidf("from date must be <= to date")
	}
	if tolerance < 0 {
		return AnalyticsReport{}, apperr.Invalidf("tolerance must be >= 0")
	}
	if _, err := s.users.User(ctx, userID); err != nil {
		return AnalyticsReport{}, err
	}
	ledgers, err := s.ledgers.ListLedgers(ctx, userID)
	if err != nil {
		return AnalyticsReport{}, err
	}

	report := AnalyticsReport{UserID: userID, FromDate: fromDate, ToDate: toDate, Days: make([]DaySummary, 0)}
	for _, l := range ledgers {
		if l.Date < fromDate || l.Date > toDate {
			continue
		}
		d := daySummary(l)
		report.Days = append(report.Days, d)
		report.TotalEatenKcal += d.EatenKcal
		report.TotalBurnedKcal += d.BurnedKcal
		report.TotalNetKcal += d.NetKcal
	}
	report.DaysWithLedgers = len(report.Days)
	if report.DaysWithLedgers > 0 {
		div := float64(report.DaysWithLedgers)
		report.AverageEatenPerDay = report.TotalEatenKcal / div
		report.AverageBurnedDay = report.TotalBurnedKcal / div
		report.AverageNetPerDay = report.TotalNetKcal / div
		report.HighestDay, report.LowestDay = extremeDays(report.Days)
	}

	g, err := s.goals.CurrentGoal(ctx, userID)
	switch {
	case err == nil:
		report.Adherence = adherence(report.Days, g, tolerance)
	case !errors.Is(err, apperr.ErrNotFound):
		return AnalyticsReport{}, err
	}
	return report, nil
}

func adherence(days []DaySummary, g model.FitnessGoal, tolerance float64) *AdherenceSummary {
	out := &AdherenceSummary{GoalID: g.ID, TargetKcal: g.TargetKcal}
	for _, d := range days {
		out.EvaluatedDays++
		if d.NetKcal <= g.TargetKcal &&
			AdherenceWithin(d.ProteinG, g.TargetProteinG, tolerance) &&
			AdherenceWithin(d.FatG, g.TargetFatG, tolerance) &&
			AdherenceWithin(d.CarbsG, g.TargetCarbsG, tolerance) {
			out.WithinGoalDays++
		}
	}
	if out.EvaluatedDays > 0 {
		out.PercentWithin = float64(out.WithinGoalDays) / float64(out.EvaluatedDays) * 100
	}
	return out
}

// extremeDays picks the highest and lowest day by net kcal.
func extremeDays(days []DaySummary) (*DaySummary, *DaySummary) {
	if len(days) == 0 {
		return nil, nil
	}
	copied := make([]DaySummary, len(days))
	copy(copied, days)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].NetKcal < copied[j].NetKcal
	})
	low := copied[0]
	high := copied[len(copied)-1]
	return &high, &low
}
