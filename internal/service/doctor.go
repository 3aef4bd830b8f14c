package service

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

const driftTolerance = 1e-6

type LedgerDrift struct {
	LedgerID int64              `json:"ledger_id"`
	UserID   string             `json:"user_id"`
	Date     string             `json:"date"`
	Stored   model.LedgerTotals `json:"stored"`
	Actual   model.LedgerTotals `json:"actual"`
}

type DoctorReport struct {
	LedgersChecked int           `json:"ledgers_checked"`
	Drifted        []LedgerDrift `json:"drifted"`
	Fixed          int           `json:"fixed,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return len(r.Drifted) == r.Fixed
}

func totalsDrift(a, b model.LedgerTotals) bool {
	pairs := [][2]float64{
		{a.KcalEaten, b.KcalEaten},
		{a.KcalBurned, b.KcalBurned},
		{a.ProteinG, b.ProteinG},
		{a.FatG, b.FatG},
		{a.CarbsG, b.CarbsG},
		{a.FiberG, b.FiberG},
	}
	for _, p := range pairs {
		if math.Abs(p[0]-p[1]) > driftTolerance {
			return true
		}
	}
	return false
}

// RunDoctor compares every ledger's stored totals with the sum of its live
// children. With fix, drifted ledgers are recomputed.
func (s *Service) RunDoctor(ctx context.Context, fix bool) (DoctorReport, error) {
	ledgers, err := s.ledgers.ListLedgers(ctx, "")
	if err != nil {
		return DoctorReport{}, err
	}
	report := DoctorReport{LedgersChecked: len(ledgers), Drifted: []LedgerDrift{}}
	for _, l := range ledgers {
		actual, err := s.ledgers.LedgerChildTotals(ctx, l.ID)
		if err != nil {
			return report, err
		}
		stored := l.Totals()
		if !totalsDrift(stored, actual) && math.Abs(l.TotalKcal-stored.NetKcal()) <= driftTolerance {
			continue
		}
		report.Drifted = append(report.Drifted, LedgerDrift{LedgerID: l.ID, UserID: l.UserID, Date: l.Date, Stored: stored, Actual: actual})
		s.log.WithFields(logrus.Fields{"ledger_id": l.ID, "user_id": l.UserID, "date": l.Date}).Warn("ledger totals drifted")
		if !fix {
			continue
		}
		if _, err := s.Recompute(ctx, l.ID); err != nil {
			return report, err
		}
		report.Fixed++
	}
	return report, nil
}
