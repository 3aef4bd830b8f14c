package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metrics"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type NutritionInput struct {
	UserID string `validate:"required"`
	// At picks the ledger day; zero means now.
	At time.Time
	NutritionItem
}

// NutritionItem names exactly one of an ingredient (Quantity in grams) or a
// meal (Quantity in servings).
type NutritionItem struct {
	IngredientID *int64  `validate:"omitempty,gt=0"`
	MealID       *int64  `validate:"omitempty,gt=0"`
	Quantity     float64 `validate:"gt=0"`
}

// LedgerView is a ledger with its live children.
type LedgerView struct {
	Ledger     model.DailyLedger
	Nutrition  []model.NutritionEntry
	Activities []model.ActivityEntry
}

func ledgerKey(userID, date string) string {
	return userID + "|" + date
}

// GetOrCreateLedger returns the user's ledger for the day containing at.
func (s *Service) GetOrCreateLedger(ctx context.Context, userID string, at time.Time) (model.DailyLedger, error) {
	if _, err := s.users.User(ctx, userID); err != nil {
		return model.DailyLedger{}, err
	}
	date := s.Day(at)
	unlock := s.locks.Lock(ledgerKey(userID, date))
	defer unlock()
	return s.ledgers.GetOrCreateLedger(ctx, userID, date)
}

func (s *Service) LedgerForDay(ctx context.Context, userID string, at time.Time) (model.DailyLedger, error) {
	return s.ledgers.FindLedger(ctx, userID, s.Day(at))
}

func (s *Service) LedgerDetail(ctx context.Context, ledgerID int64) (LedgerView, error) {
	l, err := s.ledgers.LedgerByID(ctx, ledgerID)
	if err != nil {
		return LedgerView{}, err
	}
	food, err := s.ledgers.ListNutritionEntries(ctx, ledgerID)
	if err != nil {
		return LedgerView{}, err
	}
	acts, err := s.activities.ListLedgerActivityEntries(ctx, ledgerID)
	if err != nil {
		return LedgerView{}, err
	}
	return LedgerView{Ledger: l, Nutrition: food, Activities: acts}, nil
}

func (s *Service) ListLedgers(ctx context.Context, userID string) ([]model.DailyLedger, error) {
	return s.ledgers.ListLedgers(ctx, userID)
}

// Recompute rebuilds every total of the ledger from its live children.
func (s *Service) Recompute(ctx context.Context, ledgerID int64) (model.DailyLedger, error) {
	l, err := s.ledgers.LedgerByID(ctx, ledgerID)
	if err != nil {
		return model.DailyLedger{}, err
	}
	unlock := s.locks.Lock(ledgerKey(l.UserID, l.Date))
	defer unlock()
	return s.recompute(ctx, ledgerID)
}

func (s *Service) recompute(ctx context.Context, ledgerID int64) (model.DailyLedger, error) {
	start := time.Now()
	l, err := s.ledgers.RecomputeLedger(ctx, ledgerID)
	metrics.RecordLedgerRecompute(time.Since(start), err)
	if err != nil {
		return model.DailyLedger{}, err
	}
	s.log.WithFields(logrus.Fields{
		"ledger_id": l.ID,
		"user_id":   l.UserID,
		"date":      l.Date,
		"net_kcal":  l.TotalKcal,
	}).Debug("recomputed ledger")
	return l, nil
}

// applyDelta adjusts the in-memory totals, persists them, then recomputes
// from the children so the stored totals never depend on the delta alone.
// The caller holds the ledger lock.
func (s *Service) applyDelta(ctx context.Context, l model.DailyLedger, eaten model.Nutrients, burned float64) (model.DailyLedger, error) {
	t := l.Totals()
	t.KcalEaten += eaten.Kcal
	t.ProteinG += eaten.ProteinG
	t.FatG += eaten.FatG
	t.CarbsG += eaten.CarbsG
	t.FiberG += eaten.FiberG
	t.KcalBurned += burned
	l.SetTotals(t)
	if err := s.ledgers.SaveLedgerTotals(ctx, l); err != nil {
		return model.DailyLedger{}, err
	}
	return s.recompute(ctx, l.ID)
}

// resolveNutrients computes the nutrition of an item from reference data.
func (s *Service) resolveNutrients(ctx context.Context, item NutritionItem) (model.Nutrients, error) {
	switch {
	case item.IngredientID != nil && item.MealID != nil:
		return model.Nutrients{}, apperr.Invalidf("nutrition entry cannot reference both an ingredient and a meal")
	case item.IngredientID == nil && item.MealID == nil:
		return model.Nutrients{}, apperr.Invalidf("nutrition entry must reference an ingredient or a meal")
	case item.IngredientID != nil:
		ing, err := s.reference.IngredientByID(ctx, *item.IngredientID)
		if err != nil {
			return model.Nutrients{}, err
		}
		return ingredientNutrients(ing).Scale(item.Quantity / 100), nil
	default:
		per, err := s.MealNutrition(ctx, *item.MealID)
		if err != nil {
			return model.Nutrients{}, err
		}
		return per.Scale(item.Quantity), nil
	}
}

func ingredientNutrients(in model.Ingredient) model.Nutrients {
	return model.Nutrients{Kcal: in.Kcal, ProteinG: in.ProteinG, FatG: in.FatG, CarbsG: in.CarbsG, FiberG: in.FiberG}
}

func (s *Service) AddNutrition(ctx context.Context, in NutritionInput) (model.NutritionEntry, model.DailyLedger, error) {
	if err := validateInput(in); err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	n, err := s.resolveNutrients(ctx, in.NutritionItem)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	if _, err := s.users.User(ctx, in.UserID); err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	at := in.At
	if at.IsZero() {
		at = s.now()
	}
	date := s.Day(at)
	unlock := s.locks.Lock(ledgerKey(in.UserID, date))
	defer unlock()

	l, err := s.ledgers.GetOrCreateLedger(ctx, in.UserID, date)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	e := model.NutritionEntry{
		LedgerID:     l.ID,
		IngredientID: in.IngredientID,
		MealID:       in.MealID,
		Quantity:     in.Quantity,
	}
	e.SetNutrients(n)
	id, err := s.ledgers.CreateNutritionEntry(ctx, e)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	e.ID = id
	l, err = s.applyDelta(ctx, l, n, 0)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	return e, l, nil
}

// lockEntryLedger locks the ledger that owns ledgerID and returns it.
func (s *Service) lockEntryLedger(ctx context.Context, ledgerID int64) (model.DailyLedger, func(), error) {
	l, err := s.ledgers.LedgerByID(ctx, ledgerID)
	if err != nil {
		return model.DailyLedger{}, nil, err
	}
	unlock := s.locks.Lock(ledgerKey(l.UserID, l.Date))
	// reload under the lock so the delta starts from committed totals
	l, err = s.ledgers.LedgerByID(ctx, ledgerID)
	if err != nil {
		unlock()
		return model.DailyLedger{}, nil, err
	}
	return l, unlock, nil
}

// UpdateNutrition replaces the item and quantity of an entry. The entry stays
// on its original ledger.
func (s *Service) UpdateNutrition(ctx context.Context, entryID int64, item NutritionItem) (model.NutritionEntry, model.DailyLedger, error) {
	if err := validateInput(item); err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	e, err := s.ledgers.NutritionEntryByID(ctx, entryID)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	n, err := s.resolveNutrients(ctx, item)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	l, unlock, err := s.lockEntryLedger(ctx, e.LedgerID)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	defer unlock()

	e, err = s.ledgers.NutritionEntryByID(ctx, entryID)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	old := e.Nutrients()
	e.IngredientID = item.IngredientID
	e.MealID = item.MealID
	e.Quantity = item.Quantity
	e.SetNutrients(n)
	if err := s.ledgers.UpdateNutritionEntry(ctx, e); err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	l, err = s.applyDelta(ctx, l, n.Add(old.Scale(-1)), 0)
	if err != nil {
		return model.NutritionEntry{}, model.DailyLedger{}, err
	}
	return e, l, nil
}

// RemoveNutrition soft-deletes an entry and rebalances its ledger.
func (s *Service) RemoveNutrition(ctx context.Context, entryID int64) (model.DailyLedger, error) {
	e, err := s.ledgers.NutritionEntryByID(ctx, entryID)
	if err != nil {
		return model.DailyLedger{}, err
	}
	l, unlock, err := s.lockEntryLedger(ctx, e.LedgerID)
	if err != nil {
		return model.DailyLedger{}, err
	}
	defer unlock()

	e, err = s.ledgers.NutritionEntryByID(ctx, entryID)
	if err != nil {
		return model.DailyLedger{}, err
	}
	if err := s.ledgers.SoftDeleteNutritionEntry(ctx, entryID, s.now()); err != nil {
		return model.DailyLedger{}, err
	}
	return s.applyDelta(ctx, l, e.Nutrients().Scale(-1), 0)
}
