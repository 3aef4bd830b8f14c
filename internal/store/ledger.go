package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

const ledgerColumns = `id, user_id, date, total_kcal_eaten, total_kcal_burned, total_kcal,
  total_protein_g, total_fat_g, total_carbs_g, total_fiber_g, updated_at`

func (s *Store) FindLedger(ctx context.Context, userID, date string) (model.DailyLedger, error) {
	var l model.DailyLedger
	err := s.db.GetContext(ctx, &l, `SELECT `+ledgerColumns+` FROM daily_ledgers WHERE user_id = ? AND date = ?`, userID, date)
	if err != nil {
		return model.DailyLedger{}, lookupErr(err, "ledger", userID+" "+date)
	}
	return l, nil
}

// GetOrCreateLedger relies on UNIQUE(user_id, date) so concurrent first
// writes converge on one row.
func (s *Store) GetOrCreateLedger(ctx context.Context, userID, date string) (model.DailyLedger, error) {
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO daily_ledgers(user_id, date, updated_at) VALUES(?, ?, ?)
ON CONFLICT(user_id, date) DO NOTHING
`, userID, date, utc(time.Now())); err != nil {
		return model.DailyLedger{}, fmt.Errorf("create ledger %s %s: %w", userID, date, err)
	}
	return s.FindLedger(ctx, userID, date)
}

func (s *Store) LedgerByID(ctx context.Context, id int64) (model.DailyLedger, error) {
	return getLedger(ctx, s.db, id)
}

func getLedger(ctx context.Context, q sqlx.QueryerContext, id int64) (model.DailyLedger, error) {
	var l model.DailyLedger
	if err := sqlx.GetContext(ctx, q, &l, `SELECT `+ledgerColumns+` FROM daily_ledgers WHERE id = ?`, id); err != nil {
		return model.DailyLedger{}, lookupErr(err, "ledger", id)
	}
	return l, nil
}

func (s *Store) ListLedgers(ctx context.Context, userID string) ([]model.DailyLedger, error) {
	var out []model.DailyLedger
	query := `SELECT ` + ledgerColumns + ` FROM daily_ledgers`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY date, user_id`
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return out, nil
}

func (s *Store) SaveLedgerTotals(ctx context.Context, l model.DailyLedger) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE daily_ledgers
SET total_kcal_eaten = ?, total_kcal_burned = ?, total_kcal = ?,
    total_protein_g = ?, total_fat_g = ?, total_carbs_g = ?, total_fiber_g = ?, updated_at = ?
WHERE id = ?
`, l.TotalKcalEaten, l.TotalKcalBurned, l.TotalKcal, l.TotalProteinG, l.TotalFatG, l.TotalCarbsG, l.TotalFiberG, utc(time.Now()), l.ID)
	if err != nil {
		return fmt.Errorf("save ledger totals %d: %w", l.ID, err)
	}
	return requireRow(res, "ledger", l.ID)
}

type childSums struct {
	Kcal     float64 `db:"kcal"`
	ProteinG float64 `db:"protein_g"`
	FatG     float64 `db:"fat_g"`
	CarbsG   float64 `db:"carbs_g"`
	FiberG   float64 `db:"fiber_g"`
	Burned   float64 `db:"burned"`
}

func sumChildren(ctx context.Context, q sqlx.QueryerContext, id int64) (model.LedgerTotals, error) {
	var sums childSums
	err := sqlx.GetContext(ctx, q, &sums, `
SELECT
  COALESCE((SELECT SUM(kcal) FROM nutrition_entries WHERE ledger_id = ? AND deleted_at IS NULL), 0) AS kcal,
  COALESCE((SELECT SUM(protein_g) FROM nutrition_entries WHERE ledger_id = ? AND deleted_at IS NULL), 0) AS protein_g,
  COALESCE((SELECT SUM(fat_g) FROM nutrition_entries WHERE ledger_id = ? AND deleted_at IS NULL), 0) AS fat_g,
  COALESCE((SELECT SUM(carbs_g) FROM nutrition_entries WHERE ledger_id = ? AND deleted_at IS NULL), 0) AS carbs_g,
  COALESCE((SELECT SUM(fiber_g) FROM nutrition_entries WHERE ledger_id = ? AND deleted_at IS NULL), 0) AS fiber_g,
  COALESCE((SELECT SUM(kcal_burned) FROM activity_entries WHERE ledger_id = ? AND deleted_at IS NULL), 0) AS burned
`, id, id, id, id, id, id)
	if err != nil {
		return model.LedgerTotals{}, fmt.Errorf("sum ledger %d children: %w", id, err)
	}
	return model.LedgerTotals{
		KcalEaten:  sums.Kcal,
		KcalBurned: sums.Burned,
		ProteinG:   sums.ProteinG,
		FatG:       sums.FatG,
		CarbsG:     sums.CarbsG,
		FiberG:     sums.FiberG,
	}, nil
}

func (s *Store) LedgerChildTotals(ctx context.Context, id int64) (model.LedgerTotals, error) {
	return sumChildren(ctx, s.db, id)
}

func (s *Store) RecomputeLedger(ctx context.Context, id int64) (model.DailyLedger, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.DailyLedger{}, fmt.Errorf("begin recompute tx: %w", err)
	}
	defer rollback(tx)

	l, err := getLedger(ctx, tx, id)
	if err != nil {
		return model.DailyLedger{}, err
	}
	totals, err := sumChildren(ctx, tx, id)
	if err != nil {
		return model.DailyLedger{}, err
	}
	l.SetTotals(totals)
	l.UpdatedAt = utc(time.Now())
	if _, err := tx.ExecContext(ctx, `
UPDATE daily_ledgers
SET total_kcal_eaten = ?, total_kcal_burned = ?, total_kcal = ?,
    total_protein_g = ?, total_fat_g = ?, total_carbs_g = ?, total_fiber_g = ?, updated_at = ?
WHERE id = ?
`, l.TotalKcalEaten, l.TotalKcalBurned, l.TotalKcal, l.TotalProteinG, l.TotalFatG, l.TotalCarbsG, l.TotalFiberG, l.UpdatedAt, id); err != nil {
		return model.DailyLedger{}, fmt.Errorf("update ledger %d totals: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return model.DailyLedger{}, fmt.Errorf("commit recompute: %w", err)
	}
	return l, nil
}

const nutritionColumns = `id, ledger_id, ingredient_id, meal_id, quantity, kcal, protein_g, fat_g, carbs_g, fiber_g, created_at, deleted_at`

func (s *Store) NutritionEntryByID(ctx context.Context, id int64) (model.NutritionEntry, error) {
	var e model.NutritionEntry
	if err := s.db.GetContext(ctx, &e, `SELECT `+nutritionColumns+` FROM nutrition_entries WHERE id = ? AND deleted_at IS NULL`, id); err != nil {
		return model.NutritionEntry{}, lookupErr(err, "nutrition entry", id)
	}
	return e, nil
}

func (s *Store) CreateNutritionEntry(ctx context.Context, e model.NutritionEntry) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, `
INSERT INTO nutrition_entries(ledger_id, ingredient_id, meal_id, quantity, kcal, protein_g, fat_g, carbs_g, fiber_g)
VALUES(:ledger_id, :ingredient_id, :meal_id, :quantity, :kcal, :protein_g, :fat_g, :carbs_g, :fiber_g)
`, e)
	if err != nil {
		return 0, fmt.Errorf("insert nutrition entry: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UpdateNutritionEntry(ctx context.Context, e model.NutritionEntry) error {
	res, err := s.db.NamedExecContext(ctx, `
UPDATE nutrition_entries
SET ingredient_id = :ingredient_id, meal_id = :meal_id, quantity = :quantity,
    kcal = :kcal, protein_g = :protein_g, fat_g = :fat_g, carbs_g = :carbs_g, fiber_g = :fiber_g
WHERE id = :id AND deleted_at IS NULL
`, e)
	if err != nil {
		return fmt.Errorf("update nutrition entry %d: %w", e.ID, err)
	}
	return requireRow(res, "nutrition entry", e.ID)
}

func (s *Store) SoftDeleteNutritionEntry(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE nutrition_entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, utc(at), id)
	if err != nil {
		return fmt.Errorf("delete nutrition entry %d: %w", id, err)
	}
	return requireRow(res, "nutrition entry", id)
}

func (s *Store) ListNutritionEntries(ctx context.Context, ledgerID int64) ([]model.NutritionEntry, error) {
	var out []model.NutritionEntry
	if err := s.db.SelectContext(ctx, &out, `
SELECT `+nutritionColumns+` FROM nutrition_entries
WHERE ledger_id = ? AND deleted_at IS NULL ORDER BY id
`, ledgerID); err != nil {
		return nil, fmt.Errorf("list nutrition entries for ledger %d: %w", ledgerID, err)
	}
	return out, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
