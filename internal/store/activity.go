package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

const activityEntrySelect = `
SELECT e.id, e.activity_id, a.name AS activity_name, e.ledger_id, e.challenge_id, e.user_id,
  e.user_owned, e.kcal_burned, e.estimate_method, e.estimate_notes, e.reps, e.hours, e.load_kg,
  e.distance_km, e.rhr, e.ahr, e.intensity_level, e.created_at, e.deleted_at
FROM activity_entries e
JOIN activities a ON a.id = e.activity_id
`

func (s *Store) ActivityEntryByID(ctx context.Context, id int64) (model.ActivityEntry, error) {
	var e model.ActivityEntry
	if err := s.db.GetContext(ctx, &e, activityEntrySelect+` WHERE e.id = ? AND e.deleted_at IS NULL`, id); err != nil {
		return model.ActivityEntry{}, lookupErr(err, "activity entry", id)
	}
	return e, nil
}

func (s *Store) CreateActivityEntry(ctx context.Context, e model.ActivityEntry) (int64, error) {
	if err := e.CheckOwnership(); err != nil {
		return 0, err
	}
	res, err := s.db.NamedExecContext(ctx, `
INSERT INTO activity_entries(activity_id, ledger_id, challenge_id, user_id, user_owned, kcal_burned,
  estimate_method, estimate_notes, reps, hours, load_kg, distance_km, rhr, ahr, intensity_level)
VALUES(:activity_id, :ledger_id, :challenge_id, :user_id, :user_owned, :kcal_burned,
  :estimate_method, :estimate_notes, :reps, :hours, :load_kg, :distance_km, :rhr, :ahr, :intensity_level)
`, e)
	if err != nil {
		return 0, fmt.Errorf("insert activity entry: %w", err)
	}
	return res.LastInsertId()
}

// UpdateActivityEntry rewrites the measurements and estimate; ownership is
// fixed at creation.
func (s *Store) UpdateActivityEntry(ctx context.Context, e model.ActivityEntry) error {
	res, err := s.db.NamedExecContext(ctx, `
UPDATE activity_entries
SET activity_id = :activity_id, kcal_burned = :kcal_burned, estimate_method = :estimate_method,
    estimate_notes = :estimate_notes, reps = :reps, hours = :hours, load_kg = :load_kg,
    distance_km = :distance_km, rhr = :rhr, ahr = :ahr, intensity_level = :intensity_level
WHERE id = :id AND deleted_at IS NULL
`, e)
	if err != nil {
		return fmt.Errorf("update activity entry %d: %w", e.ID, err)
	}
	return requireRow(res, "activity entry", e.ID)
}

func (s *Store) SoftDeleteActivityEntry(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE activity_entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, utc(at), id)
	if err != nil {
		return fmt.Errorf("delete activity entry %d: %w", id, err)
	}
	return requireRow(res, "activity entry", id)
}

func (s *Store) ListLedgerActivityEntries(ctx context.Context, ledgerID int64) ([]model.ActivityEntry, error) {
	var out []model.ActivityEntry
	if err := s.db.SelectContext(ctx, &out, activityEntrySelect+`
WHERE e.ledger_id = ? AND e.deleted_at IS NULL ORDER BY e.id
`, ledgerID); err != nil {
		return nil, fmt.Errorf("list activity entries for ledger %d: %w", ledgerID, err)
	}
	return out, nil
}

func listChallengeEntries(ctx context.Context, q sqlx.QueryerContext, challengeID int64, userID *string) ([]model.ActivityEntry, error) {
	var out []model.ActivityEntry
	var err error
	if userID == nil {
		err = sqlx.SelectContext(ctx, q, &out, activityEntrySelect+`
WHERE e.challenge_id = ? AND e.user_owned = 0 AND e.deleted_at IS NULL ORDER BY e.id
`, challengeID)
	} else {
		err = sqlx.SelectContext(ctx, q, &out, activityEntrySelect+`
WHERE e.challenge_id = ? AND e.user_owned = 1 AND e.user_id = ? AND e.deleted_at IS NULL ORDER BY e.id
`, challengeID, *userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list challenge %d entries: %w", challengeID, err)
	}
	return out, nil
}
