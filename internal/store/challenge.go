package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

func (s *Store) ChallengeByID(ctx context.Context, id int64) (model.Challenge, error) {
	var c model.Challenge
	if err := s.db.GetContext(ctx, &c, `SELECT id, name, description, created_at FROM challenges WHERE id = ?`, id); err != nil {
		return model.Challenge{}, lookupErr(err, "challenge", id)
	}
	return c, nil
}

func (s *Store) CreateChallenge(ctx context.Context, c model.Challenge) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO challenges(name, description) VALUES(?, ?)`, c.Name, c.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflictf("challenge %q already exists", c.Name)
		}
		return 0, fmt.Errorf("insert challenge: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListChallenges(ctx context.Context) ([]model.Challenge, error) {
	var out []model.Challenge
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, description, created_at FROM challenges ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return out, nil
}

// ProgressSnapshot reads the challenge targets and the user's entries inside
// one transaction so a calculation never mixes two points in time.
func (s *Store) ProgressSnapshot(ctx context.Context, challengeID int64, userID string) (model.ProgressSnapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.ProgressSnapshot{}, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer rollback(tx)

	targets, err := listChallengeEntries(ctx, tx, challengeID, nil)
	if err != nil {
		return model.ProgressSnapshot{}, err
	}
	entries, err := listChallengeEntries(ctx, tx, challengeID, &userID)
	if err != nil {
		return model.ProgressSnapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ProgressSnapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}
	return model.ProgressSnapshot{Targets: targets, UserEntries: entries}, nil
}

func getProgress(ctx context.Context, q sqlx.QueryerContext, challengeID int64, userID string) (model.ChallengeProgress, error) {
	var p model.ChallengeProgress
	if err := sqlx.GetContext(ctx, q, &p, `
SELECT user_id, challenge_id, progress_percent, completed_at, updated_at
FROM challenge_progress WHERE challenge_id = ? AND user_id = ?
`, challengeID, userID); err != nil {
		return model.ChallengeProgress{}, lookupErr(err, "challenge progress", fmt.Sprintf("%d/%s", challengeID, userID))
	}
	return p, nil
}

func (s *Store) ChallengeProgress(ctx context.Context, challengeID int64, userID string) (model.ChallengeProgress, error) {
	return getProgress(ctx, s.db, challengeID, userID)
}

func (s *Store) EnsureProgress(ctx context.Context, challengeID int64, userID string, at time.Time) (model.ChallengeProgress, error) {
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO challenge_progress(user_id, challenge_id, progress_percent, updated_at)
VALUES(?, ?, 0, ?)
ON CONFLICT(user_id, challenge_id) DO NOTHING
`, userID, challengeID, utc(at)); err != nil {
		return model.ChallengeProgress{}, fmt.Errorf("create challenge progress: %w", err)
	}
	return getProgress(ctx, s.db, challengeID, userID)
}

func (s *Store) ListProgress(ctx context.Context, challengeID int64) ([]model.ChallengeProgress, error) {
	var out []model.ChallengeProgress
	if err := s.db.SelectContext(ctx, &out, `
SELECT user_id, challenge_id, progress_percent, completed_at, updated_at
FROM challenge_progress WHERE challenge_id = ? ORDER BY user_id
`, challengeID); err != nil {
		return nil, fmt.Errorf("list challenge progress: %w", err)
	}
	return out, nil
}

// SaveProgressPercent upserts the percent and leaves completed_at alone.
func (s *Store) SaveProgressPercent(ctx context.Context, challengeID int64, userID string, percent float64, at time.Time) (model.ChallengeProgress, error) {
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO challenge_progress(user_id, challenge_id, progress_percent, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(user_id, challenge_id) DO UPDATE SET
  progress_percent = excluded.progress_percent,
  updated_at = excluded.updated_at
`, userID, challengeID, percent, utc(at)); err != nil {
		return model.ChallengeProgress{}, fmt.Errorf("save challenge progress: %w", err)
	}
	return getProgress(ctx, s.db, challengeID, userID)
}

func (s *Store) MarkCompleted(ctx context.Context, challengeID int64, userID string, at time.Time) (model.ChallengeProgress, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO challenge_progress(user_id, challenge_id, progress_percent, completed_at, updated_at)
VALUES(?, ?, 100, ?, ?)
ON CONFLICT(user_id, challenge_id) DO UPDATE SET
  progress_percent = 100,
  completed_at = excluded.completed_at,
  updated_at = excluded.updated_at
WHERE challenge_progress.completed_at IS NULL
`, userID, challengeID, utc(at), utc(at))
	if err != nil {
		return model.ChallengeProgress{}, fmt.Errorf("complete challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.ChallengeProgress{}, fmt.Errorf("rows affected for challenge completion: %w", err)
	}
	if n == 0 {
		return model.ChallengeProgress{}, apperr.Conflictf("challenge %d already completed by user %s", challengeID, userID)
	}
	return getProgress(ctx, s.db, challengeID, userID)
}
