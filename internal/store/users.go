package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type userRow struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	BirthDate sql.NullString  `db:"birth_date"`
	Sex       string          `db:"sex"`
	WeightKg  sql.NullFloat64 `db:"weight_kg"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r userRow) toModel() (model.User, error) {
	u := model.User{ID: r.ID, Name: r.Name, Sex: model.Sex(r.Sex), CreatedAt: r.CreatedAt}
	if r.BirthDate.Valid && strings.TrimSpace(r.BirthDate.String) != "" {
		bd, err := time.Parse(dateLayout, r.BirthDate.String)
		if err != nil {
			return model.User{}, fmt.Errorf("parse birth date for user %s: %w", r.ID, err)
		}
		u.BirthDate = &bd
	}
	if r.WeightKg.Valid {
		w := r.WeightKg.Float64
		u.WeightKg = &w
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	var birth any
	if u.BirthDate != nil {
		birth = u.BirthDate.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users(id, name, birth_date, sex, weight_kg)
VALUES(?, ?, ?, ?, ?)
`, u.ID, u.Name, birth, string(u.Sex), u.WeightKg)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("user %s already exists", u.ID)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) User(ctx context.Context, id string) (model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
SELECT id, name, birth_date, sex, weight_kg, created_at
FROM users WHERE id = ?
`, id)
	if err != nil {
		return model.User{}, lookupErr(err, "user", id)
	}
	return row.toModel()
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `
SELECT id, name, birth_date, sex, weight_kg, created_at
FROM users ORDER BY name, id
`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		u, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
