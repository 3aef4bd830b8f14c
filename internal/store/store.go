// Package store persists the engine's entities in sqlite through sqlx.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
)

const dateLayout = "2006-01-02"

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

// lookupErr maps sql.ErrNoRows to a not-found error and wraps anything else.
func lookupErr(err error, what string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("%s %v not found", what, key)
	}
	return fmt.Errorf("lookup %s %v: %w", what, key, err)
}

func requireRow(res sql.Result, what string, key any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %v: %w", what, key, err)
	}
	if n == 0 {
		return apperr.NotFoundf("%s %v not found", what, key)
	}
	return nil
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func rollback(tx *sqlx.Tx) {
	_ = tx.Rollback()
}
