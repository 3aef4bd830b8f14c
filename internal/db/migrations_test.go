package db_test

import (
	"path/filepath"
	"testing"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/db"
)

func TestApplyMigrationsIdempotentAndSeedsDefaults(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "healthpal.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}

	var migrationCount int
	if err := sqldb.Get(&migrationCount, `SELECT COUNT(1) FROM schema_migrations`); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if migrationCount != 4 {
		t.Fatalf("expected 4 migration versions, got %d", migrationCount)
	}

	for _, table := range []string{"daily_ledgers", "nutrition_entries", "activity_entries", "challenge_progress", "fitness_profiles", "fitness_goals", "app_config"} {
		var n int
		if err := sqldb.Get(&n, `SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table); err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected %s table to exist", table)
		}
	}

	var activityCount int
	if err := sqldb.Get(&activityCount, `SELECT COUNT(1) FROM activities`); err != nil {
		t.Fatalf("count seeded activities: %v", err)
	}
	if activityCount != 7 {
		t.Fatalf("expected 7 seeded activities, got %d", activityCount)
	}
}

func TestActivityEntryOwnershipCheckConstraint(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "healthpal.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := sqldb.Exec(q, args...); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}
	mustExec(`INSERT INTO users(id, name, sex) VALUES('u1', 'Ana', 'female')`)
	mustExec(`INSERT INTO daily_ledgers(user_id, date) VALUES('u1', '2026-02-20')`)
	mustExec(`INSERT INTO challenges(name) VALUES('March miles')`)

	_, err = sqldb.Exec(`INSERT INTO activity_entries(activity_id, ledger_id, challenge_id, user_id) VALUES(1, 1, 1, 'u1')`)
	if err == nil {
		t.Fatalf("expected check constraint to reject an entry owned by both a ledger and a challenge")
	}
	_, err = sqldb.Exec(`INSERT INTO activity_entries(activity_id, user_id) VALUES(1, 'u1')`)
	if err == nil {
		t.Fatalf("expected check constraint to reject an entry with no owner")
	}
}
