package service_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/db"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthpal.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func repositories(st *store.Store) service.Repositories {
	return service.Repositories{
		Users:      st,
		Reference:  st,
		Ledgers:    st,
		Activities: st,
		Challenges: st,
		Profiles:   st,
		Goals:      st,
		Settings:   st,
	}
}

func newTestService(t *testing.T) (*service.Service, *store.Store) {
	t.Helper()
	st := store.New(newTestDB(t))
	svc := service.New(repositories(st), service.Options{Now: func() time.Time { return testNow }})
	return svc, st
}

func ptr[T any](v T) *T { return &v }

func createUser(t *testing.T, svc *service.Service) model.User {
	t.Helper()
	bd := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	u, err := svc.CreateUser(context.Background(), service.UserInput{
		Name:      "Lan",
		BirthDate: &bd,
		Sex:       "male",
		WeightKg:  ptr(80.0),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func activityByName(t *testing.T, svc *service.Service, name string) model.Activity {
	t.Helper()
	a, err := svc.ResolveActivity(context.Background(), name)
	if err != nil {
		t.Fatalf("resolve activity %q: %v", name, err)
	}
	return a
}

func createRice(t *testing.T, svc *service.Service) model.Ingredient {
	t.Helper()
	in, err := svc.CreateIngredient(context.Background(), service.IngredientInput{
		Name: "Rice", Kcal: 130, ProteinG: 2.7, FatG: 0.3, CarbsG: 28, FiberG: 0.4,
	})
	if err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return in
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// assertLedgerConsistent checks stored totals against the live children.
func assertLedgerConsistent(t *testing.T, st *store.Store, ledgerID int64) model.DailyLedger {
	t.Helper()
	ctx := context.Background()
	l, err := st.LedgerByID(ctx, ledgerID)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	want, err := st.LedgerChildTotals(ctx, ledgerID)
	if err != nil {
		t.Fatalf("sum children: %v", err)
	}
	got := l.Totals()
	if !approx(got.KcalEaten, want.KcalEaten) || !approx(got.KcalBurned, want.KcalBurned) ||
		!approx(got.ProteinG, want.ProteinG) || !approx(got.FatG, want.FatG) ||
		!approx(got.CarbsG, want.CarbsG) || !approx(got.FiberG, want.FiberG) {
		t.Fatalf("ledger %d totals %+v do not match children %+v", ledgerID, got, want)
	}
	if !approx(l.TotalKcal, want.KcalEaten-want.KcalBurned) {
		t.Fatalf("ledger %d net kcal %v, want %v", ledgerID, l.TotalKcal, want.KcalEaten-want.KcalBurned)
	}
	return l
}
