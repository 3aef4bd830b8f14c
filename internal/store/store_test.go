package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/db"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "healthpal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	require.NoError(t, db.ApplyMigrations(sqldb))
	return store.New(sqldb)
}

func seedUser(t *testing.T, st *store.Store, id string) {
	t.Helper()
	bd := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	w := 72.5
	require.NoError(t, st.CreateUser(context.Background(), model.User{ID: id, Name: id, BirthDate: &bd, Sex: model.SexMale, WeightKg: &w}))
}

func ptr[T any](v T) *T { return &v }

func TestUserRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")

	u, err := st.User(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.BirthDate)
	assert.Equal(t, "1990-06-15", u.BirthDate.Format("2006-01-02"))
	assert.Equal(t, model.SexMale, u.Sex)
	require.NotNil(t, u.WeightKg)
	assert.Equal(t, 72.5, *u.WeightKg)

	_, err = st.User(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = st.CreateUser(ctx, model.User{ID: "u1", Name: "dup", Sex: model.SexFemale})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestGetOrCreateLedgerIsIdempotent(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")

	first, err := st.GetOrCreateLedger(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	second, err := st.GetOrCreateLedger(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	ledgers, err := st.ListLedgers(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, ledgers, 1)
}

func TestRecomputeLedgerIgnoresDeletedChildren(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")

	l, err := st.GetOrCreateLedger(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	ingID, err := st.CreateIngredient(ctx, model.Ingredient{Name: "Rice", Kcal: 130, ProteinG: 2.7, FatG: 0.3, CarbsG: 28, FiberG: 0.4})
	require.NoError(t, err)

	keep := model.NutritionEntry{LedgerID: l.ID, IngredientID: &ingID, Quantity: 200, Kcal: 260, ProteinG: 5.4, FatG: 0.6, CarbsG: 56, FiberG: 0.8}
	_, err = st.CreateNutritionEntry(ctx, keep)
	require.NoError(t, err)
	dropID, err := st.CreateNutritionEntry(ctx, keep)
	require.NoError(t, err)
	require.NoError(t, st.SoftDeleteNutritionEntry(ctx, dropID, time.Now()))

	run, err := st.ActivityByName(ctx, "running")
	require.NoError(t, err)
	_, err = st.CreateActivityEntry(ctx, model.ActivityEntry{ActivityID: run.ID, LedgerID: &l.ID, UserID: ptr("u1"), UserOwned: true, KcalBurned: 100, Hours: ptr(0.5)})
	require.NoError(t, err)

	got, err := st.RecomputeLedger(ctx, l.ID)
	require.NoError(t, err)
	assert.InDelta(t, 260, got.TotalKcalEaten, 1e-9)
	assert.InDelta(t, 100, got.TotalKcalBurned, 1e-9)
	assert.InDelta(t, 160, got.TotalKcal, 1e-9)
	assert.InDelta(t, 56, got.TotalCarbsG, 1e-9)

	stored, err := st.LedgerByID(ctx, l.ID)
	require.NoError(t, err)
	assert.InDelta(t, got.TotalKcal, stored.TotalKcal, 1e-9)

	err = st.SoftDeleteNutritionEntry(ctx, dropID, time.Now())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecomputeLedgerRollsBackOnFailedUpdate(t *testing.T) {
	t.Parallel()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	st := store.New(sqlx.NewDb(mockDB, "sqlmock"))

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM daily_ledgers WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "date", "total_kcal_eaten", "total_kcal_burned", "total_kcal",
			"total_protein_g", "total_fat_g", "total_carbs_g", "total_fiber_g", "updated_at",
		}).AddRow(7, "u1", "2026-03-01", 0, 0, 0, 0, 0, 0, 0, now))
	mock.ExpectQuery("FROM nutrition_entries").
		WillReturnRows(sqlmock.NewRows([]string{"kcal", "protein_g", "fat_g", "carbs_g", "fiber_g", "burned"}).
			AddRow(500.0, 30.0, 10.0, 60.0, 5.0, 120.0))
	mock.ExpectExec("UPDATE daily_ledgers").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = st.RecomputeLedger(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeLedgerCommitsSingleUpdate(t *testing.T) {
	t.Parallel()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	st := store.New(sqlx.NewDb(mockDB, "sqlmock"))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM daily_ledgers WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "date", "total_kcal_eaten", "total_kcal_burned", "total_kcal",
			"total_protein_g", "total_fat_g", "total_carbs_g", "total_fiber_g", "updated_at",
		}).AddRow(7, "u1", "2026-03-01", 999.0, 0, 999.0, 0, 0, 0, 0, time.Now()))
	mock.ExpectQuery("FROM nutrition_entries").
		WillReturnRows(sqlmock.NewRows([]string{"kcal", "protein_g", "fat_g", "carbs_g", "fiber_g", "burned"}).
			AddRow(500.0, 30.0, 10.0, 60.0, 5.0, 120.0))
	mock.ExpectExec("UPDATE daily_ledgers").
		WithArgs(500.0, 120.0, 380.0, 30.0, 10.0, 60.0, 5.0, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := st.RecomputeLedger(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 380.0, got.TotalKcal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityEntryOwnershipIsExclusive(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")

	l, err := st.GetOrCreateLedger(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	cid, err := st.CreateChallenge(ctx, model.Challenge{Name: "Push"})
	require.NoError(t, err)
	walk, err := st.ActivityByName(ctx, "Walking")
	require.NoError(t, err)

	_, err = st.CreateActivityEntry(ctx, model.ActivityEntry{ActivityID: walk.ID, LedgerID: &l.ID, ChallengeID: &cid, UserOwned: true})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = st.CreateActivityEntry(ctx, model.ActivityEntry{ActivityID: walk.ID, UserOwned: true})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestProgressSnapshotSeparatesTargetsFromUserEntries(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")
	seedUser(t, st, "u2")

	cid, err := st.CreateChallenge(ctx, model.Challenge{Name: "Push"})
	require.NoError(t, err)
	str, err := st.ActivityByName(ctx, "Strength Training")
	require.NoError(t, err)

	_, err = st.CreateActivityEntry(ctx, model.ActivityEntry{ActivityID: str.ID, ChallengeID: &cid, Reps: ptr(100)})
	require.NoError(t, err)
	_, err = st.CreateActivityEntry(ctx, model.ActivityEntry{ActivityID: str.ID, ChallengeID: &cid, UserID: ptr("u1"), UserOwned: true, Reps: ptr(40)})
	require.NoError(t, err)
	_, err = st.CreateActivityEntry(ctx, model.ActivityEntry{ActivityID: str.ID, ChallengeID: &cid, UserID: ptr("u2"), UserOwned: true, Reps: ptr(90)})
	require.NoError(t, err)

	snap, err := st.ProgressSnapshot(ctx, cid, "u1")
	require.NoError(t, err)
	require.Len(t, snap.Targets, 1)
	require.Len(t, snap.UserEntries, 1)
	assert.Equal(t, "Strength Training", snap.Targets[0].ActivityName)
	assert.Equal(t, 40, *snap.UserEntries[0].Reps)
	assert.False(t, snap.Targets[0].UserOwned)
}

func TestMarkCompletedTwiceConflicts(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")
	cid, err := st.CreateChallenge(ctx, model.Challenge{Name: "Ruck"})
	require.NoError(t, err)

	p, err := st.EnsureProgress(ctx, cid, "u1", time.Now())
	require.NoError(t, err)
	assert.Zero(t, p.ProgressPercent)
	assert.Nil(t, p.CompletedAt)

	p, err = st.MarkCompleted(ctx, cid, "u1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.ProgressPercent)
	require.NotNil(t, p.CompletedAt)
	assert.True(t, p.Claimable())

	_, err = st.MarkCompleted(ctx, cid, "u1", time.Now())
	assert.ErrorIs(t, err, apperr.ErrConflict)

	p, err = st.SaveProgressPercent(ctx, cid, "u1", 40, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 40.0, p.ProgressPercent)
	assert.NotNil(t, p.CompletedAt)
}

func TestListProgress(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")
	seedUser(t, st, "u2")
	cid, err := st.CreateChallenge(ctx, model.Challenge{Name: "Ruck"})
	require.NoError(t, err)

	rows, err := st.ListProgress(ctx, cid)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = st.SaveProgressPercent(ctx, cid, "u2", 30, time.Now())
	require.NoError(t, err)
	_, err = st.MarkCompleted(ctx, cid, "u1", time.Now())
	require.NoError(t, err)

	rows, err = st.ListProgress(ctx, cid)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.NotNil(t, rows[0].CompletedAt)
	assert.Equal(t, "u2", rows[1].UserID)
	assert.Equal(t, 30.0, rows[1].ProgressPercent)
}

func TestProfileBodyFatRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	seedUser(t, st, "u1")

	first := model.FitnessProfile{UserID: "u1", WeightKg: 80, HeightCm: 180, ActivityLevel: "moderate", BMR: 1700, BMI: 24.69, TDEEKcal: 2635,
		BodyFatPercentages: map[string]float64{"bmi": 20.1}, CreatedAt: time.Now().Add(-time.Hour)}
	_, err := st.CreateProfile(ctx, first)
	require.NoError(t, err)
	second := first
	second.WeightKg = 78
	second.BodyFatPercentages = map[string]float64{"bmi": 19.5, "us_navy": 17.2}
	second.CreatedAt = time.Now()
	secondID, err := st.CreateProfile(ctx, second)
	require.NoError(t, err)

	cur, err := st.CurrentProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, secondID, cur.ID)
	assert.Equal(t, 78.0, cur.WeightKg)
	assert.Equal(t, map[string]float64{"bmi": 19.5, "us_navy": 17.2}, cur.BodyFatPercentages)

	history, err := st.ListProfiles(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = st.CurrentProfile(ctx, "u2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	byID, err := st.ProfileByID(ctx, secondID)
	require.NoError(t, err)
	assert.Equal(t, "u1", byID.UserID)
	require.NoError(t, st.SoftDeleteProfile(ctx, secondID, time.Now()))
	_, err = st.ProfileByID(ctx, secondID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	cur, err = st.CurrentProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 80.0, cur.WeightKg)
}

func TestSettings(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	_, ok, err := st.GetSetting(ctx, "day_timezone")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetSetting(ctx, "day_timezone", "Asia/Ho_Chi_Minh"))
	require.NoError(t, st.SetSetting(ctx, "day_timezone", "UTC"))
	v, ok, err := st.GetSetting(ctx, "day_timezone")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "UTC", v)

	all, err := st.ListSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"day_timezone": "UTC"}, all)
}
