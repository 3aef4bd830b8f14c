package healthpal

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
)

// resetFlags clears values left behind by an earlier Execute on the shared
// command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

type cli struct {
	t      *testing.T
	db     string
	config string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfg, []byte("day_timezone: UTC\nlog_level: warn\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c := cli{t: t, db: filepath.Join(dir, "healthpal.db"), config: cfg}
	c.ok("init")
	return c
}

func (c cli) run(args ...string) (string, error) {
	return execute(append([]string{"--db", c.db, "--config", c.config}, args...)...)
}

func (c cli) ok(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("%s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (c cli) fails(kind error, args ...string) {
	c.t.Helper()
	out, err := c.run(args...)
	if !errors.Is(err, kind) {
		c.t.Fatalf("%s: expected %v, got %v\n%s", strings.Join(args, " "), kind, err, out)
	}
}

func mustContain(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

var createdUser = regexp.MustCompile(`Created user (\S+) `)

func (c cli) addUser() string {
	c.t.Helper()
	out := c.ok("user", "add", "--name", "Lan", "--sex", "male", "--birth-date", "1990-01-01", "--weight", "80")
	m := createdUser.FindStringSubmatch(out)
	if m == nil {
		c.t.Fatalf("no user id in output: %s", out)
	}
	return m[1]
}

func TestRootHelp(t *testing.T) {
	out, err := execute("--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	if out == "" {
		t.Fatalf("expected help output")
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "healthpal.db")
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfg, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for i := 0; i < 2; i++ {
		out, err := execute("--db", path, "--config", cfg, "init")
		if err != nil {
			t.Fatalf("init run %d failed: %v", i+1, err)
		}
		mustContain(t, out, "Initialized healthpal database at "+path)
	}
}

func TestExitCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFoundf("x"), 4},
		{apperr.Invalidf("x"), 2},
		{apperr.Conflictf("x"), 9},
		{apperr.Preconditionf("x"), 3},
		{fmt.Errorf("wrapped: %w", apperr.NotFoundf("x")), 4},
		{errors.New("boom"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestLedgerFlow(t *testing.T) {
	c := newCLI(t)
	user := c.addUser()

	c.ok("food", "ingredient", "add", "--name", "Rice", "--kcal", "130", "--protein", "2.7", "--fat", "0.3", "--carbs", "28", "--fiber", "0.4")
	out := c.ok("log", "food", "add", "--user", user, "--ingredient", "1", "--qty", "200", "--date", "2026-03-01")
	mustContain(t, out, "Added nutrition entry 1 (260.0 kcal)")
	mustContain(t, out, "Ledger 2026-03-01: eaten 260.0, burned 0.0, net 260.0 kcal")

	out = c.ok("log", "activity", "add", "--user", user, "--activity", "Running", "--minutes", "30", "--date", "2026-03-01")
	mustContain(t, out, "392.00 kcal via met")

	out = c.ok("ledger", "show", "--user", user, "--date", "2026-03-01")
	mustContain(t, out, "Eaten: 260.0 kcal")
	mustContain(t, out, "Burned: 392.0 kcal")
	mustContain(t, out, "Net: -132.0 kcal")
	mustContain(t, out, "ingredient:1")

	out = c.ok("log", "food", "update", "1", "--ingredient", "1", "--qty", "100")
	mustContain(t, out, "eaten 130.0, burned 392.0, net -262.0 kcal")

	out = c.ok("log", "food", "delete", "1")
	mustContain(t, out, "eaten 0.0, burned 392.0")

	out = c.ok("ledger", "list", "--user", user)
	mustContain(t, out, "2026-03-01\t0.0\t392.0\t-392.0")

	out = c.ok("ledger", "recompute", "1")
	mustContain(t, out, "net -392.0 kcal")

	out = c.ok("ledger", "report", "--user", user, "--from", "2026-03-01", "--to", "2026-03-02")
	mustContain(t, out, "Days with ledgers: 1")
	mustContain(t, out, "Burned: 392.0 kcal")

	out = c.ok("ledger", "report", "--user", user, "--from", "2026-03-01", "--to", "2026-03-01", "--json")
	mustContain(t, out, `"days_with_ledgers": 1`)

	out = c.ok("doctor")
	mustContain(t, out, "Ledgers checked: 1")
	mustContain(t, out, "Drifted ledgers: 0")

	c.fails(apperr.ErrInvalidInput, "log", "food", "add", "--user", user, "--ingredient", "1", "--qty", "0")
	c.fails(apperr.ErrNotFound, "log", "food", "add", "--user", user, "--ingredient", "99", "--qty", "10")
	c.fails(apperr.ErrNotFound, "user", "show", "no-such-user")
}

func TestMealFlow(t *testing.T) {
	c := newCLI(t)
	user := c.addUser()

	c.ok("food", "ingredient", "add", "--name", "Rice", "--kcal", "130", "--carbs", "28")
	c.ok("food", "ingredient", "add", "--name", "Chicken", "--kcal", "165", "--protein", "31", "--fat", "3.6")
	out := c.ok("food", "meal", "add", "--name", "Com ga", "--component", "1:150", "--component", "2:120")
	mustContain(t, out, "Added meal 1 (Com ga) with 2 components")

	out = c.ok("food", "meal", "show", "1")
	mustContain(t, out, "Calories: 393.0")

	out = c.ok("log", "food", "add", "--user", user, "--meal", "1", "--qty", "2", "--date", "2026-03-01")
	mustContain(t, out, "(786.0 kcal)")
}

func TestChallengeFlow(t *testing.T) {
	c := newCLI(t)
	user := c.addUser()

	c.ok("challenge", "create", "--name", "Spring block", "--description", "reps")
	out := c.ok("challenge", "item", "add", "1", "--activity", "Strength Training", "--reps", "100")
	mustContain(t, out, "Added item 1 (Strength Training) to challenge 1")

	out = c.ok("challenge", "join", "1", "--user", user)
	mustContain(t, out, "Progress: 0.0%")

	out = c.ok("challenge", "log", "1", "--user", user, "--activity", "Strength Training", "--reps", "25")
	mustContain(t, out, "Progress: 25.0%")
	mustContain(t, out, "Claimable: false")

	out = c.ok("challenge", "item", "list", "1")
	mustContain(t, out, "Strength Training")

	out = c.ok("challenge", "finish", "1", "--user", user)
	mustContain(t, out, "Progress: 100.0%")
	mustContain(t, out, "Claimable: true")

	_, err := c.run("challenge", "finish", "1", "--user", user)
	if got := exitCode(err); got != 9 {
		t.Fatalf("second finish exit code = %d (%v), want 9", got, err)
	}

	c.fails(apperr.ErrInvalidInput, "challenge", "item", "add", "1", "--activity", "Running")
	c.fails(apperr.ErrNotFound, "challenge", "progress", "42", "--user", user)
}

func TestProfileGoalAndSettingsFlow(t *testing.T) {
	c := newCLI(t)
	user := c.addUser()

	c.fails(apperr.ErrNotFound, "goal", "set", "--user", user, "--type", "maintain")

	c.ok("settings", "set", "default_body_fat_method", "us_navy")
	out := c.ok("settings", "list")
	mustContain(t, out, "default_body_fat_method\tus_navy")
	c.fails(apperr.ErrInvalidInput, "settings", "set", "nope", "1")

	out = c.ok("profile", "record", "--user", user, "--weight", "80", "--height", "180", "--waist", "85", "--neck", "38", "--activity-level", "active")
	mustContain(t, out, "BMI: 24.69")
	mustContain(t, out, "Body fat (us navy)")

	out = c.ok("goal", "set", "--user", user, "--type", "maintain", "--protein", "150")
	mustContain(t, out, "Goal 1: maintain")
	mustContain(t, out, "Protein: 150g")

	out = c.ok("goal", "current", "--user", user)
	mustContain(t, out, "Goal 1: maintain")

	out = c.ok("profile", "history", "--user", user)
	mustContain(t, out, "24.69")

	c.fails(apperr.ErrInvalidInput, "profile", "record", "--user", user, "--weight", "80", "--height", "180", "--activity-level", "lazy")
}

func TestIngredientImport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": 1, "product": {"product_name": "Oat Drink", "nutriments": {"energy-kcal_100g": 46, "carbohydrates_100g": 6.7, "fat_100g": 1.5}}}`))
	}))
	defer ts.Close()
	t.Setenv("HEALTHPAL_OPENFOODFACTS_URL", ts.URL)

	c := newCLI(t)
	out := c.ok("food", "ingredient", "import", "--barcode", "7394376616037")
	mustContain(t, out, "Imported ingredient 1 (Oat Drink, 46.0 kcal/100g)")

	out = c.ok("food", "ingredient", "list")
	mustContain(t, out, "1\tOat Drink\t46.0")
}

func TestBackupCreateAndList(t *testing.T) {
	c := newCLI(t)
	c.addUser()
	dir := t.TempDir()
	out := c.ok("backup", "list", "--dir", dir)
	mustContain(t, out, "No snapshots in "+dir)

	snap := filepath.Join(dir, "snap.db")
	out = c.ok("backup", "create", "--out", snap)
	mustContain(t, out, "Snapshot written to "+snap)

	out = c.ok("backup", "list", "--dir", dir)
	mustContain(t, out, "snap.db\t")

	c.fails(apperr.ErrConflict, "backup", "restore", snap)
	out = c.ok("backup", "restore", snap, "--force")
	mustContain(t, out, "restored from "+snap)
	c.ok("activity", "list")
}

func TestMetricsTextfileWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "healthpal.prom")
	t.Setenv("HEALTHPAL_METRICS_FILE", path)

	c := newCLI(t)
	user := c.addUser()
	c.ok("log", "activity", "add", "--user", user, "--activity", "Walking", "--minutes", "20")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	mustContain(t, string(b), `healthpal_energy_estimates_total{method="met"}`)
	mustContain(t, string(b), "healthpal_ledger_recomputes_total")
}
