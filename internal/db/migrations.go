package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "reference_data",
		sql: `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  birth_date TEXT,
  sex TEXT NOT NULL CHECK(sex IN ('male', 'female')),
  weight_kg REAL CHECK(weight_kg > 0),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS activities (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  met_value REAL NOT NULL CHECK(met_value > 0),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ingredients (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  kcal REAL NOT NULL CHECK(kcal >= 0),
  protein_g REAL NOT NULL CHECK(protein_g >= 0),
  fat_g REAL NOT NULL CHECK(fat_g >= 0),
  carbs_g REAL NOT NULL CHECK(carbs_g >= 0),
  fiber_g REAL NOT NULL DEFAULT 0 CHECK(fiber_g >= 0),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meal_components (
  meal_id INTEGER NOT NULL,
  ingredient_id INTEGER NOT NULL,
  grams REAL NOT NULL CHECK(grams > 0),
  PRIMARY KEY(meal_id, ingredient_id),
  FOREIGN KEY(meal_id) REFERENCES meals(id) ON DELETE CASCADE,
  FOREIGN KEY(ingredient_id) REFERENCES ingredients(id)
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 2,
		name:    "daily_ledgers",
		sql: `
CREATE TABLE IF NOT EXISTS daily_ledgers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  date TEXT NOT NULL,
  total_kcal_eaten REAL NOT NULL DEFAULT 0,
  total_kcal_burned REAL NOT NULL DEFAULT 0,
  total_kcal REAL NOT NULL DEFAULT 0,
  total_protein_g REAL NOT NULL DEFAULT 0,
  total_fat_g REAL NOT NULL DEFAULT 0,
  total_carbs_g REAL NOT NULL DEFAULT 0,
  total_fiber_g REAL NOT NULL DEFAULT 0,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(user_id, date),
  FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS nutrition_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ledger_id INTEGER NOT NULL,
  ingredient_id INTEGER,
  meal_id INTEGER,
  quantity REAL NOT NULL CHECK(quantity > 0),
  kcal REAL NOT NULL CHECK(kcal >= 0),
  protein_g REAL NOT NULL CHECK(protein_g >= 0),
  fat_g REAL NOT NULL CHECK(fat_g >= 0),
  carbs_g REAL NOT NULL CHECK(carbs_g >= 0),
  fiber_g REAL NOT NULL CHECK(fiber_g >= 0),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  deleted_at DATETIME,
  CHECK((ingredient_id IS NULL) <> (meal_id IS NULL)),
  FOREIGN KEY(ledger_id) REFERENCES daily_ledgers(id),
  FOREIGN KEY(ingredient_id) REFERENCES ingredients(id),
  FOREIGN KEY(meal_id) REFERENCES meals(id)
);

CREATE INDEX IF NOT EXISTS idx_nutrition_entries_ledger_id ON nutrition_entries(ledger_id);
`,
	},
	{
		version: 3,
		name:    "challenges",
		sql: `
CREATE TABLE IF NOT EXISTS challenges (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS activity_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  activity_id INTEGER NOT NULL,
  ledger_id INTEGER,
  challenge_id INTEGER,
  user_id TEXT,
  user_owned INTEGER NOT NULL DEFAULT 1,
  kcal_burned REAL NOT NULL DEFAULT 0 CHECK(kcal_burned >= 0),
  estimate_method TEXT NOT NULL DEFAULT '',
  estimate_notes TEXT NOT NULL DEFAULT '',
  reps INTEGER CHECK(reps > 0),
  hours REAL CHECK(hours > 0),
  load_kg REAL,
  distance_km REAL CHECK(distance_km > 0),
  rhr INTEGER CHECK(rhr > 0),
  ahr INTEGER CHECK(ahr > 0),
  intensity_level INTEGER CHECK(intensity_level BETWEEN 1 AND 5),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  deleted_at DATETIME,
  CHECK((ledger_id IS NULL) <> (challenge_id IS NULL)),
  FOREIGN KEY(activity_id) REFERENCES activities(id),
  FOREIGN KEY(ledger_id) REFERENCES daily_ledgers(id),
  FOREIGN KEY(challenge_id) REFERENCES challenges(id)
);

CREATE INDEX IF NOT EXISTS idx_activity_entries_ledger_id ON activity_entries(ledger_id);
CREATE INDEX IF NOT EXISTS idx_activity_entries_challenge_id ON activity_entries(challenge_id);

CREATE TABLE IF NOT EXISTS challenge_progress (
  user_id TEXT NOT NULL,
  challenge_id INTEGER NOT NULL,
  progress_percent REAL NOT NULL DEFAULT 0 CHECK(progress_percent >= 0 AND progress_percent <= 100),
  completed_at DATETIME,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(user_id, challenge_id),
  FOREIGN KEY(user_id) REFERENCES users(id),
  FOREIGN KEY(challenge_id) REFERENCES challenges(id)
);
`,
	},
	{
		version: 4,
		name:    "fitness_profiles",
		sql: `
CREATE TABLE IF NOT EXISTS fitness_profiles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  weight_kg REAL NOT NULL CHECK(weight_kg > 0),
  height_cm REAL NOT NULL CHECK(height_cm > 0),
  waist_cm REAL,
  hip_cm REAL,
  neck_cm REAL,
  activity_level TEXT NOT NULL,
  bmr REAL NOT NULL,
  bmi REAL NOT NULL,
  tdee_kcal REAL NOT NULL,
  body_fat_json TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  deleted_at DATETIME,
  FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_fitness_profiles_user_id ON fitness_profiles(user_id);

CREATE TABLE IF NOT EXISTS fitness_goals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  goal_type TEXT NOT NULL,
  diet_type TEXT NOT NULL DEFAULT '',
  protein_pct REAL,
  fat_pct REAL,
  carbs_pct REAL,
  override_kcal REAL,
  override_protein_g REAL,
  override_fat_g REAL,
  override_carbs_g REAL,
  override_fiber_g REAL,
  target_kcal REAL NOT NULL,
  target_protein_g REAL NOT NULL,
  target_fat_g REAL NOT NULL,
  target_carbs_g REAL NOT NULL,
  target_fiber_g REAL NOT NULL,
  source_profile_id INTEGER,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  deleted_at DATETIME,
  FOREIGN KEY(user_id) REFERENCES users(id),
  FOREIGN KEY(source_profile_id) REFERENCES fitness_profiles(id)
);

CREATE INDEX IF NOT EXISTS idx_fitness_goals_user_id ON fitness_goals(user_id);
`,
	},
}

var defaultActivities = []struct {
	name string
	met  float64
}{
	{"Walking", 3.5},
	{"Running", 9.8},
	{"Cycling", 7.5},
	{"Swimming", 6.0},
	{"Strength Training", 5.0},
	{"Yoga", 2.5},
	{"Rucking", 6.5},
}

func ApplyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	for _, a := range defaultActivities {
		if _, err := db.Exec(`INSERT OR IGNORE INTO activities(name, met_value) VALUES(?, ?)`, a.name, a.met); err != nil {
			return fmt.Errorf("seed default activity %s: %w", a.name, err)
		}
	}

	return nil
}
