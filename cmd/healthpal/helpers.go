package healthpal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/app"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/config"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/db"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/logging"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/metrics"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/store"
)

// session is everything a command needs once the database is open.
type session struct {
	cfg config.Config
	log *logrus.Logger
	db  *sqlx.DB
	svc *service.Service
}

// loadConfig resolves the config file and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func openDB(path string) (*sqlx.DB, error) {
	if err := app.EnsureDir(path); err != nil {
		return nil, err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}

func withService(cmd *cobra.Command, run func(*session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	sqldb, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	st := store.New(sqldb)
	svc := service.New(service.Repositories{
		Users:      st,
		Reference:  st,
		Ledgers:    st,
		Activities: st,
		Challenges: st,
		Profiles:   st,
		Goals:      st,
		Settings:   st,
	}, service.Options{
		Log:                 log,
		Location:            cfg.Location(),
		DefaultBodyweightKg: cfg.DefaultBodyweightKg,
	})

	runErr := run(&session{cfg: cfg, log: log, db: sqldb, svc: svc})
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		if runErr == nil {
			return err
		}
		log.WithError(err).Warn("write metrics textfile")
	}
	return runErr
}

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

// parseDateTimeOrNow reads --date/--time in the day timezone. Both empty
// yields the zero time, which the service treats as now.
func parseDateTimeOrNow(date, timeStr string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Time{}, nil
	}
	if date == "" {
		return time.Time{}, fmt.Errorf("--date is required when --time is set")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

// optFloat returns the flag value only when the flag was given.
func optFloat(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optInt64(cmd *cobra.Command, name string, v int64) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func fmtOptFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtOptInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
