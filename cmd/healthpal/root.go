package healthpal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
)

var (
	dbPath     string
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "healthpal",
	Short:         "healthpal tracks nutrition, activity and fitness challenges",
	Long:          "healthpal keeps a per-day calorie ledger, estimates energy burned by activities, tracks challenge progress, and derives fitness profiles and goals.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to process exit statuses.
func exitCode(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return 2
	case apperr.KindPreconditionFailed:
		return 3
	case apperr.KindNotFound:
		return 4
	case apperr.KindConflict:
		return 9
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}
