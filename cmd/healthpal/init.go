package healthpal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local healthpal database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sqldb, err := openDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer sqldb.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized healthpal database at %s\n", cfg.DBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
