package healthpal

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot and restore the healthpal database",
}

var (
	snapshotPath string
	snapshotDir  string
	restoreForce bool
)

// snapshotDirFor defaults to a snapshots directory next to the database.
func snapshotDirFor(dbFile string) string {
	if snapshotDir != "" {
		return snapshotDir
	}
	return filepath.Join(filepath.Dir(dbFile), "snapshots")
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a consistent snapshot of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(s *session) error {
			out := snapshotPath
			if out == "" {
				name := fmt.Sprintf("healthpal-%s.db", time.Now().UTC().Format("2006-01-02T150405Z"))
				out = filepath.Join(snapshotDirFor(s.cfg.DBPath), name)
			}
			info, err := service.CreateBackup(cmd.Context(), s.db, out)
			if err != nil {
				return err
			}
			s.log.WithField("path", info.Path).WithField("bytes", info.SizeBytes).Info("wrote snapshot")
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written to %s (%d bytes, sha256 %s)\n", info.Path, info.SizeBytes, info.Checksum)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir := snapshotDirFor(cfg.DBPath)
		items, err := service.ListBackups(dir)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No snapshots in %s\n", dir)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "SNAPSHOT\tBYTES\tTAKEN\tSHA256")
		for _, it := range items {
			sum := it.Checksum
			if sum == "" {
				sum = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%s\n", filepath.Base(it.Path), it.SizeBytes, it.CreatedAt.UTC().Format(time.RFC3339), sum)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <snapshot>",
	Short: "Replace the database with a verified snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := service.RestoreBackup(args[0], cfg.DBPath, restoreForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s restored from %s\n", cfg.DBPath, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	backupCreateCmd.Flags().StringVar(&snapshotPath, "out", "", "Snapshot file to write (default: a timestamped file in the snapshot directory)")
	for _, c := range []*cobra.Command{backupCreateCmd, backupListCmd} {
		c.Flags().StringVar(&snapshotDir, "dir", "", "Snapshot directory (default: snapshots/ beside the database)")
	}
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Replace an existing database")
}
