package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/db"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/service"
)

func TestBackupCreateListRestore(t *testing.T) {
	sqldb := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	out := filepath.Join(dir, "backups", "healthpal-1.db")

	info, err := service.CreateBackup(ctx, sqldb, out)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if info.Checksum == "" || info.SizeBytes == 0 {
		t.Fatalf("unexpected backup info: %+v", info)
	}
	if _, err := service.CreateBackup(ctx, sqldb, out); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict when the snapshot exists, got %v", err)
	}

	items, err := service.ListBackups(filepath.Dir(out))
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(items) != 1 || items[0].Checksum != info.Checksum {
		t.Fatalf("unexpected backups: %+v", items)
	}

	missing, err := service.ListBackups(filepath.Join(dir, "missing"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected no snapshots in a missing dir, got %v %v", missing, err)
	}

	target := filepath.Join(dir, "restored.db")
	if err := service.RestoreBackup(out, target, false); err != nil {
		t.Fatalf("restore backup: %v", err)
	}
	if err := service.RestoreBackup(out, target, false); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict restoring over an existing db without force, got %v", err)
	}

	restored, err := db.Open(target)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer restored.Close()
	var n int
	if err := restored.Get(&n, `SELECT COUNT(1) FROM activities`); err != nil {
		t.Fatalf("count restored activities: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7 activities in restored db, got %d", n)
	}

	if err := os.WriteFile(out+".sha256", []byte("deadbeef\n"), 0o644); err != nil {
		t.Fatalf("tamper checksum: %v", err)
	}
	if err := service.RestoreBackup(out, target, true); !errors.Is(err, apperr.ErrPreconditionFailed) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}
