package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/chorepoints/internal/model"
)

func TestBackupLifecycle(t *testing.T) {
	db := setupTestDB(t)
	bs := NewBackupStore(db)
	ctx := context.Background()
	started := time.Date(2026, 10, 19, 3, 30, 0, 0, time.UTC)

	b, err := bs.Start(ctx, "backups/a.db.enc", started)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if b.Status != model.BackupRunning || b.CompletedAt != nil {
		t.Fatalf("backup = %+v", b)
	}

	if err := bs.Complete(ctx, b.ID, 4096, started.Add(time.Minute)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := bs.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.BackupCompleted || got.SizeBytes != 4096 || got.CompletedAt == nil {
		t.Errorf("completed backup = %+v", got)
	}

	missing, err := bs.GetByID(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("missing backup = %+v, %v", missing, err)
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	bs := NewBackupStore(db)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 3, 30, 0, 0, time.UTC)

	old, _ := bs.Start(ctx, "backups/old.db.enc", base)
	bs.Complete(ctx, old.ID, 1, base)
	failed, _ := bs.Start(ctx, "backups/failed.db.enc", base.Add(time.Hour))
	bs.Fail(ctx, failed.ID, "upload: timeout", base.Add(time.Hour))
	running, _ := bs.Start(ctx, "backups/running.db.enc", base.Add(2*time.Hour))
	recent, _ := bs.Start(ctx, "backups/recent.db.enc", base.AddDate(0, 1, 0))
	bs.Complete(ctx, recent.ID, 1, base.AddDate(0, 1, 0))

	keys, err := bs.DeleteOlderThan(ctx, base.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("delete older: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("deleted keys = %v, want old and failed", keys)
	}

	list, err := bs.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != recent.ID || list[1].ID != running.ID {
		t.Errorf("remaining = %+v", list)
	}
}
