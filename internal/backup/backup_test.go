package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/store"
)

// mockS3Client keeps objects in memory.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	m.deleted = append(m.deleted, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func setupManager(t *testing.T) (*Manager, *mockS3Client, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := store.NewProfileStore(db).Create(context.Background(), "mom", "Mom", "hash", model.RoleParent, nil); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	cfg := Config{
		S3:            S3Config{Bucket: "chores", Region: "us-east-1"},
		Passphrase:    "correct horse",
		RetentionDays: 30,
		Prefix:        "/nightly/",
	}
	m := NewManager(cfg, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mock := newMockS3()
	m.client = mock
	m.now = func() time.Time { return time.Date(2026, 10, 19, 3, 30, 0, 0, time.UTC) }
	return m, mock, db
}

func TestDisabledManager(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	m := NewManager(Config{S3: S3Config{Bucket: "chores"}}, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if m.Enabled() {
		t.Fatal("manager without a passphrase should be disabled")
	}
	if _, err := m.Run(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("Run err = %v, want ErrDisabled", err)
	}
	if err := m.Restore(context.Background(), 1, filepath.Join(t.TempDir(), "x.db")); !errors.Is(err, ErrDisabled) {
		t.Errorf("Restore err = %v, want ErrDisabled", err)
	}
}

func TestRunAndRestore(t *testing.T) {
	m, mock, _ := setupManager(t)
	ctx := context.Background()

	rec, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rec.Status != model.BackupCompleted || rec.CompletedAt == nil {
		t.Errorf("backup = %+v, want completed", rec)
	}
	if rec.ObjectKey != "nightly/chorepoints-20261019T033000Z.db.enc" {
		t.Errorf("object key = %q", rec.ObjectKey)
	}
	sealed, ok := mock.objects[rec.ObjectKey]
	if !ok {
		t.Fatal("snapshot was not uploaded")
	}
	if int64(len(sealed)) != rec.SizeBytes {
		t.Errorf("size = %d, uploaded %d bytes", rec.SizeBytes, len(sealed))
	}
	if bytes.Contains(sealed, []byte("SQLite format 3")) {
		t.Error("uploaded snapshot is not encrypted")
	}

	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(ctx, rec.ID, dst); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := sql.Open("sqlite", dst)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	defer restored.Close()
	var username string
	if err := restored.QueryRow(`SELECT username FROM profiles`).Scan(&username); err != nil {
		t.Fatalf("query restored: %v", err)
	}
	if username != "mom" {
		t.Errorf("restored username = %q, want mom", username)
	}

	if err := m.Restore(ctx, rec.ID, dst); !errors.Is(err, ErrDestExists) {
		t.Errorf("restore over existing file err = %v, want ErrDestExists", err)
	}
}

func TestRestoreErrors(t *testing.T) {
	m, mock, _ := setupManager(t)
	ctx := context.Background()
	dir := t.TempDir()

	if err := m.Restore(ctx, 99, filepath.Join(dir, "a.db")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing backup err = %v, want ErrNotFound", err)
	}

	mock.putErr = errors.New("bucket unreachable")
	if _, err := m.Run(ctx); err == nil {
		t.Fatal("expected upload failure")
	}
	list, err := m.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != model.BackupFailed || list[0].ErrorMessage == "" {
		t.Fatalf("backups = %+v, want one failed with message", list)
	}
	if err := m.Restore(ctx, list[0].ID, filepath.Join(dir, "b.db")); !errors.Is(err, ErrIncomplete) {
		t.Errorf("failed backup restore err = %v, want ErrIncomplete", err)
	}

	mock.putErr = nil
	m.now = func() time.Time { return time.Date(2026, 10, 20, 3, 30, 0, 0, time.UTC) }
	rec, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	m.cfg.Passphrase = "wrong"
	if err := m.Restore(ctx, rec.ID, filepath.Join(dir, "c.db")); err == nil {
		t.Error("restore with the wrong passphrase should fail")
	}
}

func TestRunRejectsConcurrent(t *testing.T) {
	m, _, _ := setupManager(t)

	m.running.Lock()
	defer m.running.Unlock()
	if _, err := m.Run(context.Background()); !errors.Is(err, ErrInProgress) {
		t.Errorf("err = %v, want ErrInProgress", err)
	}
}

func TestPrune(t *testing.T) {
	m, mock, _ := setupManager(t)
	ctx := context.Background()

	old, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	m.now = func() time.Time { return time.Date(2026, 11, 25, 3, 30, 0, 0, time.UTC) }
	recent, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	n, err := m.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	if len(mock.deleted) != 1 || mock.deleted[0] != old.ObjectKey {
		t.Errorf("deleted objects = %v, want [%s]", mock.deleted, old.ObjectKey)
	}
	if _, ok := mock.objects[recent.ObjectKey]; !ok {
		t.Error("recent backup should be kept")
	}

	list, err := m.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != recent.ID {
		t.Errorf("remaining backups = %+v", list)
	}
}
