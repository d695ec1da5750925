// Package backup snapshots the ledger database, encrypts it and stores it
// in S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/store"
	_ "modernc.org/sqlite"
)

var (
	ErrDisabled   = errors.New("backups are not configured")
	ErrInProgress = errors.New("a backup is already running")
	ErrNotFound   = errors.New("backup not found")
	ErrIncomplete = errors.New("backup did not complete")
	ErrDestExists = errors.New("restore destination already exists")
)

// s3Client is the subset of *s3.Client the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Config struct {
	S3            S3Config
	Passphrase    string
	RetentionDays int
	Prefix        string
}

// Enabled reports whether enough is configured to upload a snapshot.
func (c Config) Enabled() bool {
	return c.S3.Bucket != "" && c.Passphrase != ""
}

type Manager struct {
	cfg     Config
	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	logger  *slog.Logger
	now     func() time.Time

	running sync.Mutex
}

// NewManager builds a manager for db. The S3 client is only created when
// cfg is enabled; every operation returns ErrDisabled otherwise.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:     cfg,
		db:      db,
		backups: store.NewBackupStore(db),
		logger:  logger.With("component", "backup"),
		now:     time.Now,
	}
	if cfg.Enabled() {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
	}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Enabled() bool {
	return m.client != nil
}

func (m *Manager) objectKey(at time.Time) string {
	name := fmt.Sprintf("chorepoints-%s.db.enc", at.UTC().Format("20060102T150405Z"))
	prefix := strings.Trim(m.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Run takes a consistent snapshot with VACUUM INTO, seals it and uploads
// it. The attempt is recorded whether or not it succeeds.
func (m *Manager) Run(ctx context.Context) (*model.Backup, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}
	if !m.running.TryLock() {
		return nil, ErrInProgress
	}
	defer m.running.Unlock()

	started := m.now()
	rec, err := m.backups.Start(ctx, m.objectKey(started), started)
	if err != nil {
		return nil, fmt.Errorf("record backup: %w", err)
	}

	size, err := m.upload(ctx, rec.ObjectKey)
	if err != nil {
		if ferr := m.backups.Fail(context.WithoutCancel(ctx), rec.ID, err.Error(), m.now()); ferr != nil {
			m.logger.Error("failed to record backup failure", "id", rec.ID, "error", ferr)
		}
		m.logger.Error("backup failed", "id", rec.ID, "key", rec.ObjectKey, "error", err)
		return nil, err
	}

	if err := m.backups.Complete(ctx, rec.ID, size, m.now()); err != nil {
		return nil, fmt.Errorf("record backup completion: %w", err)
	}
	m.logger.Info("backup completed", "id", rec.ID, "key", rec.ObjectKey, "bytes", size)
	return m.backups.GetByID(ctx, rec.ID)
}

func (m *Manager) upload(ctx context.Context, key string) (int64, error) {
	dir, err := os.MkdirTemp("", "chorepoints-backup-")
	if err != nil {
		return 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return 0, fmt.Errorf("snapshot database: %w", err)
	}
	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	sealed, err := Seal(plaintext, m.cfg.Passphrase)
	if err != nil {
		return 0, fmt.Errorf("encrypt snapshot: %w", err)
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return 0, fmt.Errorf("upload snapshot: %w", err)
	}
	return int64(len(sealed)), nil
}

// Prune deletes backups older than the retention window from both the
// bucket and the database. Object deletion failures are logged, not returned.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	if !m.Enabled() {
		return 0, ErrDisabled
	}
	if m.cfg.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := m.now().AddDate(0, 0, -m.cfg.RetentionDays)
	keys, err := m.backups.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			m.logger.Warn("failed to delete backup object", "key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		m.logger.Info("pruned backups", "count", len(keys), "cutoff", cutoff)
	}
	return len(keys), nil
}

func (m *Manager) List(ctx context.Context, limit int) ([]model.Backup, error) {
	return m.backups.List(ctx, limit)
}

// Restore downloads and decrypts a completed backup into dst, a path that
// must not exist yet. The restored file passes an integrity check before
// it is moved into place.
func (m *Manager) Restore(ctx context.Context, id int64, dst string) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if _, err := os.Stat(dst); err == nil {
		return ErrDestExists
	}

	rec, err := m.backups.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	if rec.Status != model.BackupCompleted {
		return ErrIncomplete
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(rec.ObjectKey),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", rec.ObjectKey, err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", rec.ObjectKey, err)
	}
	plaintext, err := Open(sealed, m.cfg.Passphrase)
	if err != nil {
		return err
	}

	tmp := dst + ".partial"
	if err := os.WriteFile(tmp, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored database: %w", err)
	}
	if err := checkIntegrity(ctx, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("move restored database: %w", err)
	}

	m.logger.Info("backup restored", "id", id, "dst", dst)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored database: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
