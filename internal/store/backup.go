package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorepoints/internal/model"
)

type BackupStore struct {
	db DBTX
}

func NewBackupStore(db DBTX) *BackupStore {
	return &BackupStore{db: db}
}

func scanBackup(s scanner) (*model.Backup, error) {
	var b model.Backup
	var completedAt sql.NullTime

	err := s.Scan(&b.ID, &b.ObjectKey, &b.SizeBytes, &b.Status, &b.ErrorMessage, &b.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return &b, nil
}

const backupCols = `id, object_key, size_bytes, status, error_message, started_at, completed_at`

// Start records a backup in the running state.
func (s *BackupStore) Start(ctx context.Context, objectKey string, startedAt time.Time) (*model.Backup, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO backups (object_key, status, started_at) VALUES (?, ?, ?) RETURNING `+backupCols,
		objectKey, model.BackupRunning, startedAt.UTC(),
	)
	b, err := scanBackup(row)
	if err != nil {
		return nil, fmt.Errorf("insert backup: %w", err)
	}
	return b, nil
}

func (s *BackupStore) Complete(ctx context.Context, id, sizeBytes int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE backups SET status = ?, size_bytes = ?, completed_at = ? WHERE id = ?`,
		model.BackupCompleted, sizeBytes, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("complete backup: %w", err)
	}
	return nil
}

func (s *BackupStore) Fail(ctx context.Context, id int64, msg string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE backups SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		model.BackupFailed, msg, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("fail backup: %w", err)
	}
	return nil
}

func (s *BackupStore) GetByID(ctx context.Context, id int64) (*model.Backup, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+backupCols+` FROM backups WHERE id = ?`, id)
	b, err := scanBackup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backup %d: %w", id, err)
	}
	return b, nil
}

// List returns the newest backups first.
func (s *BackupStore) List(ctx context.Context, limit int) ([]model.Backup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+backupCols+` FROM backups ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var backups []model.Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, *b)
	}
	return backups, rows.Err()
}

// DeleteOlderThan removes finished backups started before cutoff and
// returns their object keys so the objects can be deleted too.
func (s *BackupStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM backups WHERE started_at < ? AND status != ? RETURNING object_key`,
		cutoff.UTC(), model.BackupRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("delete old backups: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan backup key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
