package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorepoints/internal/model"
)

type BehaviorStore struct {
	db DBTX
}

func NewBehaviorStore(db DBTX) *BehaviorStore {
	return &BehaviorStore{db: db}
}

func scanBehaviorLog(s scanner) (*model.BehaviorLog, error) {
	var b model.BehaviorLog
	var loggedBy sql.NullInt64

	err := s.Scan(&b.ID, &b.ProfileID, &loggedBy, &b.ActionType, &b.PointsChange, &b.PointsApplied, &b.Note, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	if loggedBy.Valid {
		b.LoggedBy = &loggedBy.Int64
	}
	return &b, nil
}

const behaviorCols = `id, profile_id, logged_by, action_type, points_change, points_applied, note, created_at`

// Create appends a log entry. Entries are never updated or deleted.
func (s *BehaviorStore) Create(ctx context.Context, profileID int64, loggedBy *int64, action model.BehaviorAction, change, applied int, note string) (*model.BehaviorLog, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO behavior_logs (profile_id, logged_by, action_type, points_change, points_applied, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profileID, nullInt64(loggedBy), action, change, applied, note, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert behavior log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+behaviorCols+` FROM behavior_logs WHERE id = ?`, id)
	b, err := scanBehaviorLog(row)
	if err != nil {
		return nil, fmt.Errorf("get behavior log: %w", err)
	}
	return b, nil
}

// ListByProfile returns a kid's log, newest first.
func (s *BehaviorStore) ListByProfile(ctx context.Context, profileID int64) ([]model.BehaviorLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+behaviorCols+` FROM behavior_logs WHERE profile_id = ? ORDER BY created_at DESC, id DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list behavior logs: %w", err)
	}
	defer rows.Close()

	var logs []model.BehaviorLog
	for rows.Next() {
		b, err := scanBehaviorLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan behavior log: %w", err)
		}
		logs = append(logs, *b)
	}
	return logs, rows.Err()
}
