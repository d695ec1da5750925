package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorepoints/internal/model"
)

type ProfileStore struct {
	db DBTX
}

func NewProfileStore(db DBTX) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(s scanner) (*model.Profile, error) {
	var p model.Profile
	var parentID sql.NullInt64

	err := s.Scan(&p.ID, &p.User.Username, &p.User.FirstName, &p.Role, &p.Points, &parentID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.User.ID = p.ID
	if parentID.Valid {
		p.ParentID = &parentID.Int64
	}
	return &p, nil
}

const profileCols = `id, username, first_name, role, points, parent_id, created_at`

func (s *ProfileStore) Create(ctx context.Context, username, firstName, passwordHash string, role model.Role, parentID *int64) (*model.Profile, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (username, first_name, password_hash, role, parent_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		username, firstName, passwordHash, role, nullInt64(parentID), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ProfileStore) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetCredentials returns the profile id and bcrypt hash for a username.
// A zero id means no such user.
func (s *ProfileStore) GetCredentials(ctx context.Context, username string) (int64, string, error) {
	var id int64
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM profiles WHERE username = ?`, username,
	).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("get credentials: %w", err)
	}
	return id, hash, nil
}

// List returns profiles with the given role, or every profile when role is empty.
func (s *ProfileStore) List(ctx context.Context, role model.Role) ([]model.Profile, error) {
	query := `SELECT ` + profileCols + ` FROM profiles`
	var args []any
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY id ASC`
	return s.query(ctx, query, args...)
}

// ListFamily returns the parent followed by their kids in creation order.
func (s *ProfileStore) ListFamily(ctx context.Context, parentID int64) ([]model.Profile, error) {
	return s.query(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE id = ? OR parent_id = ? ORDER BY (id != ?) ASC, id ASC`,
		parentID, parentID, parentID,
	)
}

func (s *ProfileStore) query(ctx context.Context, query string, args ...any) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// AdjustPoints applies delta only if the balance stays non-negative.
// ok is false when no row matched: the profile is missing or funds are short.
func (s *ProfileStore) AdjustPoints(ctx context.Context, id int64, delta int) (int, bool, error) {
	var points int
	err := s.db.QueryRowContext(ctx,
		`UPDATE profiles SET points = points + ? WHERE id = ? AND points + ? >= 0 RETURNING points`,
		delta, id, delta,
	).Scan(&points)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("adjust points: %w", err)
	}
	return points, true, nil
}

func (s *ProfileStore) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE profiles SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *ProfileStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}
