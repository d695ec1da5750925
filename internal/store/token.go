package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorepoints/internal/model"
)

// TokenStore tracks issued refresh tokens by jti so they can be rotated and revoked.
type TokenStore struct {
	db DBTX
}

func NewTokenStore(db DBTX) *TokenStore {
	return &TokenStore{db: db}
}

func scanRefreshToken(s scanner) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	var revokedAt sql.NullTime

	err := s.Scan(&rt.JTI, &rt.ProfileID, &rt.ExpiresAt, &revokedAt, &rt.CreatedAt)
	if err != nil {
		return nil, err
	}

	if revokedAt.Valid {
		rt.RevokedAt = &revokedAt.Time
	}
	return &rt, nil
}

const refreshTokenCols = `jti, profile_id, expires_at, revoked_at, created_at`

func (s *TokenStore) Create(ctx context.Context, jti string, profileID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (jti, profile_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		jti, profileID, expiresAt.UTC(), now(),
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetActive returns the token if it exists, is unexpired and not revoked, or nil.
func (s *TokenStore) GetActive(ctx context.Context, jti string) (*model.RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+refreshTokenCols+` FROM refresh_tokens WHERE jti = ? AND revoked_at IS NULL AND expires_at > ?`,
		jti, now(),
	)
	rt, err := scanRefreshToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return rt, nil
}

// Revoke marks the token revoked. It reports false if the token was
// already revoked or never existed.
func (s *TokenStore) Revoke(ctx context.Context, jti string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE jti = ? AND revoked_at IS NULL`,
		now(), jti,
	)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// DeleteExpired removes tokens that expired or were revoked before cutoff.
func (s *TokenStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ? OR (revoked_at IS NOT NULL AND revoked_at <= ?)`,
		cutoff.UTC(), cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
