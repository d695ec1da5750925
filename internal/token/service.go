package token

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/store"
)

type Service struct {
	db       *sql.DB
	issuer   *Issuer
	profiles *store.ProfileStore
	tokens   *store.TokenStore
	cache    *auth.PrincipalCache
	logger   *slog.Logger
}

func NewService(db *sql.DB, issuer *Issuer, cache *auth.PrincipalCache, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		issuer:   issuer,
		profiles: store.NewProfileStore(db),
		tokens:   store.NewTokenStore(db),
		cache:    cache,
		logger:   logger.With("component", "token"),
	}
}

// Login checks the password and issues a fresh pair.
func (s *Service) Login(ctx context.Context, username, password string) (*Pair, error) {
	id, hash, err := s.profiles.GetCredentials(ctx, username)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, fmt.Errorf("unknown user: %w", auth.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, fmt.Errorf("bad password: %w", auth.ErrUnauthorized)
	}

	var pair *Pair
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		pair, err = s.issuePair(ctx, store.NewTokenStore(tx), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("login", "profile_id", id)
	return pair, nil
}

// Refresh rotates a refresh token: the presented jti is revoked and a new
// pair is issued in the same transaction. A revoked or unknown jti fails.
func (s *Service) Refresh(ctx context.Context, refresh string) (*Pair, error) {
	claims, err := s.issuer.Parse(refresh, TypeRefresh)
	if err != nil {
		return nil, err
	}
	profileID, err := claims.ProfileID()
	if err != nil {
		return nil, err
	}

	var pair *Pair
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		tokens := store.NewTokenStore(tx)

		rt, err := tokens.GetActive(ctx, claims.ID)
		if err != nil {
			return err
		}
		if rt == nil || rt.ProfileID != profileID {
			return fmt.Errorf("refresh token not active: %w", auth.ErrUnauthorized)
		}
		if _, err := tokens.Revoke(ctx, claims.ID); err != nil {
			return err
		}

		pair, err = s.issuePair(ctx, tokens, profileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the refresh token. Revoking an already revoked token is not an error.
func (s *Service) Logout(ctx context.Context, refresh string) error {
	claims, err := s.issuer.Parse(refresh, TypeRefresh)
	if err != nil {
		return err
	}
	if _, err := s.tokens.Revoke(ctx, claims.ID); err != nil {
		return err
	}
	if id, err := claims.ProfileID(); err == nil {
		s.cache.Remove(id)
	}
	return nil
}

// Authenticate resolves an access token to its principal.
func (s *Service) Authenticate(ctx context.Context, access string) (auth.AuthContext, error) {
	claims, err := s.issuer.Parse(access, TypeAccess)
	if err != nil {
		return auth.AuthContext{}, err
	}
	profileID, err := claims.ProfileID()
	if err != nil {
		return auth.AuthContext{}, err
	}

	if ac, ok := s.cache.Get(profileID); ok {
		return ac, nil
	}

	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return auth.AuthContext{}, err
	}
	if p == nil {
		return auth.AuthContext{}, fmt.Errorf("profile %d gone: %w", profileID, auth.ErrUnauthorized)
	}

	ac := auth.AuthContext{ProfileID: p.ID, Role: p.Role, ParentID: p.ParentID}
	s.cache.Add(ac)
	return ac, nil
}

// PurgeExpired deletes refresh tokens that can no longer be used.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.issuer.now())
}

func (s *Service) issuePair(ctx context.Context, tokens *store.TokenStore, profileID int64) (*Pair, error) {
	access, err := s.issuer.IssueAccess(profileID)
	if err != nil {
		return nil, err
	}
	refresh, claims, err := s.issuer.IssueRefresh(profileID)
	if err != nil {
		return nil, err
	}
	if err := tokens.Create(ctx, claims.ID, profileID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}
