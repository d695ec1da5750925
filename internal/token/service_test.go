package token

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/store"
)

func setupService(t *testing.T) (*Service, *sql.DB, *model.Profile) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	ps := store.NewProfileStore(db)
	parent, err := ps.Create(context.Background(), "mom", "Mom", string(hash), model.RoleParent, nil)
	require.NoError(t, err)

	cache, err := auth.NewPrincipalCache(16)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(db, NewIssuer(testSecret, time.Hour, 24*time.Hour), cache, logger)
	return svc, db, parent
}

func TestLogin(t *testing.T) {
	svc, _, parent := setupService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "mom", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	ac, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, ac.ProfileID)
	assert.Equal(t, model.RoleParent, ac.Role)
	assert.Equal(t, 1, svc.cache.Len())
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "mom", "wrong")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "mom", "password123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, pair.Refresh)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestRefreshRotatesAndRevokes(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "mom", "password123")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, first.Refresh, second.Refresh)

	_, err = svc.Refresh(ctx, first.Refresh)
	assert.ErrorIs(t, err, auth.ErrUnauthorized, "a rotated refresh token must not be reusable")

	_, err = svc.Refresh(ctx, second.Refresh)
	assert.NoError(t, err)
}

func TestLogoutRevokes(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "mom", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.Refresh))
	require.NoError(t, svc.Logout(ctx, pair.Refresh))

	_, err = svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	err = svc.Logout(ctx, pair.Access)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestPurgeExpired(t *testing.T) {
	svc, db, parent := setupService(t)
	ctx := context.Background()

	ts := store.NewTokenStore(db)
	require.NoError(t, ts.Create(ctx, "old", parent.ID, time.Now().Add(-time.Hour)))
	_, err := svc.Login(ctx, "mom", "password123")
	require.NoError(t, err)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
