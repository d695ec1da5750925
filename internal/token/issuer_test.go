package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorepoints/internal/auth"
)

const testSecret = "0123456789abcdef0123"

func TestIssueAndParseAccess(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour, 24*time.Hour)

	signed, err := iss.IssueAccess(42)
	require.NoError(t, err)

	claims, err := iss.Parse(signed, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, TypeAccess, claims.TokenType)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	id, err := claims.ProfileID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestRefreshTokenCarriesUniqueJTI(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour, 24*time.Hour)

	_, a, err := iss.IssueRefresh(1)
	require.NoError(t, err)
	_, b, err := iss.IssueRefresh(1)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), a.ExpiresAt.Time, time.Minute)
}

func TestParseRejectsWrongType(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour, 24*time.Hour)

	refresh, _, err := iss.IssueRefresh(1)
	require.NoError(t, err)

	_, err = iss.Parse(refresh, TypeAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestParseRejectsExpired(t *testing.T) {
	iss := NewIssuer(testSecret, time.Minute, time.Hour)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	signed, err := iss.IssueAccess(1)
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(signed, TypeAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	ours := NewIssuer(testSecret, time.Hour, time.Hour)
	theirs := NewIssuer("another-secret-entirely", time.Hour, time.Hour)

	signed, err := theirs.IssueAccess(1)
	require.NoError(t, err)

	_, err = ours.Parse(signed, TypeAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour, time.Hour)

	claims := &Claims{
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Parse(unsigned, TypeAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestParseRejectsGarbage(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour, time.Hour)
	_, err := iss.Parse("not-a-jwt", TypeAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}
