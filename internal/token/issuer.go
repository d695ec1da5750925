// Package token issues and verifies the JWT access/refresh pair and owns
// the login, refresh and logout flows built on it.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dukerupert/chorepoints/internal/auth"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims are the registered claims plus the token's purpose, so a refresh
// token can never be presented as an access token.
type Claims struct {
	TokenType Type `json:"token_type"`
	jwt.RegisteredClaims
}

// ProfileID returns the subject as a profile id.
func (c *Claims) ProfileID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("subject %q: %w", c.Subject, auth.ErrUnauthorized)
	}
	return id, nil
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) sign(profileID int64, typ Type, ttl time.Duration) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(profileID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, claims, nil
}

func (i *Issuer) IssueAccess(profileID int64) (string, error) {
	signed, _, err := i.sign(profileID, TypeAccess, i.accessTTL)
	return signed, err
}

// IssueRefresh returns the signed token with its claims; the jti and
// expiry are what the token store records.
func (i *Issuer) IssueRefresh(profileID int64) (string, *Claims, error) {
	return i.sign(profileID, TypeRefresh, i.refreshTTL)
}

// Parse verifies signature, expiry and token type. Every failure is
// reported as auth.ErrUnauthorized.
func (i *Issuer) Parse(tokenString string, want Type) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", auth.ErrUnauthorized)
		}
		return nil, fmt.Errorf("parse token: %w", auth.ErrUnauthorized)
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("token type %q, want %q: %w", claims.TokenType, want, auth.ErrUnauthorized)
	}
	return claims, nil
}
