package auth

import (
	"context"
	"errors"

	"github.com/dukerupert/chorepoints/internal/model"
)

// ErrUnauthorized is returned for a missing, malformed, expired or revoked token.
var ErrUnauthorized = errors.New("unauthorized")

type contextKey struct{}

// AuthContext is the authenticated principal for a request.
type AuthContext struct {
	ProfileID int64
	Role      model.Role
	ParentID  *int64
}

func (ac AuthContext) IsParent() bool {
	return ac.Role == model.RoleParent
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func ProfileID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.ProfileID
}

func IsParent(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.IsParent()
}
