package ledger

import (
	"context"
	"fmt"

	"github.com/dukerupert/chorepoints/internal/model"
)

// AdjustBalance applies delta to a profile's points in its own transaction
// and returns the new balance.
func (l *Ledger) AdjustBalance(ctx context.Context, profileID int64, delta int) (int, error) {
	var points int
	err := l.inTx(ctx, func(q *queries) error {
		var err error
		points, err = adjustBalance(ctx, q, profileID, delta)
		return err
	})
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (l *Ledger) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	p, err := l.read().profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// ListProfiles returns every profile with the given role; an empty role lists all.
func (l *Ledger) ListProfiles(ctx context.Context, role model.Role) ([]model.Profile, error) {
	return l.read().profiles.List(ctx, role)
}

// VisibleProfiles returns the parent and their kids for a parent, or only
// the caller for a kid.
func (l *Ledger) VisibleProfiles(ctx context.Context, actor Actor) ([]model.Profile, error) {
	if actor.IsParent() {
		return l.read().profiles.ListFamily(ctx, actor.ID)
	}
	p, err := l.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return []model.Profile{*p}, nil
}

// visibleKid returns the kid if actor may see their history: the kid
// themselves or their parent.
func (l *Ledger) visibleKid(ctx context.Context, actor Actor, kidID int64) (*model.Profile, error) {
	kid, err := l.read().profiles.GetByID(ctx, kidID)
	if err != nil {
		return nil, err
	}
	if kid == nil || kid.Role != model.RoleKid {
		return nil, fmt.Errorf("kid %d: %w", kidID, ErrNotFound)
	}
	if actor.ID != kid.ID && !kid.IsKidOf(actor.ID) {
		return nil, fmt.Errorf("kid %d: %w", kidID, ErrNotFound)
	}
	return kid, nil
}
