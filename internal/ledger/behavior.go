package ledger

import (
	"context"
	"fmt"

	"github.com/dukerupert/chorepoints/internal/model"
)

type BehaviorResult struct {
	NewPoints int
	Log       *model.BehaviorLog
}

// LogBehavior applies the configured GOOD or BAD delta to one of the
// parent's kids. A debit larger than the balance is clamped to zero rather
// than rejected; the log keeps both the intended and the applied delta.
func (l *Ledger) LogBehavior(ctx context.Context, parentID, kidID int64, action model.BehaviorAction, note string) (*BehaviorResult, error) {
	delta, ok := l.policy.Delta(action)
	if !ok {
		return nil, fmt.Errorf("%q: %w", action, ErrInvalidAction)
	}

	var res BehaviorResult
	err := l.inTx(ctx, func(q *queries) error {
		kid, err := q.profiles.GetByID(ctx, kidID)
		if err != nil {
			return err
		}
		if kid == nil || !kid.IsKidOf(parentID) {
			return fmt.Errorf("kid %d: %w", kidID, ErrNotFound)
		}

		applied := max(delta, -kid.Points)
		points, err := adjustBalance(ctx, q, kidID, applied)
		if err != nil {
			return err
		}

		entry, err := q.behavior.Create(ctx, kidID, &parentID, action, delta, applied, note)
		if err != nil {
			return err
		}

		res = BehaviorResult{NewPoints: points, Log: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("behavior logged", "profile_id", kidID, "action", action, "change", delta, "applied", res.Log.PointsApplied, "points", res.NewPoints)
	return &res, nil
}

// ListBehavior returns a kid's behavior log, newest first.
func (l *Ledger) ListBehavior(ctx context.Context, actor Actor, kidID int64) ([]model.BehaviorLog, error) {
	if _, err := l.visibleKid(ctx, actor, kidID); err != nil {
		return nil, err
	}
	return l.read().behavior.ListByProfile(ctx, kidID)
}
