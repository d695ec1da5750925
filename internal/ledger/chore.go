package ledger

import (
	"context"
	"fmt"

	"github.com/dukerupert/chorepoints/internal/chore"
	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/model"
)

type CompleteResult struct {
	NewPoints  int
	Completion *model.ChoreCompletion
}

// ListActiveChores returns the kid's chores not yet completed this period,
// ordered by creation.
func (l *Ledger) ListActiveChores(ctx context.Context, kidID int64) ([]model.Chore, error) {
	now := l.now()
	return l.read().chores.ListActive(ctx, kidID, chore.DailyKey(now, l.loc), chore.WeeklyKey(now, l.loc))
}

// ListFamilyChores returns every active chore assigned to the parent's kids.
func (l *Ledger) ListFamilyChores(ctx context.Context, parentID int64) ([]model.Chore, error) {
	return l.read().chores.ListForParent(ctx, parentID)
}

// CompleteChore records a completion for the current period and credits the
// chore's points. Both happen in one transaction or not at all.
func (l *Ledger) CompleteChore(ctx context.Context, kidID, choreID int64) (*CompleteResult, error) {
	now := l.now()
	var res CompleteResult

	err := l.inTx(ctx, func(q *queries) error {
		c, err := q.chores.GetByID(ctx, choreID)
		if err != nil {
			return err
		}
		if c == nil || !c.Active || c.AssignedTo != kidID {
			return fmt.Errorf("chore %d: %w", choreID, ErrNotFound)
		}

		key := chore.PeriodKey(c.ChoreType, now, l.loc)
		done, err := q.chores.CompletionExists(ctx, c.ID, kidID, key)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyCompleted
		}

		completion, err := q.chores.CreateCompletion(ctx, c.ID, kidID, key, c.PointsValue)
		if database.IsUniqueViolation(err) {
			return ErrAlreadyCompleted
		}
		if err != nil {
			return err
		}

		points, err := adjustBalance(ctx, q, kidID, c.PointsValue)
		if err != nil {
			return err
		}

		res = CompleteResult{NewPoints: points, Completion: completion}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("chore completed", "chore_id", choreID, "profile_id", kidID, "period", res.Completion.PeriodKey, "points", res.NewPoints)
	return &res, nil
}

// ListCompletions returns a kid's completion history, newest first.
func (l *Ledger) ListCompletions(ctx context.Context, actor Actor, kidID int64) ([]model.ChoreCompletion, error) {
	if _, err := l.visibleKid(ctx, actor, kidID); err != nil {
		return nil, err
	}
	return l.read().chores.ListCompletionsByProfile(ctx, kidID)
}
