package ledger

import (
	"context"
	"fmt"

	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/store"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// transition is one edge out of PENDING. A compensating action, when set,
// runs in the same transaction as the status change.
type transition struct {
	to         model.RedemptionStatus
	compensate func(ctx context.Context, q *queries, r *model.Redemption) error
}

var transitions = map[Action]transition{
	ActionApprove: {to: model.RedemptionApproved},
	ActionReject:  {to: model.RedemptionRejected, compensate: refund},
}

// refund returns the points debited when the redemption was requested.
func refund(ctx context.Context, q *queries, r *model.Redemption) error {
	_, err := adjustBalance(ctx, q, r.ProfileID, r.PointsSpent)
	return err
}

type RedeemResult struct {
	NewPoints  int
	Redemption *model.Redemption
	// Replayed is true when requestKey matched an earlier request and
	// nothing new was recorded.
	Replayed   bool
}

// RequestRedemption debits the reward's cost and records a PENDING
// redemption. A non-empty requestKey makes the request idempotent per kid;
// reusing it for a different reward fails with ErrKeyConflict.
func (l *Ledger) RequestRedemption(ctx context.Context, kidID, rewardID int64, requestKey string) (*RedeemResult, error) {
	var res RedeemResult

	err := l.inTx(ctx, func(q *queries) error {
		kid, err := q.profiles.GetByID(ctx, kidID)
		if err != nil {
			return err
		}
		if kid == nil {
			return fmt.Errorf("profile %d: %w", kidID, ErrNotFound)
		}
		if kid.Role != model.RoleKid {
			return ErrForbidden
		}

		if requestKey != "" {
			existing, err := q.rewards.GetRedemptionByRequestKey(ctx, kidID, requestKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RewardID != rewardID {
					return fmt.Errorf("key %q names reward %d: %w", requestKey, existing.RewardID, ErrKeyConflict)
				}
				res = RedeemResult{NewPoints: kid.Points, Redemption: existing, Replayed: true}
				return nil
			}
		}

		reward, err := q.rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil || !reward.Active {
			return fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
		}

		points, err := adjustBalance(ctx, q, kidID, -reward.Cost)
		if err != nil {
			return err
		}

		r, err := q.rewards.CreateRedemption(ctx, reward.ID, kidID, reward.Cost, requestKey)
		if err != nil {
			return err
		}

		res = RedeemResult{NewPoints: points, Redemption: r}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.Replayed {
		l.logger.Info("redemption requested", "redemption_id", res.Redemption.ID, "reward_id", rewardID, "profile_id", kidID, "points", res.NewPoints)
	}
	return &res, nil
}

type ProcessResult struct {
	Redemption *model.Redemption
	// NewPoints is the kid's balance after processing.
	NewPoints  int
}

// ProcessRedemption moves a PENDING redemption to APPROVED or REJECTED.
// Only the kid's parent may process it. The status change is conditional on
// PENDING, so of two concurrent calls exactly one succeeds.
func (l *Ledger) ProcessRedemption(ctx context.Context, parentID, redemptionID int64, action Action) (*ProcessResult, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, fmt.Errorf("%q: %w", action, ErrInvalidAction)
	}

	now := l.now()
	var res ProcessResult

	err := l.inTx(ctx, func(q *queries) error {
		r, err := q.rewards.GetRedemption(ctx, redemptionID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("redemption %d: %w", redemptionID, ErrNotFound)
		}

		kid, err := q.profiles.GetByID(ctx, r.ProfileID)
		if err != nil {
			return err
		}
		if kid == nil || !kid.IsKidOf(parentID) {
			return fmt.Errorf("redemption %d: %w", redemptionID, ErrNotFound)
		}

		moved, err := q.rewards.TransitionRedemption(ctx, r.ID, model.RedemptionPending, t.to, now)
		if err != nil {
			return err
		}
		if !moved {
			return ErrAlreadyProcessed
		}

		if t.compensate != nil {
			if err := t.compensate(ctx, q, r); err != nil {
				return err
			}
		}

		updated, err := q.rewards.GetRedemption(ctx, r.ID)
		if err != nil {
			return err
		}
		kid, err = q.profiles.GetByID(ctx, r.ProfileID)
		if err != nil {
			return err
		}

		res = ProcessResult{Redemption: updated, NewPoints: kid.Points}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("redemption processed", "redemption_id", redemptionID, "action", action, "status", res.Redemption.Status, "profile_id", res.Redemption.ProfileID)
	return &res, nil
}

// ListPending returns PENDING redemptions visible to actor, oldest first.
func (l *Ledger) ListPending(ctx context.Context, actor Actor) ([]model.Redemption, error) {
	f := visibleRedemptions(actor)
	f.Status = model.RedemptionPending
	f.OldestFirst = true
	return l.read().rewards.ListRedemptions(ctx, f)
}

// ListRedemptions returns every redemption visible to actor, newest first.
func (l *Ledger) ListRedemptions(ctx context.Context, actor Actor) ([]model.Redemption, error) {
	return l.read().rewards.ListRedemptions(ctx, visibleRedemptions(actor))
}

func visibleRedemptions(actor Actor) store.RedemptionFilter {
	if actor.IsParent() {
		return store.RedemptionFilter{ParentID: actor.ID}
	}
	return store.RedemptionFilter{ProfileID: actor.ID}
}

