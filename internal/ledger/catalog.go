package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/chorepoints/internal/model"
)

type ChoreInput struct {
	Title       string
	Description string
	Icon        string
	PointsValue int
	AssignedTo  int64
	ChoreType   model.ChoreType
}

func (in *ChoreInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if in.PointsValue <= 0 {
		return fmt.Errorf("points_value must be positive: %w", ErrInvalidInput)
	}
	if in.ChoreType == "" {
		in.ChoreType = model.ChoreDaily
	}
	if !in.ChoreType.Valid() {
		return fmt.Errorf("chore_type %q: %w", in.ChoreType, ErrInvalidInput)
	}
	if in.Icon == "" {
		in.Icon = "🧹"
	}
	return nil
}

type RewardInput struct {
	Title       string
	Description string
	Icon        string
	Cost        int
	Active      bool
}

func (in *RewardInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if in.Cost <= 0 {
		return fmt.Errorf("cost must be positive: %w", ErrInvalidInput)
	}
	if in.Icon == "" {
		in.Icon = "🎁"
	}
	return nil
}

// --- Chores ---

// CreateChore assigns a new chore to one of the parent's kids.
func (l *Ledger) CreateChore(ctx context.Context, parentID int64, in ChoreInput) (*model.Chore, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var c *model.Chore
	err := l.inTx(ctx, func(q *queries) error {
		if err := ownKid(ctx, q, parentID, in.AssignedTo); err != nil {
			return err
		}
		var err error
		c, err = q.chores.Create(ctx, in.Title, in.Description, in.Icon, in.PointsValue, in.AssignedTo, in.ChoreType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Ledger) UpdateChore(ctx context.Context, parentID, choreID int64, in ChoreInput) (*model.Chore, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var c *model.Chore
	err := l.inTx(ctx, func(q *queries) error {
		if err := ownChore(ctx, q, parentID, choreID); err != nil {
			return err
		}
		if err := ownKid(ctx, q, parentID, in.AssignedTo); err != nil {
			return err
		}
		var err error
		c, err = q.chores.Update(ctx, choreID, in.Title, in.Description, in.Icon, in.PointsValue, in.AssignedTo, in.ChoreType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Ledger) ArchiveChore(ctx context.Context, parentID, choreID int64) error {
	return l.inTx(ctx, func(q *queries) error {
		if err := ownChore(ctx, q, parentID, choreID); err != nil {
			return err
		}
		return q.chores.Archive(ctx, choreID)
	})
}

func ownKid(ctx context.Context, q *queries, parentID, kidID int64) error {
	kid, err := q.profiles.GetByID(ctx, kidID)
	if err != nil {
		return err
	}
	if kid == nil || !kid.IsKidOf(parentID) {
		return fmt.Errorf("kid %d: %w", kidID, ErrNotFound)
	}
	return nil
}

func ownChore(ctx context.Context, q *queries, parentID, choreID int64) error {
	c, err := q.chores.GetByID(ctx, choreID)
	if err != nil {
		return err
	}
	if c == nil || !c.Active {
		return fmt.Errorf("chore %d: %w", choreID, ErrNotFound)
	}
	return ownKid(ctx, q, parentID, c.AssignedTo)
}

// --- Rewards ---

// ListRewards returns the active catalog for kids and the full catalog for parents.
func (l *Ledger) ListRewards(ctx context.Context, actor Actor) ([]model.Reward, error) {
	if actor.IsParent() {
		return l.read().rewards.List(ctx)
	}
	return l.read().rewards.ListActive(ctx)
}

func (l *Ledger) CreateReward(ctx context.Context, in RewardInput) (*model.Reward, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	return l.read().rewards.Create(ctx, in.Title, in.Description, in.Icon, in.Cost, in.Active)
}

func (l *Ledger) UpdateReward(ctx context.Context, rewardID int64, in RewardInput) (*model.Reward, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var r *model.Reward
	err := l.inTx(ctx, func(q *queries) error {
		existing, err := q.rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
		}
		r, err = q.rewards.Update(ctx, rewardID, in.Title, in.Description, in.Icon, in.Cost, in.Active)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ArchiveReward hides a reward from kids. Pending redemptions keep their
// debited cost and can still be processed.
func (l *Ledger) ArchiveReward(ctx context.Context, rewardID int64) error {
	return l.inTx(ctx, func(q *queries) error {
		existing, err := q.rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
		}
		return q.rewards.Archive(ctx, rewardID)
	})
}
