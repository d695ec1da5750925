// Package ledger owns every change to a profile's point balance.
//
// Each operation runs in a single IMMEDIATE SQLite transaction, which holds
// the database write lock from BEGIN to COMMIT. Balance checks and the
// writes that depend on them therefore cannot interleave with another
// adjustment, and a failed operation leaves nothing behind.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/store"
)

// Policy holds the configured behavior point magnitudes.
type Policy struct {
	GoodPoints int
	BadPoints  int
}

// Delta returns the signed balance change for a behavior action.
func (p Policy) Delta(action model.BehaviorAction) (int, bool) {
	switch action {
	case model.BehaviorGood:
		return p.GoodPoints, true
	case model.BehaviorBad:
		return -p.BadPoints, true
	}
	return 0, false
}

// Actor identifies who is calling a ledger operation.
type Actor struct {
	ID       int64
	Role     model.Role
	ParentID *int64
}

func (a Actor) IsParent() bool { return a.Role == model.RoleParent }

type Ledger struct {
	db     *sql.DB
	policy Policy
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

func New(db *sql.DB, policy Policy, loc *time.Location, logger *slog.Logger) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{
		db:     db,
		policy: policy,
		loc:    loc,
		now:    time.Now,
		logger: logger.With("component", "ledger"),
	}
}

// SetClock replaces the time source used for period keys and timestamps.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Ledger) Location() *time.Location { return l.loc }

// queries binds every store to one transaction.
type queries struct {
	profiles *store.ProfileStore
	chores   *store.ChoreStore
	rewards  *store.RewardStore
	behavior *store.BehaviorStore
}

func newQueries(db store.DBTX) *queries {
	return &queries{
		profiles: store.NewProfileStore(db),
		chores:   store.NewChoreStore(db),
		rewards:  store.NewRewardStore(db),
		behavior: store.NewBehaviorStore(db),
	}
}

func (l *Ledger) inTx(ctx context.Context, fn func(q *queries) error) error {
	return database.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		return fn(newQueries(tx))
	})
}

// read runs fn against the pool without a transaction.
func (l *Ledger) read() *queries {
	return newQueries(l.db)
}

// adjustBalance applies delta to a profile inside the caller's transaction.
func adjustBalance(ctx context.Context, q *queries, profileID int64, delta int) (int, error) {
	points, ok, err := q.profiles.AdjustPoints(ctx, profileID, delta)
	if err != nil {
		return 0, err
	}
	if ok {
		return points, nil
	}

	p, err := q.profiles.GetByID(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}
	return 0, ErrInsufficientFunds
}
