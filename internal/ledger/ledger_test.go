package ledger

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/store"
)

type fixture struct {
	ledger *Ledger
	db     *sql.DB
	parent *model.Profile
	kid    *model.Profile
	clock  time.Time
}

func setupLedger(t *testing.T) *fixture {
	t.Helper()
	return setupLedgerAt(t, ":memory:")
}

// setupFileLedger uses an on-disk database so concurrent transactions
// contend for the SQLite write lock across connections.
func setupFileLedger(t *testing.T) *fixture {
	t.Helper()
	return setupLedgerAt(t, filepath.Join(t.TempDir(), "ledger.db"))
}

func setupLedgerAt(t *testing.T, path string) *fixture {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	ps := store.NewProfileStore(db)
	parent, err := ps.Create(ctx, "mom", "Mom", "hash", model.RoleParent, nil)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	kid, err := ps.Create(ctx, "ian", "Ian", "hash", model.RoleKid, &parent.ID)
	if err != nil {
		t.Fatalf("create kid: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		db:     db,
		parent: parent,
		kid:    kid,
		clock:  time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
	f.ledger = New(db, Policy{GoodPoints: 5, BadPoints: 3}, time.UTC, logger)
	f.ledger.SetClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) setPoints(t *testing.T, profileID int64, points int) {
	t.Helper()
	if _, err := f.db.Exec(`UPDATE profiles SET points = ? WHERE id = ?`, points, profileID); err != nil {
		t.Fatalf("set points: %v", err)
	}
}

func (f *fixture) points(t *testing.T, profileID int64) int {
	t.Helper()
	p, err := f.ledger.GetProfile(context.Background(), profileID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	return p.Points
}

func (f *fixture) parentActor() Actor {
	return Actor{ID: f.parent.ID, Role: model.RoleParent}
}

func (f *fixture) kidActor() Actor {
	return Actor{ID: f.kid.ID, Role: model.RoleKid, ParentID: &f.parent.ID}
}

func (f *fixture) addChore(t *testing.T, title string, points int, ct model.ChoreType) *model.Chore {
	t.Helper()
	c, err := f.ledger.CreateChore(context.Background(), f.parent.ID, ChoreInput{
		Title: title, PointsValue: points, AssignedTo: f.kid.ID, ChoreType: ct,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return c
}

func (f *fixture) addReward(t *testing.T, title string, cost int) *model.Reward {
	t.Helper()
	r, err := f.ledger.CreateReward(context.Background(), RewardInput{Title: title, Cost: cost, Active: true})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	return r
}
