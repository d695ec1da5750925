package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createFamily inserts a parent with one kid and returns both.
func createFamily(t *testing.T, ps *ProfileStore) (*model.Profile, *model.Profile) {
	t.Helper()
	ctx := context.Background()

	parent, err := ps.Create(ctx, "mom", "Mom", "hash", model.RoleParent, nil)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	kid, err := ps.Create(ctx, "ian", "Ian", "hash", model.RoleKid, &parent.ID)
	if err != nil {
		t.Fatalf("create kid: %v", err)
	}
	return parent, kid
}
