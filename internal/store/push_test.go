package store

import (
	"context"
	"testing"
)

func TestPushSubscriptionUpsert(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	parent, kid := createFamily(t, NewProfileStore(db))
	ctx := context.Background()

	sub, err := ps.Upsert(ctx, parent.ID, "https://push.example.com/abc", "p256", "auth", "Kitchen tablet")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sub.ID == 0 || sub.ProfileID != parent.ID || sub.DeviceName != "Kitchen tablet" {
		t.Fatalf("subscription = %+v", sub)
	}

	// Same endpoint, new owner and keys.
	moved, err := ps.Upsert(ctx, kid.ID, "https://push.example.com/abc", "p256-new", "auth-new", "Kitchen tablet")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if moved.ID != sub.ID {
		t.Errorf("id = %d, want %d (row reused)", moved.ID, sub.ID)
	}
	if moved.ProfileID != kid.ID || moved.P256dhKey != "p256-new" {
		t.Errorf("moved = %+v", moved)
	}

	parentSubs, _ := ps.ListByProfile(ctx, parent.ID)
	if len(parentSubs) != 0 {
		t.Errorf("parent still has %d subscriptions", len(parentSubs))
	}
	kidSubs, _ := ps.ListByProfile(ctx, kid.ID)
	if len(kidSubs) != 1 {
		t.Errorf("kid has %d subscriptions, want 1", len(kidSubs))
	}
}

func TestPushSubscriptionDelete(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	parent, kid := createFamily(t, NewProfileStore(db))
	ctx := context.Background()

	sub, err := ps.Upsert(ctx, parent.ID, "https://push.example.com/1", "p", "a", "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ok, err := ps.Delete(ctx, sub.ID, kid.ID)
	if err != nil || ok {
		t.Errorf("delete by non-owner: ok=%v err=%v", ok, err)
	}
	ok, err = ps.Delete(ctx, sub.ID, parent.ID)
	if err != nil || !ok {
		t.Errorf("delete by owner: ok=%v err=%v", ok, err)
	}

	if _, err := ps.Upsert(ctx, parent.ID, "https://push.example.com/2", "p", "a", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := ps.DeleteByEndpoint(ctx, "https://push.example.com/2"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	got, err := ps.GetByEndpoint(ctx, "https://push.example.com/2")
	if err != nil || got != nil {
		t.Errorf("after delete: %+v, %v", got, err)
	}
}
