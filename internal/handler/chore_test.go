package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/model"
)

func TestChoreCreateAndComplete(t *testing.T) {
	e := setupEnv(t)
	h := NewChoreHandler(e.ledger, nil, nil, e.logger)

	rec := httptest.NewRecorder()
	h.Create(rec, e.asParent(newRequest(http.MethodPost, "/api/chores/", map[string]any{
		"title": "Make bed", "points_value": 5, "assigned_to": e.kid.ID,
	}, 0)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var chore model.Chore
	decodeBody(t, rec, &chore)
	if chore.ChoreType != model.ChoreDaily {
		t.Errorf("ChoreType = %q, want DAILY default", chore.ChoreType)
	}

	rec = httptest.NewRecorder()
	h.Complete(rec, e.asKid(newRequest(http.MethodPost, "/api/chores/complete/", nil, chore.ID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status    string `json:"status"`
		NewPoints int    `json:"new_points"`
	}
	decodeBody(t, rec, &body)
	if body.Status != "completed" || body.NewPoints != 5 {
		t.Errorf("body = %+v, want completed/5", body)
	}

	rec = httptest.NewRecorder()
	h.Complete(rec, e.asKid(newRequest(http.MethodPost, "/api/chores/complete/", nil, chore.ID)))
	if rec.Code != http.StatusConflict {
		t.Errorf("second complete status = %d, want 409", rec.Code)
	}
}

func TestChoreListByRole(t *testing.T) {
	e := setupEnv(t)
	h := NewChoreHandler(e.ledger, nil, nil, e.logger)
	ctx := context.Background()

	done, err := e.ledger.CreateChore(ctx, e.parent.ID, ledger.ChoreInput{Title: "Dishes", PointsValue: 3, AssignedTo: e.kid.ID})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if _, err := e.ledger.CreateChore(ctx, e.parent.ID, ledger.ChoreInput{Title: "Trash", PointsValue: 2, AssignedTo: e.kid.ID}); err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if _, err := e.ledger.CompleteChore(ctx, e.kid.ID, done.ID); err != nil {
		t.Fatalf("complete chore: %v", err)
	}

	rec := httptest.NewRecorder()
	h.List(rec, e.asKid(newRequest(http.MethodGet, "/api/chores/", nil, 0)))
	var kidView []model.Chore
	decodeBody(t, rec, &kidView)
	if len(kidView) != 1 || kidView[0].Title != "Trash" {
		t.Errorf("kid sees %+v, want only Trash", kidView)
	}

	rec = httptest.NewRecorder()
	h.List(rec, e.asParent(newRequest(http.MethodGet, "/api/chores/", nil, 0)))
	var parentView []model.Chore
	decodeBody(t, rec, &parentView)
	if len(parentView) != 2 {
		t.Errorf("parent sees %d chores, want 2", len(parentView))
	}
}

func TestChoreCompleteBadID(t *testing.T) {
	e := setupEnv(t)
	h := NewChoreHandler(e.ledger, nil, nil, e.logger)

	req := e.asKid(httptest.NewRequest(http.MethodPost, "/api/chores/abc/complete/", nil))
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	h.Complete(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Complete(rec, e.asKid(newRequest(http.MethodPost, "/api/chores/999/complete/", nil, 999)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestChoreArchive(t *testing.T) {
	e := setupEnv(t)
	h := NewChoreHandler(e.ledger, nil, nil, e.logger)

	c, err := e.ledger.CreateChore(context.Background(), e.parent.ID, ledger.ChoreInput{Title: "Dishes", PointsValue: 3, AssignedTo: e.kid.ID})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Archive(rec, e.asParent(newRequest(http.MethodDelete, "/api/chores/", nil, c.ID)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("archive status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Complete(rec, e.asKid(newRequest(http.MethodPost, "/api/chores/complete/", nil, c.ID)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("complete archived status = %d, want 404", rec.Code)
	}
}
