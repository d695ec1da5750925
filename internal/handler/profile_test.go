package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/model"
)

func TestProfileLogBehavior(t *testing.T) {
	e := setupEnv(t)
	h := NewProfileHandler(e.ledger, nil, nil, e.logger)
	e.setPoints(t, 2)

	rec := httptest.NewRecorder()
	h.LogBehavior(rec, e.asParent(newRequest(http.MethodPost, "/api/profiles/log_behavior/", map[string]string{"action_type": "BAD", "note": "hit sibling"}, e.kid.ID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status    string `json:"status"`
		NewPoints int    `json:"new_points"`
	}
	decodeBody(t, rec, &body)
	if body.Status != "success" || body.NewPoints != 0 {
		t.Errorf("body = %+v, want success/0", body)
	}

	rec = httptest.NewRecorder()
	h.Behavior(rec, e.asKid(newRequest(http.MethodGet, "/api/profiles/behavior/", nil, e.kid.ID)))
	var logs []model.BehaviorLog
	decodeBody(t, rec, &logs)
	if len(logs) != 1 || logs[0].PointsChange != -3 || logs[0].PointsApplied != -2 {
		t.Errorf("logs = %+v", logs)
	}
}

func TestProfileLogBehaviorInvalidAction(t *testing.T) {
	e := setupEnv(t)
	h := NewProfileHandler(e.ledger, nil, nil, e.logger)

	rec := httptest.NewRecorder()
	h.LogBehavior(rec, e.asParent(newRequest(http.MethodPost, "/api/profiles/log_behavior/", map[string]string{"action_type": "MEH"}, e.kid.ID)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProfileListVisibility(t *testing.T) {
	e := setupEnv(t)
	h := NewProfileHandler(e.ledger, nil, nil, e.logger)

	rec := httptest.NewRecorder()
	h.List(rec, e.asParent(newRequest(http.MethodGet, "/api/profiles/", nil, 0)))
	var family []model.Profile
	decodeBody(t, rec, &family)
	if len(family) != 2 || family[0].ID != e.parent.ID {
		t.Errorf("parent view = %+v", family)
	}

	rec = httptest.NewRecorder()
	h.List(rec, e.asKid(newRequest(http.MethodGet, "/api/profiles/", nil, 0)))
	var self []model.Profile
	decodeBody(t, rec, &self)
	if len(self) != 1 || self[0].ID != e.kid.ID {
		t.Errorf("kid view = %+v", self)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, e.asKid(newRequest(http.MethodGet, "/api/profiles/me/", nil, 0)))
	var me model.Profile
	decodeBody(t, rec, &me)
	if me.User.Username != "ian" || me.Role != model.RoleKid {
		t.Errorf("me = %+v", me)
	}
}

func TestProfileCompletionHistory(t *testing.T) {
	e := setupEnv(t)
	h := NewProfileHandler(e.ledger, nil, nil, e.logger)
	ctx := context.Background()

	chore, err := e.ledger.CreateChore(ctx, e.parent.ID, ledger.ChoreInput{Title: "Feed the cat", PointsValue: 4, AssignedTo: e.kid.ID})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if _, err := e.ledger.CompleteChore(ctx, e.kid.ID, chore.ID); err != nil {
		t.Fatalf("complete chore: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Completions(rec, e.asParent(newRequest(http.MethodGet, "/api/profiles/completions/", nil, e.kid.ID)))
	var completions []model.ChoreCompletion
	decodeBody(t, rec, &completions)
	if len(completions) != 1 || completions[0].PointsEarned != 4 || completions[0].PeriodKey != "2026-10-19" {
		t.Errorf("completions = %+v", completions)
	}

	// Only kids have histories; the parent's own id is not one.
	rec = httptest.NewRecorder()
	h.Completions(rec, e.asKid(newRequest(http.MethodGet, "/api/profiles/completions/", nil, e.parent.ID)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("history of a parent = %d, want 404", rec.Code)
	}
}

func TestProfileBehaviorHistoryEmpty(t *testing.T) {
	e := setupEnv(t)
	h := NewProfileHandler(e.ledger, nil, nil, e.logger)

	rec := httptest.NewRecorder()
	h.Behavior(rec, e.asKid(newRequest(http.MethodGet, "/api/profiles/behavior/", nil, e.kid.ID)))
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Errorf("empty history = %d %q, want 200 []", rec.Code, rec.Body.String())
	}
}
