package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/push"
	"github.com/dukerupert/chorepoints/internal/websocket"
)

type ProfileHandler struct {
	ledger *ledger.Ledger
	notifier
	logger *slog.Logger
}

func NewProfileHandler(l *ledger.Ledger, hub *websocket.Hub, pusher Pusher, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{ledger: l, notifier: newNotifier(hub, pusher), logger: logger}
}

// List returns the caller's family for a parent, or only the caller for a kid.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.ledger.VisibleProfiles(r.Context(), actor(r))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.GetProfile(r.Context(), auth.ProfileID(r.Context()))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type logBehaviorRequest struct {
	ActionType model.BehaviorAction `json:"action_type"`
	Note       string               `json:"note"`
}

func (h *ProfileHandler) LogBehavior(w http.ResponseWriter, r *http.Request) {
	kidID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req logBehaviorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	parentID := auth.ProfileID(r.Context())
	res, err := h.ledger.LogBehavior(r.Context(), parentID, kidID, req.ActionType, req.Note)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.pointsChanged(parentID, kidID, res.NewPoints)
	h.notify(kidID, behaviorPayload(res.Log))

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "new_points": res.NewPoints})
}

func behaviorPayload(b *model.BehaviorLog) push.Payload {
	p := push.Payload{Title: "Great job!", Body: fmt.Sprintf("+%d points", b.PointsApplied), Tag: "behavior"}
	if b.ActionType == model.BehaviorBad {
		p.Title = "Points taken away"
		p.Body = fmt.Sprintf("%d points", b.PointsApplied)
	}
	if b.Note != "" {
		p.Body += ": " + b.Note
	}
	return p
}

// Behavior returns a kid's behavior history.
func (h *ProfileHandler) Behavior(w http.ResponseWriter, r *http.Request) {
	kidID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	logs, err := h.ledger.ListBehavior(r.Context(), actor(r), kidID)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if logs == nil {
		logs = []model.BehaviorLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Completions returns a kid's chore completion history.
func (h *ProfileHandler) Completions(w http.ResponseWriter, r *http.Request) {
	kidID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	completions, err := h.ledger.ListCompletions(r.Context(), actor(r), kidID)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if completions == nil {
		completions = []model.ChoreCompletion{}
	}
	writeJSON(w, http.StatusOK, completions)
}
