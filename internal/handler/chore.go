package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/websocket"
)

type ChoreHandler struct {
	ledger *ledger.Ledger
	notifier
	logger *slog.Logger
}

func NewChoreHandler(l *ledger.Ledger, hub *websocket.Hub, pusher Pusher, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{ledger: l, notifier: newNotifier(hub, pusher), logger: logger}
}

type choreRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	PointsValue int             `json:"points_value"`
	AssignedTo  int64           `json:"assigned_to"`
	ChoreType   model.ChoreType `json:"chore_type"`
}

func (req choreRequest) input() ledger.ChoreInput {
	return ledger.ChoreInput{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		PointsValue: req.PointsValue,
		AssignedTo:  req.AssignedTo,
		ChoreType:   req.ChoreType,
	}
}

// List returns the kid's chores still open this period, or every active
// chore in the family for a parent.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	a := actor(r)

	var chores []model.Chore
	var err error
	if a.IsParent() {
		chores, err = h.ledger.ListFamilyChores(r.Context(), a.ID)
	} else {
		chores, err = h.ledger.ListActiveChores(r.Context(), a.ID)
	}
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	parentID := auth.ProfileID(r.Context())
	chore, err := h.ledger.CreateChore(r.Context(), parentID, req.input())
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(parentID, websocket.NewMessage(websocket.EntityChore, websocket.ActionCreated, chore.ID, nil))

	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	parentID := auth.ProfileID(r.Context())
	chore, err := h.ledger.UpdateChore(r.Context(), parentID, id, req.input())
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(parentID, websocket.NewMessage(websocket.EntityChore, websocket.ActionUpdated, id, nil))

	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	parentID := auth.ProfileID(r.Context())
	if err := h.ledger.ArchiveChore(r.Context(), parentID, id); err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(parentID, websocket.NewMessage(websocket.EntityChore, websocket.ActionArchived, id, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	kidID := auth.ProfileID(r.Context())
	res, err := h.ledger.CompleteChore(r.Context(), kidID, id)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	family := familyOf(r)
	h.broadcast(family, websocket.NewMessage(websocket.EntityChore, websocket.ActionCompleted, id, map[string]any{"profile_id": kidID}))
	h.pointsChanged(family, kidID, res.NewPoints)

	writeJSON(w, http.StatusOK, map[string]any{"status": "completed", "new_points": res.NewPoints})
}
