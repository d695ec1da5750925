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

type RedemptionHandler struct {
	ledger *ledger.Ledger
	notifier
	logger *slog.Logger
}

func NewRedemptionHandler(l *ledger.Ledger, hub *websocket.Hub, pusher Pusher, logger *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{ledger: l, notifier: newNotifier(hub, pusher), logger: logger}
}

// List returns every visible redemption, newest first.
func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	redemptions, err := h.ledger.ListRedemptions(r.Context(), actor(r))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeRedemptions(w, redemptions)
}

// Pending returns visible PENDING redemptions, oldest first.
func (h *RedemptionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	redemptions, err := h.ledger.ListPending(r.Context(), actor(r))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeRedemptions(w, redemptions)
}

func writeRedemptions(w http.ResponseWriter, redemptions []model.Redemption) {
	if redemptions == nil {
		redemptions = []model.Redemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}

type processRequest struct {
	Action ledger.Action `json:"action"`
}

func (h *RedemptionHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	parentID := auth.ProfileID(r.Context())
	res, err := h.ledger.ProcessRedemption(r.Context(), parentID, id, req.Action)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(parentID, websocket.NewMessage(websocket.EntityRedemption, websocket.ActionProcessed, id, map[string]any{"status": res.Redemption.Status}))
	if res.Redemption.Status == model.RedemptionRejected {
		h.pointsChanged(parentID, res.Redemption.ProfileID, res.NewPoints)
	}
	h.notify(res.Redemption.ProfileID, processedPayload(res.Redemption))

	writeJSON(w, http.StatusOK, res.Redemption)
}

func processedPayload(r *model.Redemption) push.Payload {
	p := push.Payload{Tag: fmt.Sprintf("redemption-%d", r.ID)}
	if r.Status == model.RedemptionApproved {
		p.Title = "Reward approved"
		p.Body = fmt.Sprintf("Enjoy your %s!", r.Reward.Title)
	} else {
		p.Title = "Reward declined"
		p.Body = fmt.Sprintf("%s was declined. Your %d points are back.", r.Reward.Title, r.PointsSpent)
	}
	return p
}
