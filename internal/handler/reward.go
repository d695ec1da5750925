package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/push"
	"github.com/dukerupert/chorepoints/internal/websocket"
)

const idempotencyKeyHeader = "Idempotency-Key"

type RewardHandler struct {
	ledger *ledger.Ledger
	notifier
	logger *slog.Logger
}

func NewRewardHandler(l *ledger.Ledger, hub *websocket.Hub, pusher Pusher, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{ledger: l, notifier: newNotifier(hub, pusher), logger: logger}
}

type rewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Cost        int    `json:"cost"`
	Active      *bool  `json:"active"`
}

func (req rewardRequest) input() ledger.RewardInput {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return ledger.RewardInput{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Cost:        req.Cost,
		Active:      active,
	}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.ledger.ListRewards(r.Context(), actor(r))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reward, err := h.ledger.CreateReward(r.Context(), req.input())
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(familyOf(r), websocket.NewMessage(websocket.EntityReward, websocket.ActionCreated, reward.ID, nil))

	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reward, err := h.ledger.UpdateReward(r.Context(), id, req.input())
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(familyOf(r), websocket.NewMessage(websocket.EntityReward, websocket.ActionUpdated, id, nil))

	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.ledger.ArchiveReward(r.Context(), id); err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(familyOf(r), websocket.NewMessage(websocket.EntityReward, websocket.ActionArchived, id, nil))

	w.WriteHeader(http.StatusNoContent)
}

// Redeem debits the reward's cost and opens a PENDING redemption. A
// repeated Idempotency-Key returns the original redemption unchanged.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if len(key) > 128 {
		writeError(w, http.StatusBadRequest, "Idempotency-Key too long")
		return
	}

	kidID := auth.ProfileID(r.Context())
	res, err := h.ledger.RequestRedemption(r.Context(), kidID, id, key)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	} else {
		family := familyOf(r)
		h.broadcast(family, websocket.NewMessage(websocket.EntityRedemption, websocket.ActionRequested, res.Redemption.ID, map[string]any{"profile_id": kidID}))
		h.pointsChanged(family, kidID, res.NewPoints)
		red := res.Redemption
		h.notify(family, push.Payload{
			Title: "Reward requested",
			Body:  fmt.Sprintf("%s wants %s (%d points)", red.User.FirstName, red.Reward.Title, red.PointsSpent),
			Tag:   fmt.Sprintf("redemption-%d", red.ID),
		})
	}

	writeJSON(w, status, map[string]any{
		"status":        "success",
		"new_points":    res.NewPoints,
		"redemption_id": res.Redemption.ID,
	})
}
