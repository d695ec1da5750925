package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/push"
	"github.com/dukerupert/chorepoints/internal/store"
)

// PushSender sends a payload to one profile's devices synchronously.
type PushSender interface {
	Send(ctx context.Context, profileID int64, payload push.Payload) (int, error)
}

type PushHandler struct {
	subs      *store.PushStore
	sender    PushSender
	publicKey string
	logger    *slog.Logger
}

func NewPushHandler(subs *store.PushStore, sender PushSender, publicKey string, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, sender: sender, publicKey: publicKey, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// VAPIDKey handles GET /api/push/vapid-key/
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.publicKey})
}

// Subscribe handles POST /api/push/subscriptions/
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if !strings.HasPrefix(req.Endpoint, "https://") || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "https endpoint, p256dh and auth are required")
		return
	}

	sub, err := h.subs.Upsert(r.Context(), auth.ProfileID(r.Context()), req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// List handles GET /api/push/subscriptions/
func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.ListByProfile(r.Context(), auth.ProfileID(r.Context()))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}/
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ok, err := h.subs.Delete(r.Context(), id, auth.ProfileID(r.Context()))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test handles POST /api/push/test/ by pushing to the caller's own devices.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	sent, err := h.sender.Send(r.Context(), auth.ProfileID(r.Context()), push.Payload{
		Title: "Test notification",
		Body:  "Push notifications are working!",
		Tag:   "test",
	})
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
