// Package handler exposes the ledger over HTTP/JSON.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/push"
	"github.com/dukerupert/chorepoints/internal/websocket"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads an optional JSON body; an empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// actor converts the request principal into a ledger actor.
func actor(r *http.Request) ledger.Actor {
	ac, _ := auth.FromContext(r.Context())
	return ledger.Actor{ID: ac.ProfileID, Role: ac.Role, ParentID: ac.ParentID}
}

// writeLedgerError maps the ledger's error taxonomy onto HTTP statuses.
// Anything unrecognized is logged and reported without detail.
func writeLedgerError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrAlreadyCompleted), errors.Is(err, ledger.ErrAlreadyProcessed), errors.Is(err, ledger.ErrKeyConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "not enough points")
	case errors.Is(err, ledger.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrInvalidAction), errors.Is(err, ledger.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Pusher delivers a device notification to one profile.
type Pusher interface {
	Notify(profileID int64, payload push.Payload)
}

// notifier sends sync messages to a family's dashboards and device pushes
// to individual profiles. Nil hub or pusher is a no-op.
type notifier struct {
	hub    *websocket.Hub
	pusher Pusher
}

func newNotifier(hub *websocket.Hub, pusher Pusher) notifier {
	return notifier{hub: hub, pusher: pusher}
}

func (n notifier) broadcast(familyID int64, msg websocket.Message) {
	if n.hub != nil && familyID != 0 {
		n.hub.BroadcastFamily(familyID, msg)
	}
}

// pointsChanged tells a family a kid's balance moved.
func (n notifier) pointsChanged(familyID, profileID int64, points int) {
	n.broadcast(familyID, websocket.NewMessage(websocket.EntityProfile, websocket.ActionPointsChanged, profileID, map[string]any{"points": points}))
}

func (n notifier) notify(profileID int64, payload push.Payload) {
	if n.pusher != nil && profileID != 0 {
		n.pusher.Notify(profileID, payload)
	}
}

func familyOf(r *http.Request) int64 {
	ac, _ := auth.FromContext(r.Context())
	return websocket.FamilyID(ac)
}
