package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorepoints/internal/auth"
)

// FamilyID returns the family a principal belongs to: a parent's own id or
// a kid's parent id. Zero means no family.
func FamilyID(ac auth.AuthContext) int64 {
	if ac.IsParent() {
		return ac.ProfileID
	}
	if ac.ParentID != nil {
		return *ac.ParentID
	}
	return 0
}

// HandleWebSocket upgrades an authenticated request and runs it as a hub
// client until the connection closes. originPatterns limits cross-origin
// upgrades; empty allows only same-origin.
func HandleWebSocket(hub *Hub, logger *slog.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err, "profile_id", ac.ProfileID)
			return
		}

		client := NewClient(hub, conn, FamilyID(ac))
		client.Run(r.Context())
	}
}
