package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorepoints/internal/auth"
)

// Authenticator resolves an access token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (auth.AuthContext, error)
}

// RequireAuth validates the Authorization bearer token and populates
// AuthContext.
func RequireAuth(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireAuth(a, logger, false)
}

// RequireAuthOrQuery is RequireAuth for the WebSocket handshake, where
// browsers cannot set headers: a token query parameter is accepted too.
func RequireAuthOrQuery(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireAuth(a, logger, true)
}

func requireAuth(a Authenticator, logger *slog.Logger, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" && allowQuery {
				tok = r.URL.Query().Get("token")
			}
			if tok == "" {
				unauthorized(w)
				return
			}

			ac, err := a.Authenticate(r.Context(), tok)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthorized) {
					logger.Error("authenticate", "error", err)
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				unauthorized(w)
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireParent checks that the authenticated profile has the PARENT role.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsParent(r.Context()) {
			writeError(w, http.StatusForbidden, "parents only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="chorepoints"`)
	writeError(w, http.StatusUnauthorized, "authentication credentials were not provided or are invalid")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
