package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorepoints/internal/token"
)

// TokenService is the subset of token.Service the auth endpoints use.
type TokenService interface {
	Login(ctx context.Context, username, password string) (*token.Pair, error)
	Refresh(ctx context.Context, refresh string) (*token.Pair, error)
	Logout(ctx context.Context, refresh string) error
}

type AuthHandler struct {
	tokens TokenService
	logger *slog.Logger
}

func NewAuthHandler(tokens TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Token exchanges username and password for an access/refresh pair.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, err := h.tokens.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "refresh is required")
		return
	}

	pair, err := h.tokens.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "refresh is required")
		return
	}

	if err := h.tokens.Logout(r.Context(), req.Refresh); err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
