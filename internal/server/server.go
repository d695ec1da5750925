package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorepoints/internal/handler"
	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/middleware"
	"github.com/dukerupert/chorepoints/internal/push"
	"github.com/dukerupert/chorepoints/internal/store"
	"github.com/dukerupert/chorepoints/internal/token"
	ws "github.com/dukerupert/chorepoints/internal/websocket"
)

// Options are the HTTP-layer knobs taken from config.
type Options struct {
	LoginRateLimit  int
	LoginRateWindow time.Duration
	AllowedOrigins  []string

	// Push enables device notifications and the /api/push routes.
	Push *PushOptions
}

type PushOptions struct {
	Notifier       *push.Notifier
	Subscriptions  *store.PushStore
	VAPIDPublicKey string
}

type Server struct {
	hub         *ws.Hub
	tokens      *token.Service
	authH       *handler.AuthHandler
	profileH    *handler.ProfileHandler
	choreH      *handler.ChoreHandler
	rewardH     *handler.RewardHandler
	redemptionH *handler.RedemptionHandler
	pushH       *handler.PushHandler
	rateLimiter *middleware.RateLimiter
	opts        Options
	logger      *slog.Logger
}

func New(l *ledger.Ledger, tokens *token.Service, hub *ws.Hub, opts Options, logger *slog.Logger) *Server {
	// Left as a nil interface when push is off; a typed nil would not be.
	var pusher handler.Pusher
	var pushH *handler.PushHandler
	if opts.Push != nil {
		pusher = opts.Push.Notifier
		pushH = handler.NewPushHandler(opts.Push.Subscriptions, opts.Push.Notifier, opts.Push.VAPIDPublicKey, logger.With("component", "push"))
	}

	return &Server{
		hub:         hub,
		tokens:      tokens,
		authH:       handler.NewAuthHandler(tokens, logger.With("component", "auth")),
		profileH:    handler.NewProfileHandler(l, hub, pusher, logger.With("component", "profile")),
		choreH:      handler.NewChoreHandler(l, hub, pusher, logger.With("component", "chore")),
		rewardH:     handler.NewRewardHandler(l, hub, pusher, logger.With("component", "reward")),
		redemptionH: handler.NewRedemptionHandler(l, hub, pusher, logger.With("component", "redemption")),
		pushH:       pushH,
		rateLimiter: middleware.NewRateLimiter(),
		opts:        opts,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/token/{$}", s.rateLimitedHandler(s.authH.Token))
	outerMux.HandleFunc("POST /api/token/refresh/{$}", s.rateLimitedHandler(s.authH.Refresh))
	outerMux.HandleFunc("POST /api/token/logout/{$}", s.authH.Logout)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	requireAuth := middleware.RequireAuth(s.tokens, s.logger.With("component", "auth"))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/api/", requireAuth(protectedMux))

	wsAuth := middleware.RequireAuthOrQuery(s.tokens, s.logger.With("component", "auth"))
	outerMux.Handle("GET /ws", wsAuth(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.opts.AllowedOrigins)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, s.opts.LoginRateLimit, s.opts.LoginRateWindow)
	return rl(h).ServeHTTP
}

func parentOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireParent(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Profiles
	mux.HandleFunc("GET /api/profiles/{$}", s.profileH.List)
	mux.HandleFunc("GET /api/profiles/me/{$}", s.profileH.Me)
	mux.Handle("POST /api/profiles/{id}/log_behavior/{$}", parentOnly(s.profileH.LogBehavior))
	mux.HandleFunc("GET /api/profiles/{id}/behavior/{$}", s.profileH.Behavior)
	mux.HandleFunc("GET /api/profiles/{id}/completions/{$}", s.profileH.Completions)

	// Chores
	mux.HandleFunc("GET /api/chores/{$}", s.choreH.List)
	mux.Handle("POST /api/chores/{$}", parentOnly(s.choreH.Create))
	mux.Handle("PUT /api/chores/{id}/{$}", parentOnly(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}/{$}", parentOnly(s.choreH.Archive))
	mux.HandleFunc("POST /api/chores/{id}/complete/{$}", s.choreH.Complete)

	// Rewards
	mux.HandleFunc("GET /api/rewards/{$}", s.rewardH.List)
	mux.Handle("POST /api/rewards/{$}", parentOnly(s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}/{$}", parentOnly(s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}/{$}", parentOnly(s.rewardH.Archive))
	mux.HandleFunc("POST /api/rewards/{id}/redeem/{$}", s.rewardH.Redeem)

	// Redemptions
	mux.HandleFunc("GET /api/redemptions/{$}", s.redemptionH.List)
	mux.HandleFunc("GET /api/redemptions/pending/{$}", s.redemptionH.Pending)
	mux.Handle("POST /api/redemptions/{id}/process/{$}", parentOnly(s.redemptionH.Process))

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key/{$}", s.pushH.VAPIDKey)
		mux.HandleFunc("GET /api/push/subscriptions/{$}", s.pushH.List)
		mux.HandleFunc("POST /api/push/subscriptions/{$}", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}/{$}", s.pushH.Unsubscribe)
		mux.HandleFunc("POST /api/push/test/{$}", s.pushH.Test)
	}
}
