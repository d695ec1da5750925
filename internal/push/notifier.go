package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/chorepoints/internal/store"
)

const sendTimeout = 15 * time.Second

// Notifier fans a payload out to every device a profile registered.
type Notifier struct {
	svc    *Service
	subs   *store.PushStore
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewNotifier(svc *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{svc: svc, subs: subs, logger: logger.With("component", "push")}
}

// Notify sends in the background so request handlers never wait on a push
// service. A nil Notifier does nothing.
func (n *Notifier) Notify(profileID int64, payload Payload) {
	if n == nil {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if _, err := n.Send(ctx, profileID, payload); err != nil {
			n.logger.Error("push notify", "profile_id", profileID, "error", err)
		}
	}()
}

// Send delivers payload to each of the profile's subscriptions and returns
// how many accepted it. Expired subscriptions are removed.
func (n *Notifier) Send(ctx context.Context, profileID int64, payload Payload) (int, error) {
	subs, err := n.subs.ListByProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range subs {
		sub := &subs[i]
		err := n.svc.Send(ctx, sub, payload)
		switch {
		case errors.Is(err, ErrExpired):
			n.logger.Info("dropping expired push subscription", "profile_id", profileID, "subscription_id", sub.ID)
			if err := n.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				n.logger.Error("delete expired subscription", "error", err)
			}
		case err != nil:
			n.logger.Warn("push send failed", "profile_id", profileID, "subscription_id", sub.ID, "error", err)
		default:
			sent++
		}
	}
	return sent, nil
}

// Wait blocks until background sends finish. Call it during shutdown.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
