// Package jobs runs the service's periodic housekeeping on a cron schedule.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukerupert/chorepoints/internal/chore"
	"github.com/dukerupert/chorepoints/internal/model"
	ws "github.com/dukerupert/chorepoints/internal/websocket"
)

// TokenPurger deletes refresh tokens that can no longer be used.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// WindowCleaner drops finished rate-limit windows.
type WindowCleaner interface {
	Cleanup() int
}

// Backuper uploads a database snapshot and prunes old ones.
type Backuper interface {
	Run(ctx context.Context) (*model.Backup, error)
	Prune(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	now     func() time.Time
	tokens  TokenPurger
	limiter WindowCleaner
	hub     *ws.Hub
	logger  *slog.Logger

	backups        Backuper
	backupSchedule string
}

// NewScheduler builds a scheduler whose specs are evaluated in loc, so the
// rollover job fires at local midnight.
func NewScheduler(loc *time.Location, tokens TokenPurger, limiter WindowCleaner, hub *ws.Hub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		loc:     loc,
		now:     time.Now,
		tokens:  tokens,
		limiter: limiter,
		hub:     hub,
		logger:  logger.With("component", "jobs"),
	}
}

// WithBackups adds a backup job on the given cron spec.
func (s *Scheduler) WithBackups(b Backuper, spec string) *Scheduler {
	s.backups = b
	s.backupSchedule = spec
	return s
}

// Start registers the jobs and starts the cron runner. Jobs use ctx for
// their database work.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("0 0 * * *", func() { s.Rollover() }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", func() { s.Cleanup(ctx) }); err != nil {
		return err
	}

	if s.backups != nil {
		if _, err := s.cron.AddFunc(s.backupSchedule, func() { s.Backup(ctx) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "timezone", s.loc.String(), "next_rollover", chore.NextRollover(s.now(), s.loc))
	return nil
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Rollover announces the new chore period. Daily and weekly completions
// are keyed by period, so nothing needs resetting in storage.
func (s *Scheduler) Rollover() {
	now := s.now()
	daily := chore.DailyKey(now, s.loc)
	weekly := chore.WeeklyKey(now, s.loc)

	s.logger.Info("chore period rollover", "daily", daily, "weekly", weekly)
	if s.hub != nil {
		s.hub.Broadcast(ws.NewMessage(ws.EntityPeriod, ws.ActionRollover, 0, map[string]any{
			"daily":  daily,
			"weekly": weekly,
		}))
	}
}

// Cleanup purges dead refresh tokens and stale rate-limit windows.
func (s *Scheduler) Cleanup(ctx context.Context) {
	n, err := s.tokens.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("purge refresh tokens", "error", err)
	} else if n > 0 {
		s.logger.Info("purged refresh tokens", "count", n)
	}

	if removed := s.limiter.Cleanup(); removed > 0 {
		s.logger.Debug("rate limit windows cleaned", "count", removed)
	}
}

// Backup uploads a snapshot, then prunes expired ones. A failed upload
// skips pruning so the last good snapshots are never the ones removed.
func (s *Scheduler) Backup(ctx context.Context) {
	if _, err := s.backups.Run(ctx); err != nil {
		s.logger.Error("scheduled backup", "error", err)
		return
	}
	if _, err := s.backups.Prune(ctx); err != nil {
		s.logger.Error("prune backups", "error", err)
	}
}
