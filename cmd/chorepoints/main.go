package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/chorepoints/internal/auth"
	"github.com/dukerupert/chorepoints/internal/backup"
	"github.com/dukerupert/chorepoints/internal/config"
	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/jobs"
	"github.com/dukerupert/chorepoints/internal/ledger"
	"github.com/dukerupert/chorepoints/internal/logging"
	"github.com/dukerupert/chorepoints/internal/push"
	"github.com/dukerupert/chorepoints/internal/seed"
	"github.com/dukerupert/chorepoints/internal/server"
	"github.com/dukerupert/chorepoints/internal/store"
	"github.com/dukerupert/chorepoints/internal/token"
	ws "github.com/dukerupert/chorepoints/internal/websocket"
)

const usage = `usage: chorepoints [command]

commands:
  serve                  run the HTTP server (default)
  vapid-keys             print a new VAPID key pair for push notifications
  backup                 upload an encrypted database snapshot now
  restore <id> <path>    download backup <id> and write it to a new database file`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chorepoints: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "serve":
		return serve()
	case "vapid-keys":
		return vapidKeys()
	case "backup":
		return runBackup()
	case "restore":
		if len(args) != 3 {
			return errors.New(usage)
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid backup id %q", args[1])
		}
		return restore(id, args[2])
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func vapidKeys() error {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		return err
	}
	fmt.Printf("CHOREPOINTS_VAPID_PUBLIC_KEY=%s\nCHOREPOINTS_VAPID_PRIVATE_KEY=%s\n", pub, priv)
	return nil
}

// setup loads config and opens the database shared by every command.
func setup() (*config.Config, *slog.Logger, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, logger, db, nil
}

func backupManager(cfg *config.Config, db *sql.DB, logger *slog.Logger) *backup.Manager {
	return backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.BackupS3Endpoint,
			Bucket:    cfg.BackupS3Bucket,
			Region:    cfg.BackupS3Region,
			AccessKey: cfg.BackupS3AccessKey,
			SecretKey: cfg.BackupS3SecretKey,
		},
		Passphrase:    cfg.BackupPassphrase,
		RetentionDays: cfg.BackupRetentionDays,
		Prefix:        cfg.BackupS3Prefix,
	}, db, logger)
}

func runBackup() error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec, err := backupManager(cfg, db, logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("backup %d uploaded to %s (%d bytes)\n", rec.ID, rec.ObjectKey, rec.SizeBytes)
	return nil
}

func restore(id int64, dst string) error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := backupManager(cfg, db, logger).Restore(ctx, id, dst); err != nil {
		return err
	}
	fmt.Printf("backup %d restored to %s; point CHOREPOINTS_DB_PATH at it and restart\n", id, dst)
	return nil
}

func serve() error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Seed {
		if _, err := seed.Run(ctx, db, cfg.SeedPassword, logger.With("component", "seed")); err != nil {
			return err
		}
	}

	cache, err := auth.NewPrincipalCache(cfg.PrincipalCacheSize)
	if err != nil {
		return err
	}
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	tokens := token.NewService(db, issuer, cache, logger)

	policy := ledger.Policy{GoodPoints: cfg.GoodPoints, BadPoints: cfg.BadPoints}
	l := ledger.New(db, policy, loc, logger)

	opts := server.Options{
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
		AllowedOrigins:  cfg.AllowedOrigins,
	}
	if cfg.PushEnabled() {
		subs := store.NewPushStore(db)
		svc := push.NewService(push.Config{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.VAPIDSubscriber,
		})
		notifier := push.NewNotifier(svc, subs, logger)
		defer notifier.Wait()
		opts.Push = &server.PushOptions{Notifier: notifier, Subscriptions: subs, VAPIDPublicKey: cfg.VAPIDPublicKey}
		logger.Info("push notifications enabled")
	}

	hub := ws.NewHub(logger)
	srv := server.New(l, tokens, hub, opts, logger)

	scheduler := jobs.NewScheduler(loc, tokens, srv.RateLimiter(), hub, logger)
	if cfg.BackupsEnabled() {
		scheduler.WithBackups(backupManager(cfg, db, logger), cfg.BackupSchedule)
		logger.Info("scheduled backups enabled", "bucket", cfg.BackupS3Bucket, "schedule", cfg.BackupSchedule)
	}
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv.Router(),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("chorepoints listening", "addr", httpServer.Addr, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
