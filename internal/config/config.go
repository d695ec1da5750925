// Package config loads service settings from CHOREPOINTS_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"chorepoints.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone string `envconfig:"TIMEZONE" default:"UTC"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TTL" default:"24h"`
	RefreshTTL time.Duration `envconfig:"REFRESH_TTL" default:"168h"`

	// Magnitudes only; BAD is applied as a debit.
	GoodPoints int `envconfig:"GOOD_POINTS" default:"5"`
	BadPoints  int `envconfig:"BAD_POINTS" default:"3"`

	LoginRateLimit  int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	LoginRateWindow time.Duration `envconfig:"LOGIN_RATE_WINDOW" default:"1m"`

	PrincipalCacheSize int `envconfig:"PRINCIPAL_CACHE_SIZE" default:"256"`

	// Host patterns allowed to open cross-origin WebSocket connections.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `envconfig:"VAPID_SUBSCRIBER" default:"mailto:admin@chorepoints.local"`

	BackupS3Endpoint    string `envconfig:"BACKUP_S3_ENDPOINT"`
	BackupS3Bucket      string `envconfig:"BACKUP_S3_BUCKET"`
	BackupS3Region      string `envconfig:"BACKUP_S3_REGION" default:"us-east-1"`
	BackupS3AccessKey   string `envconfig:"BACKUP_S3_ACCESS_KEY"`
	BackupS3SecretKey   string `envconfig:"BACKUP_S3_SECRET_KEY"`
	BackupS3Prefix      string `envconfig:"BACKUP_S3_PREFIX" default:"backups"`
	BackupPassphrase    string `envconfig:"BACKUP_PASSPHRASE"`
	BackupRetentionDays int    `envconfig:"BACKUP_RETENTION_DAYS" default:"30"`
	BackupSchedule      string `envconfig:"BACKUP_SCHEDULE" default:"30 3 * * *"`

	Seed         bool   `envconfig:"SEED" default:"false"`
	SeedPassword string `envconfig:"SEED_PASSWORD" default:"password123"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("chorepoints", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("CHOREPOINTS_JWT_SECRET must be at least 16 characters")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.RefreshTTL < c.AccessTTL {
		return fmt.Errorf("CHOREPOINTS_REFRESH_TTL must not be shorter than CHOREPOINTS_ACCESS_TTL")
	}
	if c.GoodPoints <= 0 || c.BadPoints <= 0 {
		return fmt.Errorf("behavior point magnitudes must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return fmt.Errorf("login rate limit must be positive")
	}
	if c.PrincipalCacheSize <= 0 {
		return fmt.Errorf("CHOREPOINTS_PRINCIPAL_CACHE_SIZE must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return fmt.Errorf("CHOREPOINTS_VAPID_PUBLIC_KEY and CHOREPOINTS_VAPID_PRIVATE_KEY must be set together")
	}
	if c.BackupS3Bucket != "" {
		if len(c.BackupPassphrase) < 12 {
			return fmt.Errorf("CHOREPOINTS_BACKUP_PASSPHRASE must be at least 12 characters when backups are enabled")
		}
		if c.BackupRetentionDays < 0 {
			return fmt.Errorf("CHOREPOINTS_BACKUP_RETENTION_DAYS must not be negative")
		}
		if _, err := cron.ParseStandard(c.BackupSchedule); err != nil {
			return fmt.Errorf("parse CHOREPOINTS_BACKUP_SCHEDULE: %w", err)
		}
	}
	return nil
}

// PushEnabled reports whether VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// BackupsEnabled reports whether a bucket is configured.
func (c *Config) BackupsEnabled() bool {
	return c.BackupS3Bucket != ""
}

// Location resolves Timezone; chore periods roll over at local midnight.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
