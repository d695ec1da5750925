package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHOREPOINTS_JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.GoodPoints != 5 || cfg.BadPoints != 3 {
		t.Errorf("behavior points = %d/%d, want 5/3", cfg.GoodPoints, cfg.BadPoints)
	}
	if cfg.AccessTTL != 24*time.Hour {
		t.Errorf("AccessTTL = %v, want 24h", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 7*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", cfg.RefreshTTL)
	}
	if cfg.PushEnabled() || cfg.BackupsEnabled() {
		t.Error("push and backups should be off by default")
	}
	if cfg.BackupRetentionDays != 30 || cfg.BackupSchedule != "30 3 * * *" {
		t.Errorf("backup defaults = %d days, %q", cfg.BackupRetentionDays, cfg.BackupSchedule)
	}
}

func TestLoadBackupsAndPush(t *testing.T) {
	t.Setenv("CHOREPOINTS_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("CHOREPOINTS_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("CHOREPOINTS_VAPID_PRIVATE_KEY", "priv")
	t.Setenv("CHOREPOINTS_BACKUP_S3_BUCKET", "family-backups")
	t.Setenv("CHOREPOINTS_BACKUP_PASSPHRASE", "a long enough passphrase")
	t.Setenv("CHOREPOINTS_BACKUP_SCHEDULE", "0 4 * * 0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.PushEnabled() || !cfg.BackupsEnabled() {
		t.Error("push and backups should be enabled")
	}
	if cfg.BackupS3Prefix != "backups" {
		t.Errorf("BackupS3Prefix = %q", cfg.BackupS3Prefix)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHOREPOINTS_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("CHOREPOINTS_GOOD_POINTS", "100")
	t.Setenv("CHOREPOINTS_BAD_POINTS", "10")
	t.Setenv("CHOREPOINTS_TIMEZONE", "America/Chicago")
	t.Setenv("CHOREPOINTS_ALLOWED_ORIGINS", "kiosk.local,*.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GoodPoints != 100 || cfg.BadPoints != 10 {
		t.Errorf("behavior points = %d/%d, want 100/10", cfg.GoodPoints, cfg.BadPoints)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "America/Chicago" {
		t.Errorf("location = %q", loc.String())
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "*.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("CHOREPOINTS_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT secret")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:          "0123456789abcdef",
		AccessTTL:          time.Hour,
		RefreshTTL:         2 * time.Hour,
		GoodPoints:         5,
		BadPoints:          3,
		LoginRateLimit:     10,
		LoginRateWindow:    time.Minute,
		PrincipalCacheSize: 16,
		Timezone:           "UTC",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name string
		mod  func(c *Config)
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"refresh shorter than access", func(c *Config) { c.RefreshTTL = time.Minute }},
		{"zero good points", func(c *Config) { c.GoodPoints = 0 }},
		{"negative bad points", func(c *Config) { c.BadPoints = -3 }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"zero cache", func(c *Config) { c.PrincipalCacheSize = 0 }},
		{"half a VAPID pair", func(c *Config) { c.VAPIDPublicKey = "pub" }},
		{"backup without passphrase", func(c *Config) { c.BackupS3Bucket = "b" }},
		{"bad backup schedule", func(c *Config) {
			c.BackupS3Bucket = "b"
			c.BackupPassphrase = "a long enough passphrase"
			c.BackupSchedule = "whenever"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mod(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
