package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CLIPVAULT_JWT_SECRET", "test-secret")
	t.Setenv("CLIPVAULT_ADMIN_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.App.Port)
	}
	if !cfg.App.IsDev() {
		t.Fatal("expected dev env by default")
	}
	if cfg.DB.Path != "data/clipvault.db" {
		t.Fatalf("unexpected db path %q", cfg.DB.Path)
	}
	if cfg.Blob.Dir != "data/blobs" {
		t.Fatalf("unexpected blob dir %q", cfg.Blob.Dir)
	}
	if cfg.Thumbnail.SeekSeconds != 1 {
		t.Fatalf("unexpected seek offset %v", cfg.Thumbnail.SeekSeconds)
	}
	if cfg.Thumbnail.Timeout != 30*time.Second {
		t.Fatalf("unexpected thumbnail timeout %v", cfg.Thumbnail.Timeout)
	}
	if cfg.Analysis.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected analysis model %q", cfg.Analysis.Model)
	}
	if cfg.Redis.URL != "" {
		t.Fatalf("expected redis disabled by default, got %q", cfg.Redis.URL)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CLIPVAULT_JWT_SECRET", "")
	t.Setenv("CLIPVAULT_ADMIN_PASSWORD_HASH", "hash")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when jwt secret missing")
	}
}

func TestLoadRejectsEmptyBlobDir(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLIPVAULT_BLOB_DIR", " ")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for blank blob dir")
	}
}

func TestLoadRejectsNegativeSeek(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLIPVAULT_THUMBNAIL_SEEK_SECONDS", "-2")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative seek offset")
	}
}

func TestIsProd(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLIPVAULT_APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatal("expected prod env")
	}
}
