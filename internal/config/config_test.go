package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost:5432/timmipay")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":8181" {
		t.Fatalf("addr = %s, want :8181", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 600*time.Second {
		t.Fatalf("ttl = %s, want 600s", cfg.SessionTTL)
	}
	if cfg.SessionRotateOnHold {
		t.Fatal("rotation on by default")
	}
	if cfg.TransferRetries != 3 {
		t.Fatalf("retries = %d, want 3", cfg.TransferRetries)
	}
	if cfg.HistoryPageSize != 20 {
		t.Fatalf("page size = %d, want 20", cfg.HistoryPageSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost:5432/timmipay")
	t.Setenv("RUN_ADDRESS", ":9090")
	t.Setenv("SESSION_TTL", "2m")
	t.Setenv("SESSION_ROTATE_ON_HOLD", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("addr = %s, want :9090", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 2*time.Minute {
		t.Fatalf("ttl = %s, want 2m", cfg.SessionTTL)
	}
	if !cfg.SessionRotateOnHold {
		t.Fatal("rotation override ignored")
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DATABASE_URI", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URI")
	}
}
