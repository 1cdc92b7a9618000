package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEffectiveSessionTTL(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{0, 3 * time.Hour},
		{time.Hour, time.Hour},
		{24 * time.Hour, 12 * time.Hour},
	}
	for _, tc := range tests {
		cfg := &AppConfig{SessionTTL: tc.ttl}
		if got := cfg.EffectiveSessionTTL(); got != tc.want {
			t.Errorf("ttl %v: got %v, want %v", tc.ttl, got, tc.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	raw := `
db_driver: sqlite
db_url: /tmp/app.db
listen_addr: 127.0.0.1:9090
cases:
  number_prefix: INV
reports:
  refresh_spec: "@every 10m"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9090" {
		t.Fatalf("listen_addr = %s", cfg.ListenAddr)
	}
	if cfg.Cases.NumberPrefix != "INV" {
		t.Fatalf("number_prefix = %s", cfg.Cases.NumberPrefix)
	}
	if cfg.Reports.RefreshSpec != "@every 10m" {
		t.Fatalf("refresh_spec = %s", cfg.Reports.RefreshSpec)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.Cases.NumberPrefix != "CASE" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Reports.RefreshSpec != "@every 5m" {
		t.Fatalf("refresh_spec = %s", cfg.Reports.RefreshSpec)
	}
}
