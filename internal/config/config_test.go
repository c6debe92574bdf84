package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/padwatch")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", cfg.APIPort)
	}
	if cfg.MatchSince != 24*time.Hour {
		t.Errorf("MatchSince = %v, want 24h", cfg.MatchSince)
	}
	if cfg.CommuteCacheTTL != 24*time.Hour {
		t.Errorf("CommuteCacheTTL = %v, want 24h", cfg.CommuteCacheTTL)
	}
	if cfg.MaxPerAlert != 0 {
		t.Errorf("MaxPerAlert = %d, want 0 (unlimited)", cfg.MaxPerAlert)
	}
	if !cfg.MigrateOnStart {
		t.Error("MigrateOnStart should default to true")
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/padwatch")
	t.Setenv("API_PORT", "9001")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("MATCH_MAX_PER_ALERT", "5")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://padwatch.io, https://app.padwatch.io")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIPort != 9001 {
		t.Errorf("APIPort = %d, want 9001", cfg.APIPort)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction should be true")
	}
	if cfg.MaxPerAlert != 5 {
		t.Errorf("MaxPerAlert = %d, want 5", cfg.MaxPerAlert)
	}
	want := []string{"https://padwatch.io", "https://app.padwatch.io"}
	if len(cfg.CORSAllowOrigins) != len(want) {
		t.Fatalf("CORSAllowOrigins = %v, want %v", cfg.CORSAllowOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowOrigins[i] != want[i] {
			t.Errorf("CORSAllowOrigins[%d] = %q, want %q", i, cfg.CORSAllowOrigins[i], want[i])
		}
	}
}
