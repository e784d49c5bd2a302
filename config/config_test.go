package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"ADDR", "DAYS_BACK", "STORES_FILE", "HEALTH_API_URL", "HEALTH_API_KEY",
		"HEALTH_API_TIMEOUT", "SUPABASE_JWT_SECRET", "SUPABASE_JWT_AUDIENCE", "CORS_ORIGINS", "DEBUG", "MAX_BODY_MB"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DaysBack != 7 {
		t.Errorf("expected default days back 7, got %d", cfg.DaysBack)
	}
	if cfg.Addr != ":8080" || cfg.StoresFile != "stores.json" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.HealthAPI.Timeout != 30*time.Second {
		t.Errorf("unexpected timeout %s", cfg.HealthAPI.Timeout)
	}
	if cfg.Auth.Audience != "authenticated" {
		t.Errorf("unexpected audience %q", cfg.Auth.Audience)
	}
	if cfg.MaxBodyBytes() != 32<<20 {
		t.Errorf("unexpected body limit %d", cfg.MaxBodyBytes())
	}
}

func TestLoadPriority(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
addr: ":9000"
days_back: 14
health_api:
  base_url: https://health.example.com
  timeout: 5s
auth:
  jwt_secret: from-file
cors_origins:
  - https://app.example.com
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"-config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.DaysBack != 14 || cfg.HealthAPI.BaseURL != "https://health.example.com" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.HealthAPI.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.HealthAPI.Timeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}

	t.Setenv("DAYS_BACK", "3")
	t.Setenv("SUPABASE_JWT_SECRET", "from-env")
	cfg, err = Load([]string{"-config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DaysBack != 3 {
		t.Errorf("expected env DAYS_BACK 3, got %d", cfg.DaysBack)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("expected env secret, got %q", cfg.Auth.JWTSecret)
	}

	cfg, err = Load([]string{"-config", path, "-days-back", "2", "-addr", ":7000"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DaysBack != 2 || cfg.Addr != ":7000" {
		t.Errorf("flags should win, got days=%d addr=%s", cfg.DaysBack, cfg.Addr)
	}
}

func TestLoadInvalidDaysBack(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	for _, value := range []string{"seven", "0", "-1"} {
		clearEnv(t)
		t.Setenv("DAYS_BACK", value)
		if _, err := Load([]string{"-config", missing}); err == nil {
			t.Errorf("DAYS_BACK=%q: expected an error", value)
		}
	}
}

func TestLoadEnvironmentLists(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"CORS_ORIGINS":       "https://a.example.com, https://b.example.com,",
		"HEALTH_API_TIMEOUT": "750ms",
		"DEBUG":              "true",
	}
	err := cfg.loadEnvironment(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("loadEnvironment: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.HealthAPI.Timeout != 750*time.Millisecond || !cfg.Debug {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadMaxBody(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	t.Setenv("MAX_BODY_MB", "256")
	cfg, err := Load([]string{"-config", missing})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxBodyBytes() != 256<<20 {
		t.Errorf("expected 256 MiB from env, got %d", cfg.MaxBodyBytes())
	}

	cfg, err = Load([]string{"-config", missing, "-max-body-mb", "64"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxBodyMB != 64 {
		t.Errorf("expected flag to win, got %d", cfg.MaxBodyMB)
	}

	for _, value := range []string{"0", "lots"} {
		t.Setenv("MAX_BODY_MB", value)
		if _, err := Load([]string{"-config", missing}); err == nil {
			t.Errorf("MAX_BODY_MB=%q: expected an error", value)
		}
	}
}
