package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestLoadAppliesEnvOverridesAndDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://override:pw@db:5432/ratings?sslmode=disable")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ADMIN_TOKEN", "secret-token")

	cfgPath := writeConfig(t, `
port: "8090"
logLevel: "info"
databaseURL: "postgres://file:pw@localhost:5432/ratings?sslmode=disable"
salebotGroupID: "rating_bot"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseURL != "postgres://override:pw@db:5432/ratings?sslmode=disable" {
		t.Fatalf("databaseURL = %q, want env override", cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("redisAddr = %q, want env override", cfg.RedisAddr)
	}
	if cfg.AdminToken != "secret-token" {
		t.Fatalf("adminToken = %q, want env override", cfg.AdminToken)
	}
	if cfg.SalebotBaseURL != "https://chatter.salebot.pro" {
		t.Fatalf("salebotBaseURL = %q, want default", cfg.SalebotBaseURL)
	}
	if cfg.RateLimit.Limit != 60 || cfg.RateLimit.WindowSeconds != 60 {
		t.Fatalf("rate limit defaults not applied: %+v", cfg.RateLimit)
	}
}

func TestLoadRequiresPort(t *testing.T) {
	cfgPath := writeConfig(t, `
logLevel: "info"
databaseURL: "postgres://user:pw@localhost:5432/ratings"
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected error for missing port")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	// Make sure the env override can't satisfy the requirement.
	t.Setenv("DATABASE_URL", "")
	cfgPath := writeConfig(t, `
port: "8090"
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected error for missing databaseURL")
	}
}
