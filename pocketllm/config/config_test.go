package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	for _, key := range []string{"LISTEN_ADDR", "CACHE_TTL_SECONDS", "CACHE_MAX_SIZE_BYTES", "TELEMETRY_CAPACITY", "LLM_MODEL", "ADMIN_USERS"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	if cfg.ListenAddr != ":8000" {
		t.Fatalf("default listen addr: %q", cfg.ListenAddr)
	}
	if cfg.CacheTTLSeconds != 1800 || cfg.CacheMaxSizeBytes != 4<<20 {
		t.Fatalf("default cache settings: %d, %d", cfg.CacheTTLSeconds, cfg.CacheMaxSizeBytes)
	}
	if cfg.TelemetryCapacity != 500 {
		t.Fatalf("default telemetry capacity: %d", cfg.TelemetryCapacity)
	}
	if cfg.LLMModel != "llama3:8b" {
		t.Fatalf("default model: %q", cfg.LLMModel)
	}
}

func TestLoadConfigYAMLAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen_addr: \":9000\"\ncache_ttl_seconds: 60\nadmin_users:\n  - prof\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("CACHE_TTL_SECONDS", "120")

	cfg := LoadConfig()
	// File overrides the built-in default.
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("yaml listen addr lost: %q", cfg.ListenAddr)
	}
	// Environment overrides the file.
	if cfg.CacheTTLSeconds != 120 {
		t.Fatalf("env should win over yaml, got %d", cfg.CacheTTLSeconds)
	}
	if len(cfg.AdminUsers) != 1 || cfg.AdminUsers[0] != "prof" {
		t.Fatalf("admin users from yaml: %+v", cfg.AdminUsers)
	}
}

func TestAdminListFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("ADMIN_USERS", "prof, ta1 ,,ta2")

	cfg := LoadConfig()
	if len(cfg.AdminUsers) != 3 {
		t.Fatalf("expected 3 admins, got %+v", cfg.AdminUsers)
	}
	if !cfg.IsAdminUser("PROF") {
		t.Fatal("admin match should be case-insensitive")
	}
	if cfg.IsAdminUser("student") {
		t.Fatal("non-admin matched")
	}
}
