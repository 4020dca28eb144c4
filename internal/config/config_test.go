package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
auth:
  jwt_access_ttl: 20m
forum:
  default_page_size: 25
  flags_per_minute: 3
  stats_cache_ttl: 45s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.JWTAccessTTL.String() != "20m0s" {
		t.Fatalf("unexpected jwt access ttl: %s", cfg.Auth.JWTAccessTTL)
	}
	if cfg.Forum.DefaultPageSize != 25 {
		t.Fatalf("unexpected default page size: %d", cfg.Forum.DefaultPageSize)
	}
	if cfg.Forum.FlagsPerMinute != 3 {
		t.Fatalf("unexpected flags/minute: %d", cfg.Forum.FlagsPerMinute)
	}
	if cfg.Forum.StatsCacheTTL.String() != "45s" {
		t.Fatalf("unexpected stats cache ttl: %s", cfg.Forum.StatsCacheTTL)
	}

	if cfg.Forum.MaxPageSize != 100 {
		t.Fatalf("max_page_size default should stay 100")
	}
	if cfg.Forum.MaxRestrictionDays != 365 {
		t.Fatalf("max_restriction_days default should stay 365")
	}
	if cfg.HTTP.ReadTimeout.String() != "5s" {
		t.Fatalf("read_timeout default should stay 5s")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Forum.DefaultPageSize != 20 || cfg.Forum.MaxPageSize != 100 {
		t.Fatalf("unexpected page size defaults: %d/%d", cfg.Forum.DefaultPageSize, cfg.Forum.MaxPageSize)
	}
	if cfg.Forum.MaxRestrictionDays != 365 {
		t.Fatalf("unexpected max restriction days default: %d", cfg.Forum.MaxRestrictionDays)
	}
	if cfg.Auth.SessionIdleTimeout.String() != "30m0s" {
		t.Fatalf("unexpected session idle timeout default: %s", cfg.Auth.SessionIdleTimeout)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("FORUM_FLAGS_PER_MINUTE", "9")
	t.Setenv("JWT_ACCESS_TTL", "1h")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env override for http addr not applied: %s", cfg.HTTP.Addr)
	}
	if cfg.Forum.FlagsPerMinute != 9 {
		t.Fatalf("env override for flags/minute not applied: %d", cfg.Forum.FlagsPerMinute)
	}
	if cfg.Auth.JWTAccessTTL.String() != "1h0m0s" {
		t.Fatalf("env override for jwt access ttl not applied: %s", cfg.Auth.JWTAccessTTL)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"SESSION_IDLE_TIMEOUT",
		"FORUM_DEFAULT_PAGE_SIZE",
		"FORUM_MAX_PAGE_SIZE",
		"FORUM_MAX_RESTRICTION_DAYS",
		"FORUM_FLAGS_PER_MINUTE",
		"FORUM_STATS_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}
