package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planner.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PLANNER_SEED", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != SourceCSV {
		t.Fatalf("source = %q, want %q", cfg.Source, SourceCSV)
	}
	if len(cfg.Fleet.Capacities) != len(DefaultCapacities) {
		t.Fatalf("capacities = %v, want %v", cfg.Fleet.Capacities, DefaultCapacities)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PLANNER_SEED", "")

	path := writeConfig(t, `
instance: instance1
source: postgres
fleet:
  capacities: [15, 15, 30]
search:
  max_attempts: 50
  max_permutations: 720
  seed: 7
postgres:
  database_url: postgres://planner@localhost/sbrp
redis:
  url: redis://localhost:6379/0
  ttl: 1h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Instance != "instance1" || cfg.Source != SourcePostgres {
		t.Fatalf("instance/source = %q/%q", cfg.Instance, cfg.Source)
	}
	if got := cfg.Fleet.Capacities; len(got) != 3 || got[2] != 30 {
		t.Fatalf("capacities = %v, want [15 15 30]", got)
	}
	if cfg.Search.MaxAttempts != 50 || cfg.Search.MaxPermutations != 720 || cfg.Search.Seed != 7 {
		t.Fatalf("search = %+v", cfg.Search)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Fatalf("redis ttl = %v, want 1h", cfg.Redis.TTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@db/sbrp")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("PLANNER_SEED", "42")

	cfg, err := Load(writeConfig(t, "source: postgres\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Postgres.DatabaseURL != "postgres://env@db/sbrp" {
		t.Fatalf("database url = %q", cfg.Postgres.DatabaseURL)
	}
	if cfg.Redis.URL != "redis://cache:6379/1" {
		t.Fatalf("redis url = %q", cfg.Redis.URL)
	}
	if cfg.Search.Seed != 42 {
		t.Fatalf("seed = %d, want 42", cfg.Search.Seed)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PLANNER_SEED", "")

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown source", body: "source: ftp\n"},
		{name: "zero capacity", body: "fleet:\n  capacities: [10, 0]\n"},
		{name: "empty fleet", body: "fleet:\n  capacities: []\n"},
		{name: "negative attempts", body: "search:\n  max_attempts: -1\n"},
		{name: "postgres without url", body: "source: postgres\n"},
		{name: "csv without dir", body: "csv_dir: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadRejectsBadSeed(t *testing.T) {
	t.Setenv("PLANNER_SEED", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for non-numeric seed")
	}
}

func TestGet(t *testing.T) {
	t.Setenv("SBRP_TEST_KEY", "  ")
	if got := Get("SBRP_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("Get = %q, want fallback", got)
	}
	t.Setenv("SBRP_TEST_KEY", "value")
	if got := Get("SBRP_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("Get = %q, want value", got)
	}
}
