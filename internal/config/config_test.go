package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databasePathEnv, "")
	t.Setenv(feedBaseURLEnv, "")
	t.Setenv(downloadDirEnv, "")
	t.Setenv(logLevelEnv, "")

	cfg := Load()

	if cfg.Database.Path != defaultDBPath {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Feed.BaseURL != defaultFeedURL {
		t.Fatalf("unexpected feed url: %s", cfg.Feed.BaseURL)
	}
	if len(cfg.Feed.AllowedWindows) != 2 {
		t.Fatalf("expected 2 availability windows, got %d", len(cfg.Feed.AllowedWindows))
	}
	if cfg.Scheduler.Location().String() != defaultTimezone {
		t.Fatalf("unexpected timezone: %s", cfg.Scheduler.Location())
	}
	if len(cfg.Departments) == 0 {
		t.Fatal("expected at least one default department")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /var/lib/egp/scanner.sqlite
feed:
  timeoutSeconds: 10
scheduler:
  cronExpression: "30 6 * * *"
departments:
  - id: "0703"
    name: "Department of Fisheries"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Database.Path != "/var/lib/egp/scanner.sqlite" {
		t.Fatalf("file override lost: %s", cfg.Database.Path)
	}
	if cfg.Feed.TimeoutSeconds != 10 {
		t.Fatalf("file override lost: %d", cfg.Feed.TimeoutSeconds)
	}
	if cfg.Scheduler.CronExpression != "30 6 * * *" {
		t.Fatalf("file override lost: %s", cfg.Scheduler.CronExpression)
	}
	// Settings the file omits keep their defaults.
	if cfg.Feed.BaseURL != defaultFeedURL {
		t.Fatalf("default lost on merge: %s", cfg.Feed.BaseURL)
	}
	if len(cfg.Departments) != 1 || cfg.Departments[0].ID != "0703" {
		t.Fatalf("department list not replaced: %+v", cfg.Departments)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /from/file.sqlite
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databasePathEnv, "/from/env.sqlite")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load()

	if cfg.Database.Path != "/from/env.sqlite" {
		t.Fatalf("env override lost: %s", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("env override lost: %s", cfg.Logging.Level)
	}
}

func TestLoadUnknownTimezoneFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scheduler:
  timezone: Not/AZone
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Scheduler.Location().String() != defaultTimezone {
		t.Fatalf("expected fallback timezone, got %s", cfg.Scheduler.Location())
	}
}
