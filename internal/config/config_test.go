package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"campaigncal/internal/urgency"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != defaultListen || cfg.DefaultSize != "medium" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Urgency.Dashboard != urgency.Dashboard || cfg.Urgency.Deadlines != urgency.Deadlines {
		t.Fatalf("unexpected urgency defaults: %+v", cfg.Urgency)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 perms, got %v", info.Mode().Perm())
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
listen: ":9090"
default_assignee: Maija
default_size: huge
urgency:
  deadlines:
    urgent_days: 2
    soon_days: 10
  dashboard:
    urgent_days: 5
    soon_days: 1
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9090" || cfg.DefaultAssignee != "Maija" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.DefaultSize != "medium" {
		t.Fatalf("unknown size should fall back to medium, got %q", cfg.DefaultSize)
	}
	if cfg.DBPath != defaultDBPath || cfg.LogLevel != defaultLogLevel || cfg.ImportHorizonDays != defaultHorizon {
		t.Fatalf("missing keys should be defaulted: %+v", cfg)
	}
	d := cfg.Urgency.Deadlines
	if d.UrgentDays != 2 || d.SoonDays != 10 || d.Name != "deadlines" {
		t.Fatalf("deadlines profile not loaded: %+v", d)
	}
	if cfg.Urgency.Dashboard != urgency.Dashboard {
		t.Fatalf("inverted dashboard thresholds should fall back: %+v", cfg.Urgency.Dashboard)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("listen: [unclosed"), 0o600)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Helsinki"
	cfg.BasicAuth = &BasicAuthConfig{Username: "venue", Password: "secret"}
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Timezone != "Europe/Helsinki" || loaded.BasicAuth == nil || loaded.BasicAuth.Username != "venue" {
		t.Fatalf("round trip lost values: %+v", loaded)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestSaveErrors(t *testing.T) {
	if err := Save("", DefaultConfig()); err == nil {
		t.Fatal("expected error for empty path")
	}
	if err := Save(filepath.Join(t.TempDir(), "c.yaml"), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Location() != time.Local {
		t.Fatal("empty timezone should resolve to time.Local")
	}
	cfg.Timezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Fatal("unknown timezone should resolve to time.Local")
	}
	cfg.Timezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("got %s", cfg.Location())
	}
}
