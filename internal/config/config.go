package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"campaigncal/internal/catalog"
	appLog "campaigncal/internal/log"
	"campaigncal/internal/urgency"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// UrgencyConfig holds the day thresholds of the two urgency profiles.
type UrgencyConfig struct {
	// Dashboard is applied to the weekly board.
	Dashboard urgency.Profile `yaml:"dashboard" json:"dashboard"`
	// Deadlines is applied to the upcoming deadline list.
	Deadlines urgency.Profile `yaml:"deadlines" json:"deadlines"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone whose calendar days the venue works in
	// (e.g. "Europe/Helsinki"). Empty keeps the process zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" json:"db_path"`

	// ICSCacheDir holds cached bodies of imported calendar feeds.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// ImportHorizonDays is how many days ahead of today an import keeps
	// recurring and one-off calendar entries.
	ImportHorizonDays int `yaml:"import_horizon_days" json:"import_horizon_days"`

	// DigestCron is a standard 5-field cron spec for the deadline digest.
	// An empty value disables the scheduled digest.
	DigestCron string `yaml:"digest" json:"digest"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DefaultAssignee is put on generated tasks when the request names none.
	DefaultAssignee string `yaml:"default_assignee" json:"default_assignee"`

	// DefaultSize is the tier used when an event is created without an
	// explicit template selection.
	DefaultSize string `yaml:"default_size" json:"default_size"`

	Urgency UrgencyConfig `yaml:"urgency" json:"urgency"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen     = "127.0.0.1:8080"
	defaultDBPath     = "./var/campaigncal.db"
	defaultICSCache   = "./var/ics-cache"
	defaultHorizon    = 365
	defaultDigestCron = "0 8 * * 1-5"
	defaultLogLevel   = "info"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Listen:            defaultListen,
		DBPath:            defaultDBPath,
		ICSCacheDir:       defaultICSCache,
		ImportHorizonDays: defaultHorizon,
		DigestCron:        defaultDigestCron,
		LogLevel:          defaultLogLevel,
		DefaultSize:       string(catalog.SizeMedium),
		Urgency: UrgencyConfig{
			Dashboard: urgency.Dashboard,
			Deadlines: urgency.Deadlines,
		},
	}
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = defaultICSCache
	}
	if c.ImportHorizonDays <= 0 {
		c.ImportHorizonDays = defaultHorizon
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if _, err := catalog.ParseSize(c.DefaultSize); err != nil {
		c.DefaultSize = string(catalog.SizeMedium)
	}

	c.Urgency.Dashboard = normalizeProfile(c.Urgency.Dashboard, urgency.Dashboard)
	c.Urgency.Deadlines = normalizeProfile(c.Urgency.Deadlines, urgency.Deadlines)
}

// normalizeProfile keeps the configured thresholds unless they are unset or
// inverted, in which case the built-in profile is used.
func normalizeProfile(p, def urgency.Profile) urgency.Profile {
	if p.UrgentDays == 0 && p.SoonDays == 0 {
		return def
	}
	if p.UrgentDays < 0 || p.SoonDays < p.UrgentDays {
		return def
	}
	p.Name = def.Name
	return p
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path through a temp
// file in the same directory and a rename, leaving it with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".campaigncal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
