package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/mindjournal/internal/store"
)

// Environment variables that override the backend connection values.
const (
	EnvBackendURL = "MINDJOURNAL_BACKEND_URL"
	EnvAccessKey  = "MINDJOURNAL_ACCESS_KEY"
)

const (
	defaultListen           = "127.0.0.1:8787"
	defaultSessionTTLHours  = 168
	defaultMaxFailed        = 5
	defaultLockoutSeconds   = 60
	defaultReminderSchedule = "@every 1m"
)

type SessionConfig struct {
	// Persist keeps the signed-in session in the OS keyring between runs.
	Persist  bool `yaml:"persist"`
	TTLHours int  `yaml:"ttl_hours"`
}

type AuthConfig struct {
	// RequireConfirmation rejects sign-in until the email is confirmed.
	RequireConfirmation bool `yaml:"require_confirmation"`
	MaxFailedAttempts   int  `yaml:"max_failed_attempts"`
	LockoutSeconds      int  `yaml:"lockout_seconds"`
}

type RemindersConfig struct {
	Enabled bool `yaml:"enabled"`
	// Schedule is a robfig/cron spec, e.g. "@every 1m" or "*/5 * * * *".
	Schedule string `yaml:"schedule"`
}

type Config struct {
	// BackendURL selects the data backend: postgres:// for PostgreSQL,
	// anything else is a SQLite path.
	BackendURL string `yaml:"backend_url"`
	// AccessKey is the backend password and the session signing key.
	AccessKey string `yaml:"access_key"`

	Listen    string          `yaml:"listen"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	Reminders RemindersConfig `yaml:"reminders"`
	ExportDir string          `yaml:"export_dir"`
}

// DefaultPath returns ~/.config/mindjournal/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mindjournal", "config.yaml"), nil
}

// Default returns the configuration written on first run. The backend URL
// points at a SQLite file next to the config; the access key is left empty
// so the app starts disconnected until one is set.
func Default() *Config {
	c := &Config{
		Session:   SessionConfig{Persist: true},
		Reminders: RemindersConfig{Enabled: true},
	}
	if path, err := store.DefaultDBPath(); err == nil {
		c.BackendURL = path
	}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = defaultSessionTTLHours
	}
	if c.Auth.MaxFailedAttempts <= 0 {
		c.Auth.MaxFailedAttempts = defaultMaxFailed
	}
	if c.Auth.LockoutSeconds <= 0 {
		c.Auth.LockoutSeconds = defaultLockoutSeconds
	}
	if c.Reminders.Schedule == "" {
		c.Reminders.Schedule = defaultReminderSchedule
	}
	if c.ExportDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.ExportDir = home
		}
	}
}

// ApplyEnv overrides the backend values from the environment when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv(EnvAccessKey); v != "" {
		c.AccessKey = v
	}
}

// Connected reports whether both backend values are present. Without them
// sign in and sign up are refused.
func (c *Config) Connected() bool {
	return c.BackendURL != "" && c.AccessKey != ""
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.Auth.LockoutSeconds) * time.Second
}

// Load reads the YAML file at path, creating it with defaults on first run,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		cfg.ApplyEnv()
		return cfg, nil
	}

	// Keys absent from the file keep their first-run values.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".mindjournal-config-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
