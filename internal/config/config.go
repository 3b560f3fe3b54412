// Package config loads plantwatch settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"plantwatch/internal/auth"
	session "plantwatch/internal/session/domain"
	"plantwatch/internal/storage"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the process configuration.
type Config struct {
	HTTPAddr    string            `yaml:"http_addr"`
	Storage     StorageConfig     `yaml:"storage"`
	Auth        AuthConfig        `yaml:"auth"`
	Live        LiveConfig        `yaml:"live"`
	Log         LogConfig         `yaml:"log"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

// StorageConfig selects the durable store.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Table       string `yaml:"table"`
}

// AuthConfig holds token and account settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	DemoUsers  bool          `yaml:"demo_users"`
	Users      []UserConfig  `yaml:"users"`
}

// UserConfig is one login. Either Password or PasswordHash must be set;
// plain passwords are hashed at load.
type UserConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Role         string `yaml:"role"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// LiveConfig tunes the live-update loop.
type LiveConfig struct {
	Policy   string        `yaml:"policy"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig tunes the logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// PersistenceConfig maps to storage.Policy.
type PersistenceConfig struct {
	FailOnCorrupt   bool `yaml:"fail_on_corrupt"`
	FailOnSaveError bool `yaml:"fail_on_save_error"`
}

// Policy returns the store failure policy.
func (p PersistenceConfig) Policy() storage.Policy {
	return storage.Policy{FailOnCorrupt: p.FailOnCorrupt, FailOnSaveError: p.FailOnSaveError}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: filepath.FromSlash("var/plantwatch.db"),
			Table:      "dashboard_state",
		},
		Auth: AuthConfig{
			SessionTTL: 8 * time.Hour,
			DemoUsers:  true,
		},
		Live: LiveConfig{
			Policy:   "all",
			Interval: 3 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (or PLANTWATCH_CONFIG when path is empty) over the
// defaults, then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("PLANTWATCH_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Storage.Driver = getenvDefault("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.SQLitePath = getenvDefault("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.PostgresDSN = getenvDefault("PG_DSN", cfg.Storage.PostgresDSN)
	cfg.Auth.JWTSecret = getenvDefault("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.SessionTTL = getenvDuration("SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Auth.DemoUsers = getenvBool("AUTH_DEMO_USERS", cfg.Auth.DemoUsers)
	cfg.Live.Policy = getenvDefault("LIVE_POLICY", cfg.Live.Policy)
	cfg.Live.Interval = getenvDuration("LIVE_INTERVAL", cfg.Live.Interval)
	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Persistence.FailOnCorrupt = getenvBool("PERSIST_FAIL_ON_CORRUPT", cfg.Persistence.FailOnCorrupt)
	cfg.Persistence.FailOnSaveError = getenvBool("PERSIST_FAIL_ON_SAVE_ERROR", cfg.Persistence.FailOnSaveError)
}

// Validate checks settings that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("config: sqlite_path required for sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("config: postgres_dsn (PG_DSN) required for postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Table != "" && !storage.ValidTableName(c.Storage.Table) {
		return fmt.Errorf("config: storage.table %q must match [a-z_][a-z0-9_]*", c.Storage.Table)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret (AUTH_JWT_SECRET) is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("config: auth.session_ttl must be positive")
	}
	if c.Live.Interval <= 0 {
		return errors.New("config: live.interval must be positive")
	}
	if len(c.Auth.Users) == 0 && !c.Auth.DemoUsers {
		return errors.New("config: no users configured")
	}
	for _, u := range c.Auth.Users {
		if u.Email == "" {
			return errors.New("config: user email required")
		}
		if _, ok := auth.NormalizeRole(u.Role); !ok {
			return fmt.Errorf("config: user %s has invalid role %q", u.Email, u.Role)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("config: user %s needs password or password_hash", u.Email)
		}
	}
	return nil
}

// DemoPassword is the password of the built-in demo accounts.
const DemoPassword = "plantwatch"

func demoUsers() []UserConfig {
	out := make([]UserConfig, 0, len(auth.Roles))
	for _, role := range auth.Roles {
		name := string(role)
		out = append(out, UserConfig{
			ID:       "demo-" + name,
			Name:     "Demo " + strings.ToUpper(name[:1]) + name[1:],
			Email:    name + "@plantwatch.local",
			Role:     name,
			Password: DemoPassword,
		})
	}
	return out
}

// Accounts resolves configured users (plus demo users when enabled) into
// session accounts, hashing plain passwords with cost.
func (c Config) Accounts(cost int) ([]session.Account, error) {
	users := append([]UserConfig(nil), c.Auth.Users...)
	if c.Auth.DemoUsers {
		users = append(users, demoUsers()...)
	}
	out := make([]session.Account, 0, len(users))
	for _, u := range users {
		id := u.ID
		if id == "" {
			id = session.NormalizeEmail(u.Email)
		}
		hash := []byte(u.PasswordHash)
		if len(hash) == 0 {
			var err error
			hash, err = bcrypt.GenerateFromPassword([]byte(u.Password), cost)
			if err != nil {
				return nil, fmt.Errorf("config: hash password for %s: %w", u.Email, err)
			}
		}
		out = append(out, session.Account{
			User: session.User{
				ID:    id,
				Name:  u.Name,
				Email: session.NormalizeEmail(u.Email),
				Role:  u.Role,
			},
			PasswordHash: hash,
		})
	}
	return out, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
