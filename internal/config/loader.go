package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite"
)

// Default values for configuration fields.
const (
	DefaultPath          = "docker-sqlite.yml"
	DefaultDatabasePath  = "./data/database.sqlite"
	DefaultMigrationsDir = "./migrations"
	DefaultBusyTimeout   = 5 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "DOCKER_SQLITE_"

// Config captures the settings shared by every command.
type Config struct {
	DatabasePath  string
	MigrationsDir string
	WorkDir       string
	ForeignKeys   bool
	BusyTimeout   time.Duration
	LogLevel      string
	LogFormat     string
}

// yamlConfig is the raw file representation with string durations.
type yamlConfig struct {
	DatabasePath  string `yaml:"database_path"`
	MigrationsDir string `yaml:"migrations_dir"`
	WorkDir       string `yaml:"work_dir"`
	ForeignKeys   *bool  `yaml:"foreign_keys"`
	BusyTimeout   string `yaml:"busy_timeout"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		DatabasePath:  DefaultDatabasePath,
		MigrationsDir: DefaultMigrationsDir,
		ForeignKeys:   true,
		BusyTimeout:   DefaultBusyTimeout,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw file representation to a Config with defaults
// applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	if raw.DatabasePath != "" {
		cfg.DatabasePath = raw.DatabasePath
	}
	if raw.MigrationsDir != "" {
		cfg.MigrationsDir = raw.MigrationsDir
	}
	if raw.WorkDir != "" {
		cfg.WorkDir = raw.WorkDir
	}
	if raw.ForeignKeys != nil {
		cfg.ForeignKeys = *raw.ForeignKeys
	}
	if raw.BusyTimeout != "" {
		d, err := time.ParseDuration(raw.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing busy_timeout %q: %w", raw.BusyTimeout, err)
		}
		cfg.BusyTimeout = d
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	if raw.LogFormat != "" {
		cfg.LogFormat = raw.LogFormat
	}

	return cfg, nil
}

// MergeEnv overrides config fields from DOCKER_SQLITE_* environment
// variables. Every malformed variable is reported in one error.
func MergeEnv(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if v := env("DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := env("MIGRATIONS_DIR"); v != "" {
		cfg.MigrationsDir = v
	}
	if v := env("WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}
	if v := env("FOREIGN_KEYS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, EnvPrefix+"FOREIGN_KEYS")
		} else {
			cfg.ForeignKeys = enabled
		}
	}
	if v := env("BUSY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			invalid = append(invalid, EnvPrefix+"BUSY_TIMEOUT")
		} else {
			cfg.BusyTimeout = d
		}
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

// Validate reports every field holding an unusable value.
func (c *Config) Validate() error {
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 3)

	if strings.TrimSpace(c.DatabasePath) == "" {
		missing = append(missing, "database_path")
	}
	if c.BusyTimeout < 0 {
		invalid = append(invalid, "busy_timeout")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "log_level")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		invalid = append(invalid, "log_format")
	}

	if len(missing) > 0 {
		return fmt.Errorf("required settings are missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("settings have invalid values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// SQLite returns the engine configuration for the configured database.
func (c *Config) SQLite() sqlite.Config {
	cfg := sqlite.DefaultConfig(c.DatabasePath)
	cfg.WorkDir = c.WorkDir
	cfg.EnableForeignKeys = c.ForeignKeys
	cfg.BusyTimeout = c.BusyTimeout
	return cfg
}
