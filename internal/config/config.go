// ABOUTME: Configuration loading and parsing for cms-toolbar
// ABOUTME: Supports YAML or TOML files with environment variable expansion and overrides

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the complete cms-toolbar configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" toml:"database" envPrefix:"DATABASE_"`
	Session  SessionConfig  `yaml:"session" toml:"session" envPrefix:"SESSION_"`
	I18N     I18NConfig     `yaml:"i18n" toml:"i18n" envPrefix:"I18N_"`
	Toolbar  ToolbarConfig  `yaml:"toolbar" toml:"toolbar" envPrefix:"TOOLBAR_"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging" envPrefix:"LOGGING_"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics" envPrefix:"METRICS_"`
	Tracing  TracingConfig  `yaml:"tracing" toml:"tracing" envPrefix:"TRACING_"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr" env:"HTTP_ADDR"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path" env:"PATH"`
}

// SessionConfig holds browser session configuration
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" toml:"cookie_name" env:"COOKIE_NAME"`
	Duration   time.Duration `yaml:"-" toml:"-" env:"DURATION"`

	// Raw string value for YAML/TOML unmarshaling
	DurationRaw string `yaml:"duration" toml:"duration"`
}

// I18NConfig holds language configuration. With UseI18N off every request is
// served in LanguageCode.
type I18NConfig struct {
	UseI18N      bool     `yaml:"use_i18n" toml:"use_i18n" env:"USE_I18N"`
	LanguageCode string   `yaml:"language_code" toml:"language_code" env:"LANGUAGE_CODE"`
	Languages    []string `yaml:"languages" toml:"languages" env:"LANGUAGES" envSeparator:","`
}

// ToolbarConfig holds toolbar behaviour configuration
type ToolbarConfig struct {
	// Enabled restricts and orders the registered sub-toolbars. Empty means all.
	Enabled []string `yaml:"enabled" toml:"enabled" env:"ENABLED" envSeparator:","`

	EditOnParam  string `yaml:"edit_on_param" toml:"edit_on_param" env:"EDIT_ON_PARAM"`
	EditOffParam string `yaml:"edit_off_param" toml:"edit_off_param" env:"EDIT_OFF_PARAM"`
	BuildParam   string `yaml:"build_param" toml:"build_param" env:"BUILD_PARAM"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" env:"LEVEL"`
	Format string `yaml:"format" toml:"format" env:"FORMAT"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" toml:"path" env:"PATH"`
}

// TracingConfig selects the span exporter. "none" keeps the no-op global tracer.
type TracingConfig struct {
	Exporter string `yaml:"exporter" toml:"exporter" env:"EXPORTER"`
}

// EnvPrefix is the prefix of environment variables that override file values.
const EnvPrefix = "CMS_TOOLBAR_"

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded, then
// CMS_TOOLBAR_* variables override individual fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Defaults()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config filled with the values used when a field is omitted.
func Defaults() *Config {
	return &Config{
		Server:   ServerConfig{HTTPAddr: "127.0.0.1:8000"},
		Database: DatabaseConfig{Path: "cms-toolbar.db"},
		Session: SessionConfig{
			CookieName: "cms_session",
			Duration:   14 * 24 * time.Hour,
		},
		I18N: I18NConfig{
			UseI18N:      true,
			LanguageCode: "en",
			Languages:    []string{"en"},
		},
		Toolbar: ToolbarConfig{
			EditOnParam:  "edit",
			EditOffParam: "edit_off",
			BuildParam:   "build",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Path: "/metrics"},
		Tracing: TracingConfig{Exporter: "none"},
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}

	if c.Session.Duration <= 0 {
		return fmt.Errorf("session.duration must be positive")
	}

	if c.I18N.LanguageCode == "" {
		return fmt.Errorf("i18n.language_code is required")
	}

	if c.I18N.UseI18N && !contains(c.I18N.Languages, c.I18N.LanguageCode) {
		return fmt.Errorf("i18n.language_code %q must be listed in i18n.languages", c.I18N.LanguageCode)
	}

	if c.Toolbar.EditOnParam == "" || c.Toolbar.EditOffParam == "" || c.Toolbar.BuildParam == "" {
		return fmt.Errorf("toolbar edit/build parameters must not be empty")
	}

	seen := make(map[string]bool, len(c.Toolbar.Enabled))
	for _, key := range c.Toolbar.Enabled {
		if seen[key] {
			return fmt.Errorf("toolbar.enabled lists %q twice", key)
		}
		seen[key] = true
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	switch c.Tracing.Exporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("tracing.exporter must be none or stdout, got %q", c.Tracing.Exporter)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Session.DurationRaw != "" {
		d, err := time.ParseDuration(cfg.Session.DurationRaw)
		if err != nil {
			return fmt.Errorf("parsing session duration %q: %w", cfg.Session.DurationRaw, err)
		}
		cfg.Session.Duration = d
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
