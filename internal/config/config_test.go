// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, overrides and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

session:
  cookie_name: "sid"
  duration: "12h"

i18n:
  use_i18n: true
  language_code: "de"
  languages: ["en", "de"]

toolbar:
  enabled:
    - "cms.cms_toolbar.BasicToolbar"
    - "blog.cms_toolbar.BlogToolbar"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Session.CookieName != "sid" {
		t.Errorf("Session.CookieName = %q, want %q", cfg.Session.CookieName, "sid")
	}
	if cfg.Session.Duration != 12*time.Hour {
		t.Errorf("Session.Duration = %v, want %v", cfg.Session.Duration, 12*time.Hour)
	}
	if cfg.I18N.LanguageCode != "de" || len(cfg.I18N.Languages) != 2 {
		t.Errorf("I18N = %+v, want language_code de with 2 languages", cfg.I18N)
	}
	if len(cfg.Toolbar.Enabled) != 2 || cfg.Toolbar.Enabled[1] != "blog.cms_toolbar.BlogToolbar" {
		t.Errorf("Toolbar.Enabled = %v", cfg.Toolbar.Enabled)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_DefaultsFillOmittedFields(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8000" {
		t.Errorf("Server.HTTPAddr = %q, want default", cfg.Server.HTTPAddr)
	}
	if cfg.Session.Duration != 14*24*time.Hour {
		t.Errorf("Session.Duration = %v, want 336h", cfg.Session.Duration)
	}
	if cfg.Toolbar.EditOnParam != "edit" || cfg.Toolbar.EditOffParam != "edit_off" || cfg.Toolbar.BuildParam != "build" {
		t.Errorf("Toolbar params = %+v", cfg.Toolbar)
	}
	if !cfg.I18N.UseI18N || cfg.I18N.LanguageCode != "en" {
		t.Errorf("I18N = %+v", cfg.I18N)
	}
	if cfg.Tracing.Exporter != "none" {
		t.Errorf("Tracing.Exporter = %q, want none", cfg.Tracing.Exporter)
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[server]
http_addr = "0.0.0.0:9000"

[database]
path = "/tmp/toolbar.db"

[session]
duration = "1h"

[i18n]
use_i18n = false
language_code = "fr"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("Server.HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Session.Duration != time.Hour {
		t.Errorf("Session.Duration = %v, want 1h", cfg.Session.Duration)
	}
	if cfg.I18N.UseI18N {
		t.Error("I18N.UseI18N = true, want false")
	}
	if cfg.I18N.LanguageCode != "fr" {
		t.Errorf("I18N.LanguageCode = %q, want fr", cfg.I18N.LanguageCode)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_TOOLBAR_DB", "/data/from-env.db")

	configPath := writeConfig(t, "config.yaml", `
database:
  path: "${TEST_TOOLBAR_DB}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/data/from-env.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/data/from-env.db")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CMS_TOOLBAR_SERVER_HTTP_ADDR", "0.0.0.0:7000")
	t.Setenv("CMS_TOOLBAR_I18N_LANGUAGES", "en,de,fr")
	t.Setenv("CMS_TOOLBAR_TOOLBAR_ENABLED", "a.b.C,d.e.F")
	t.Setenv("CMS_TOOLBAR_SESSION_DURATION", "30m")

	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr: "127.0.0.1:1"
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:7000" {
		t.Errorf("Server.HTTPAddr = %q, want override", cfg.Server.HTTPAddr)
	}
	if strings.Join(cfg.I18N.Languages, ",") != "en,de,fr" {
		t.Errorf("I18N.Languages = %v", cfg.I18N.Languages)
	}
	if strings.Join(cfg.Toolbar.Enabled, ",") != "a.b.C,d.e.F" {
		t.Errorf("Toolbar.Enabled = %v", cfg.Toolbar.Enabled)
	}
	if cfg.Session.Duration != 30*time.Minute {
		t.Errorf("Session.Duration = %v, want 30m", cfg.Session.Duration)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid duration",
			content: "session:\n  duration: \"forever\"\n",
			wantErr: "parsing durations",
		},
		{
			name:    "language not listed",
			content: "i18n:\n  language_code: \"de\"\n  languages: [\"en\"]\n",
			wantErr: "must be listed",
		},
		{
			name:    "duplicate enabled toolbar",
			content: "toolbar:\n  enabled: [\"a.b.C\", \"a.b.C\"]\n",
			wantErr: "twice",
		},
		{
			name:    "empty database path",
			content: "database:\n  path: \"\"\n",
			wantErr: "database.path is required",
		},
		{
			name:    "unknown tracing exporter",
			content: "tracing:\n  exporter: \"jaeger\"\n",
			wantErr: "tracing.exporter",
		},
		{
			name:    "bad yaml",
			content: "server: [unclosed\n",
			wantErr: "parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config file") {
		t.Fatalf("Load() error = %v, want reading config file error", err)
	}
}
