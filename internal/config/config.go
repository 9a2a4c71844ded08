// Package config loads and validates the repstack configuration file.
//
// Configuration is a single YAML document. Environment variables referenced
// as ${VAR} are expanded before parsing, and a .env file in the working
// directory is loaded first so secrets stay out of the YAML itself.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/reperrors"
)

// Config is the root configuration for the admin backend.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Site      SiteConfig      `yaml:"site,omitempty"`
	Store     StoreConfig     `yaml:"store" validate:"required"`
	Auth      AuthConfig      `yaml:"auth" validate:"required"`
	Notify    NotifyConfig    `yaml:"notify,omitempty"`
	Publisher PublisherConfig `yaml:"publisher,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ServerConfig configures the admin HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr,omitempty"`
	CORSOrigin      string `yaml:"cors_origin,omitempty"`
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"` // duration string (default 10s)
}

// SiteConfig describes the public blog the admin manages. Host is used to
// classify preview links as internal or external.
type SiteConfig struct {
	Host string `yaml:"host,omitempty"`
}

// StoreConfig selects and configures the content store backend.
type StoreConfig struct {
	Backend  string             `yaml:"backend" validate:"required,oneof=github git"`
	PostsDir string             `yaml:"posts_dir,omitempty"`
	PagesDir string             `yaml:"pages_dir,omitempty"`
	GitHub   *GitHubStoreConfig `yaml:"github,omitempty" validate:"required_if=Backend github"`
	Git      *GitStoreConfig    `yaml:"git,omitempty" validate:"required_if=Backend git"`
}

// GitHubStoreConfig points at a repository reachable through the GitHub
// contents API.
type GitHubStoreConfig struct {
	Owner          string `yaml:"owner" validate:"required"`
	Repo           string `yaml:"repo" validate:"required"`
	Branch         string `yaml:"branch,omitempty"`
	Token          string `yaml:"token" validate:"required"`
	APIURL         string `yaml:"api_url,omitempty" validate:"omitempty,url"`
	CommitterName  string `yaml:"committer_name,omitempty"`
	CommitterEmail string `yaml:"committer_email,omitempty"`
}

// GitStoreConfig points at a local git working tree.
type GitStoreConfig struct {
	Path           string `yaml:"path" validate:"required"`
	CommitterName  string `yaml:"committer_name,omitempty"`
	CommitterEmail string `yaml:"committer_email,omitempty"`
}

// AuthConfig configures magic-link login and session signing.
type AuthConfig struct {
	OperatorEmail string `yaml:"operator_email" validate:"required,email"`
	SessionSecret string `yaml:"session_secret" validate:"required,min=32"`
	BaseURL       string `yaml:"base_url" validate:"required,url"`
	TokenDB       string `yaml:"token_db,omitempty"`
	LoginTTL      string `yaml:"login_ttl,omitempty"`   // duration string (default 15m)
	SessionTTL    string `yaml:"session_ttl,omitempty"` // duration string (default 12h)
}

// NotifyConfig configures the NATS content-change publisher. An empty URL
// disables publishing.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// PublisherConfig configures the scheduled-publishing sweep.
type PublisherConfig struct {
	Disabled      bool   `yaml:"disabled,omitempty"`
	SweepInterval string `yaml:"sweep_interval,omitempty"` // duration string (default 5m)
	PurgeInterval string `yaml:"purge_interval,omitempty"` // duration string (default 1h)
}

// MetricsConfig gates the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// Load reads the configuration file at path, expands environment variables,
// applies defaults and validates the result. A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	loadEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, reperrors.ConfigError("configuration file not found").
				WithContext("path", path).
				UserAction().
				Build()
		}
		return nil, reperrors.Wrap(err, reperrors.CategoryConfig, "read configuration file").
			WithContext("path", path).
			Build()
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, reperrors.Wrap(err, reperrors.CategoryConfig, "parse configuration file").
			WithContext("path", path).
			Build()
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnv pulls the first env file it finds into the process environment.
// Existing variables are never overridden.
func loadEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err == nil {
			slog.Debug("loaded environment file", logfields.File(name))
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Store.PostsDir == "" {
		cfg.Store.PostsDir = "content/posts"
	}
	if cfg.Store.PagesDir == "" {
		cfg.Store.PagesDir = "content/pages"
	}
	if cfg.Auth.TokenDB == "" {
		cfg.Auth.TokenDB = "repstack.db"
	}
	if cfg.Notify.URL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "repstack.content"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks struct tags and duration strings. Backend-specific option
// checks beyond presence stay with the store constructors.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return reperrors.Wrap(err, reperrors.CategoryConfig, "invalid configuration").
			UserAction().
			Build()
	}
	return c.validateDurations()
}

func (c *Config) validateDurations() error {
	checks := []struct {
		field string
		value string
	}{
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"auth.login_ttl", c.Auth.LoginTTL},
		{"auth.session_ttl", c.Auth.SessionTTL},
		{"publisher.sweep_interval", c.Publisher.SweepInterval},
		{"publisher.purge_interval", c.Publisher.PurgeInterval},
	}
	for _, check := range checks {
		if check.value == "" {
			continue
		}
		d, err := time.ParseDuration(check.value)
		if err != nil {
			return reperrors.ConfigError("invalid duration").
				WithContext("field", check.field).
				WithContext("value", check.value).
				UserAction().
				Build()
		}
		if d <= 0 {
			return reperrors.ConfigError("duration must be positive").
				WithContext("field", check.field).
				WithContext("value", check.value).
				UserAction().
				Build()
		}
	}
	return nil
}

// Duration accessors fall back to defaults so hand-built configs in tests
// behave the same as loaded ones.

func (s ServerConfig) ShutdownGrace() time.Duration {
	return durationOr(s.ShutdownTimeout, 10*time.Second)
}

func (a AuthConfig) LoginTokenTTL() time.Duration {
	return durationOr(a.LoginTTL, 15*time.Minute)
}

func (a AuthConfig) SessionTokenTTL() time.Duration {
	return durationOr(a.SessionTTL, 12*time.Hour)
}

func (p PublisherConfig) SweepEvery() time.Duration {
	return durationOr(p.SweepInterval, 5*time.Minute)
}

func (p PublisherConfig) PurgeEvery() time.Duration {
	return durationOr(p.PurgeInterval, time.Hour)
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Enabled reports whether content-change publishing is configured.
func (n NotifyConfig) Enabled() bool {
	return n.URL != ""
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
