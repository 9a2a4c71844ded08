package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repstack/repstack/internal/reperrors"
)

const minimalGitHub = `
store:
  backend: github
  github:
    owner: jane
    repo: fitness-blog
    token: ghp_test
auth:
  operator_email: jane@example.com
  session_secret: 0123456789abcdef0123456789abcdef
  base_url: http://localhost:5173
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repstack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MinimalGitHubConfig_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalGitHub))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "content/posts", cfg.Store.PostsDir)
	require.Equal(t, "content/pages", cfg.Store.PagesDir)
	require.Equal(t, "repstack.db", cfg.Auth.TokenDB)
	require.Equal(t, "info", cfg.Logging.Level)
	require.False(t, cfg.Notify.Enabled())
	require.Equal(t, "", cfg.Notify.Subject)
}

func TestLoad_NotifyURLSet_DefaultsSubject(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalGitHub+`
notify:
  url: nats://localhost:4222
`))
	require.NoError(t, err)

	require.True(t, cfg.Notify.Enabled())
	require.Equal(t, "repstack.content", cfg.Notify.Subject)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("REPSTACK_TEST_TOKEN", "ghp_from_env")

	cfg, err := Load(writeConfigFile(t, `
store:
  backend: github
  github:
    owner: jane
    repo: fitness-blog
    token: ${REPSTACK_TEST_TOKEN}
auth:
  operator_email: jane@example.com
  session_secret: 0123456789abcdef0123456789abcdef
  base_url: http://localhost:5173
`))
	require.NoError(t, err)
	require.Equal(t, "ghp_from_env", cfg.Store.GitHub.Token)
}

func TestLoad_MissingFile_ReturnsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var repErr *reperrors.Error
	require.ErrorAs(t, err, &repErr)
	require.Equal(t, reperrors.CategoryConfig, repErr.Category())
}

func TestLoad_GitBackendWithoutSection_FailsValidation(t *testing.T) {
	_, err := Load(writeConfigFile(t, `
store:
  backend: git
auth:
  operator_email: jane@example.com
  session_secret: 0123456789abcdef0123456789abcdef
  base_url: http://localhost:5173
`))
	require.Error(t, err)
	require.Equal(t, reperrors.CategoryConfig, reperrors.GetCategory(err))
}

func TestLoad_ShortSessionSecret_FailsValidation(t *testing.T) {
	_, err := Load(writeConfigFile(t, `
store:
  backend: github
  github:
    owner: jane
    repo: fitness-blog
    token: ghp_test
auth:
  operator_email: jane@example.com
  session_secret: tooshort
  base_url: http://localhost:5173
`))
	require.Error(t, err)
}

func TestLoad_InvalidSweepInterval_FailsValidation(t *testing.T) {
	_, err := Load(writeConfigFile(t, minimalGitHub+`
publisher:
  sweep_interval: soon
`))
	require.Error(t, err)
	require.Equal(t, reperrors.CategoryConfig, reperrors.GetCategory(err))
}

func TestLoad_NegativeDuration_FailsValidation(t *testing.T) {
	_, err := Load(writeConfigFile(t, minimalGitHub+`
publisher:
  purge_interval: -1h
`))
	require.Error(t, err)
}

func TestLoad_GitBackend_ParsesSection(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
store:
  backend: git
  git:
    path: /srv/blog
    committer_name: Jane
auth:
  operator_email: jane@example.com
  session_secret: 0123456789abcdef0123456789abcdef
  base_url: http://localhost:5173
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Store.Git)
	require.Equal(t, "/srv/blog", cfg.Store.Git.Path)
	require.Equal(t, "Jane", cfg.Store.Git.CommitterName)
	require.Nil(t, cfg.Store.GitHub)
}

func TestDurationAccessors_EmptyOrInvalid_FallBackToDefaults(t *testing.T) {
	var cfg Config

	require.Equal(t, 10*time.Second, cfg.Server.ShutdownGrace())
	require.Equal(t, 15*time.Minute, cfg.Auth.LoginTokenTTL())
	require.Equal(t, 12*time.Hour, cfg.Auth.SessionTokenTTL())
	require.Equal(t, 5*time.Minute, cfg.Publisher.SweepEvery())
	require.Equal(t, time.Hour, cfg.Publisher.PurgeEvery())

	cfg.Publisher.SweepInterval = "90s"
	require.Equal(t, 90*time.Second, cfg.Publisher.SweepEvery())

	cfg.Publisher.SweepInterval = "garbage"
	require.Equal(t, 5*time.Minute, cfg.Publisher.SweepEvery())
}

func TestSlogLevel_MapsNamesCaseInsensitive(t *testing.T) {
	require.Equal(t, slog.LevelDebug, LoggingConfig{Level: "debug"}.SlogLevel())
	require.Equal(t, slog.LevelWarn, LoggingConfig{Level: "WARN"}.SlogLevel())
	require.Equal(t, slog.LevelError, LoggingConfig{Level: "error"}.SlogLevel())
	require.Equal(t, slog.LevelInfo, LoggingConfig{Level: ""}.SlogLevel())
	require.Equal(t, slog.LevelInfo, LoggingConfig{Level: "info"}.SlogLevel())
}

func TestInit_ThenLoad_RoundTrips(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")

	path := filepath.Join(t.TempDir(), "repstack.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "github", cfg.Store.Backend)
	require.Equal(t, "ghp_test", cfg.Store.GitHub.Token)
	require.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Auth.SessionSecret)
}

func TestInit_ExistingFile_RefusesWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repstack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: {}\n"), 0o600))

	err := Init(path, false)
	require.Error(t, err)

	require.NoError(t, Init(path, true))
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Contains(t, string(data), "backend: github")
}
