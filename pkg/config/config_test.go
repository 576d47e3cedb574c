package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2*time.Second, cfg.Throttle.Page)
	assert.Equal(t, 5*time.Second, cfg.Throttle.File)
	assert.Equal(t, 100*time.Millisecond, cfg.Throttle.DateNavigation)
	assert.Equal(t, 5*time.Second, cfg.Browser.RefreshTimeout)
	assert.Equal(t, "https://www.broadcastify.com/archives/feed/", cfg.Broadcastify.ArchiveURL)
	assert.Equal(t, "https://m.broadcastify.com/archives/id/", cfg.Broadcastify.DownloadURL)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Build.Chronological)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BARCHIVE_THROTTLE_PAGE", "3s")
	t.Setenv("BARCHIVE_THROTTLE_DATE_NAVIGATION", "250ms")
	t.Setenv("BARCHIVE_CREDENTIALS_USERNAME", "scanner")
	t.Setenv("BARCHIVE_DOWNLOAD_OUTPUT_DIRECTORY", "/tmp/test-archives")
	t.Setenv("BARCHIVE_BROWSER_HEADLESS", "false")
	t.Setenv("BARCHIVE_LOGGING_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 3*time.Second, cfg.Throttle.Page)
	assert.Equal(t, 250*time.Millisecond, cfg.Throttle.DateNavigation)
	assert.Equal(t, "scanner", cfg.Credentials.Username)
	assert.Equal(t, "/tmp/test-archives", cfg.Download.OutputDirectory)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched values keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Throttle.File)
	assert.Equal(t, "https://www.broadcastify.com/login/", cfg.Broadcastify.LoginURL)
}

func TestLoadFromEnvInvalidValue(t *testing.T) {
	t.Setenv("BARCHIVE_THROTTLE_FILE", "soon")

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
throttle:
  page: 1500ms
  file: 8s
browser:
  headless: false
  refresh_timeout: 10s
build:
  chronological: true
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(path))

		assert.Equal(t, 1500*time.Millisecond, cfg.Throttle.Page)
		assert.Equal(t, 8*time.Second, cfg.Throttle.File)
		assert.Equal(t, 100*time.Millisecond, cfg.Throttle.DateNavigation)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 10*time.Second, cfg.Browser.RefreshTimeout)
		assert.True(t, cfg.Build.Chronological)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("throttle: [unclosed"), 0644))

		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFromFile(path))
	})

	t.Run("missing explicit file", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "relative archive url",
			mutate:  func(c *Config) { c.Broadcastify.ArchiveURL = "/archives/feed/" },
			wantErr: "archive URL must be an absolute URL",
		},
		{
			name:    "negative throttle",
			mutate:  func(c *Config) { c.Throttle.File = -time.Second },
			wantErr: "throttle intervals cannot be negative",
		},
		{
			name:    "poll interval above refresh timeout",
			mutate:  func(c *Config) { c.Browser.PollInterval = 10 * time.Second },
			wantErr: "browser poll interval",
		},
		{
			name:    "missing output directory",
			mutate:  func(c *Config) { c.Download.OutputDirectory = "" },
			wantErr: "output directory is required",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "chatty" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Download.OutputDirectory = ""
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory is required")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSaveOmitsPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Credentials.Username = "scanner"
	cfg.Credentials.Password = "hunter2"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")

	var loaded Config
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, "scanner", loaded.Credentials.Username)
	assert.Equal(t, cfg.Throttle, loaded.Throttle)

	// the caller's config is not modified
	assert.Equal(t, "hunter2", cfg.Credentials.Password)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"username":      "flag-user",
		"output":        "/flag/output",
		"chronological": true,
		"page-interval": 4 * time.Second,
		"log-level":     "error",
		"unknown":       42,
	})

	assert.Equal(t, "flag-user", cfg.Credentials.Username)
	assert.Equal(t, "/flag/output", cfg.Download.OutputDirectory)
	assert.True(t, cfg.Build.Chronological)
	assert.Equal(t, 4*time.Second, cfg.Throttle.Page)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Throttle.File)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nthrottle:\n  page: 1s\n"), 0644))

	t.Setenv("BARCHIVE_THROTTLE_PAGE", "3s")

	cfg, err := Load(path, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Throttle.Page, "env overrides file")
	assert.Equal(t, "debug", cfg.Logging.Level, "flags override file")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: shout\n"), 0644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
