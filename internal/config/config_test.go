package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := getDefaultOpener()

	if expectedOpener, ok := expected[runtime.GOOS]; ok {
		if opener != expectedOpener {
			t.Errorf("getDefaultOpener() = %s, want %s for %s", opener, expectedOpener, runtime.GOOS)
		}
	} else if opener != "open" {
		t.Errorf("getDefaultOpener() = %s, want 'open' for unknown OS", opener)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Driver != DriverBolt {
		t.Errorf("Database.Driver = %s, want %s", cfg.Database.Driver, DriverBolt)
	}
	if cfg.Database.Timeout != 1*time.Second {
		t.Errorf("Database.Timeout = %v, want 1s", cfg.Database.Timeout)
	}
	if cfg.Twitter.HTTPTimeout != 30*time.Second {
		t.Errorf("Twitter.HTTPTimeout = %v, want 30s", cfg.Twitter.HTTPTimeout)
	}
	if cfg.Twitter.UserAgent == "" {
		t.Error("Twitter.UserAgent should not be empty")
	}
	if cfg.Settings.Count != 20 {
		t.Errorf("Settings.Count = %d, want 20", cfg.Settings.Count)
	}
	if cfg.Settings.Expire != ExpireNever {
		t.Errorf("Settings.Expire = %d, want never", cfg.Settings.Expire)
	}
	if cfg.Schedule.Cron != "@every 15m" {
		t.Errorf("Schedule.Cron = %s, want @every 15m", cfg.Schedule.Cron)
	}
	if cfg.Media.DefaultOpener == "" {
		t.Error("Media.DefaultOpener should not be empty")
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 30*time.Second, cfg.Twitter.HTTPTimeout)
	assert.False(t, cfg.Settings.Import)
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "test-config.toml")
	configContent := `
[database]
driver = "sqlite"
path = "/tmp/test.db"
timeout = "10s"

[settings]
import = true
usernames = ["acme", " #golang ", ""]
count = 50
expire = 604800
consumer_key = "key"
consumer_secret = "secret"

[twitter]
http_timeout = "60s"
user_agent = "test-agent"
`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Database.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Twitter.HTTPTimeout)
	assert.Equal(t, "test-agent", cfg.Twitter.UserAgent)

	assert.True(t, cfg.Settings.Import)
	assert.Equal(t, []string{"acme", "#golang"}, cfg.Settings.Usernames)
	assert.Equal(t, 50, cfg.Settings.Count)
	assert.Equal(t, ExpireWeek, cfg.Settings.Expire)
	assert.Equal(t, "key", cfg.Settings.ConsumerKey)

	// Unset sections keep their defaults
	assert.Equal(t, "https://api.twitter.com", cfg.Twitter.APIBaseURL)
}

func TestLoad_UsernamesFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TWEETSYNC_SETTINGS_USERNAMES", "acme  #drupal")
	t.Setenv("TWEETSYNC_SETTINGS_CONSUMER_KEY", "env-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"acme", "#drupal"}, cfg.Settings.Usernames)
	assert.Equal(t, "env-key", cfg.Settings.ConsumerKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[settings\nimport = "), 0o644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "new", "config.toml")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Settings.Count)
	assert.Equal(t, "@every 15m", cfg.Schedule.Cron)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.toml")

	cfg := TestConfig(tmpDir)
	cfg.Settings.Usernames = []string{"acme", "#drupal"}
	cfg.Settings.Expire = ExpireMonth

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Settings, loaded.Settings)
	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)
	assert.Equal(t, cfg.Twitter.HTTPTimeout, loaded.Twitter.HTTPTimeout)
	assert.Equal(t, cfg.Media.Dir, loaded.Media.Dir)
}

func TestGenerateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, GenerateDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "consumer_key")
	assert.Contains(t, string(data), "usernames")
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, filepath.Join(home, "data", "x.db"), expandPath("~/data/x.db"))
	assert.True(t, filepath.IsAbs(expandPath("relative/x.db")))
}
