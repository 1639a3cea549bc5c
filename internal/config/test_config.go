package config

import (
	"path/filepath"
	"time"
)

// TestConfig returns a config suitable for testing, rooted at dir
func TestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Driver:  DriverBolt,
		Path:    filepath.Join(dir, "test.db"),
		Timeout: 1 * time.Second,
	}
	cfg.Settings = Settings{
		Import:         true,
		Usernames:      []string{"acme"},
		Count:          20,
		Expire:         ExpireNever,
		ConsumerKey:    "test-key",
		ConsumerSecret: "test-secret",
	}
	cfg.Twitter.HTTPTimeout = 5 * time.Second
	cfg.Twitter.UserAgent = "tweetsync-test/1.0"
	cfg.Media.Dir = filepath.Join(dir, "media")
	cfg.Search.IndexPath = ""
	cfg.Log.File = filepath.Join(dir, "test.log")
	return cfg
}
