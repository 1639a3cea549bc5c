package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Settings Settings       `mapstructure:"settings"`
	Twitter  TwitterConfig  `mapstructure:"twitter"`
	Media    MediaConfig    `mapstructure:"media"`
	Search   SearchConfig   `mapstructure:"search"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	// Driver is "bolt" or "sqlite"
	Driver  string        `mapstructure:"driver"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TwitterConfig struct {
	APIBaseURL  string        `mapstructure:"api_base_url"`
	TokenURL    string        `mapstructure:"token_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type MediaConfig struct {
	Dir           string   `mapstructure:"dir"`
	MaxBytes      int64    `mapstructure:"max_bytes"`
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

type SearchConfig struct {
	// IndexPath is the bleve index directory; empty uses the in-memory scorer
	IndexPath string `mapstructure:"index_path"`
}

type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

func dataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tweetsync")
}

func defaultConfig() *Config {
	dir := dataDir()

	return &Config{
		Database: DatabaseConfig{
			Driver:  DriverBolt,
			Path:    filepath.Join(dir, "tweets.db"),
			Timeout: 1 * time.Second,
		},
		Settings: Settings{
			Import: false,
			Count:  20,
			Expire: ExpireNever,
		},
		Twitter: TwitterConfig{
			APIBaseURL:  "https://api.twitter.com",
			TokenURL:    "https://api.twitter.com/oauth2/token",
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "tweetsync/1.0 (https://github.com/pders01/tweetsync)",
		},
		Media: MediaConfig{
			Dir:           filepath.Join(dir, "media"),
			MaxBytes:      10 << 20,
			Darwin:        []string{"preview", "open"},
			Linux:         []string{"sxiv", "feh", "eog", "xdg-open"},
			Windows:       []string{"start"},
			DefaultOpener: getDefaultOpener(),
		},
		Search: SearchConfig{
			IndexPath: filepath.Join(dir, "index.bleve"),
		},
		Schedule: ScheduleConfig{
			Cron: "@every 15m",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "tweetsync.log"),
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)

	v.SetDefault("settings.import", cfg.Settings.Import)
	v.SetDefault("settings.usernames", cfg.Settings.Usernames)
	v.SetDefault("settings.count", cfg.Settings.Count)
	v.SetDefault("settings.expire", cfg.Settings.Expire)
	v.SetDefault("settings.consumer_key", cfg.Settings.ConsumerKey)
	v.SetDefault("settings.consumer_secret", cfg.Settings.ConsumerSecret)

	v.SetDefault("twitter.api_base_url", cfg.Twitter.APIBaseURL)
	v.SetDefault("twitter.token_url", cfg.Twitter.TokenURL)
	v.SetDefault("twitter.http_timeout", cfg.Twitter.HTTPTimeout)
	v.SetDefault("twitter.user_agent", cfg.Twitter.UserAgent)

	v.SetDefault("media.dir", cfg.Media.Dir)
	v.SetDefault("media.max_bytes", cfg.Media.MaxBytes)
	v.SetDefault("media.darwin", cfg.Media.Darwin)
	v.SetDefault("media.linux", cfg.Media.Linux)
	v.SetDefault("media.windows", cfg.Media.Windows)
	v.SetDefault("media.default_opener", cfg.Media.DefaultOpener)

	v.SetDefault("search.index_path", cfg.Search.IndexPath)
	v.SetDefault("schedule.cron", cfg.Schedule.Cron)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "tweetsync", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "tweetsync")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TWEETSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit path that does not exist yet is where Save will write
		missingExplicit := configPath != "" && errors.Is(err, fs.ErrNotExist)
		if !errors.As(err, &notFound) && !missingExplicit {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToFieldsHook(),
	))
	if err := v.Unmarshal(&config, hooks); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.Settings.Normalize()
	expandPaths(&config)

	return &config, nil
}

// stringToFieldsHook splits a string into a whitespace-delimited slice, so a
// TWEETSYNC_SETTINGS_USERNAMES="acme #golang" env var decodes like a TOML array.
func stringToFieldsHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
			return data, nil
		}
		return strings.Fields(data.(string)), nil
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Media.Dir = expandPath(cfg.Media.Dir)
	cfg.Search.IndexPath = expandPath(cfg.Search.IndexPath)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	dbCfg := map[string]interface{}{
		"driver":  config.Database.Driver,
		"path":    config.Database.Path,
		"timeout": config.Database.Timeout.String(),
	}

	twitterCfg := map[string]interface{}{
		"api_base_url": config.Twitter.APIBaseURL,
		"token_url":    config.Twitter.TokenURL,
		"http_timeout": config.Twitter.HTTPTimeout.String(),
		"user_agent":   config.Twitter.UserAgent,
	}

	usernames := config.Settings.Usernames
	if usernames == nil {
		usernames = []string{}
	}
	settingsCfg := map[string]interface{}{
		"import":          config.Settings.Import,
		"usernames":       usernames,
		"count":           config.Settings.Count,
		"expire":          config.Settings.Expire,
		"consumer_key":    config.Settings.ConsumerKey,
		"consumer_secret": config.Settings.ConsumerSecret,
	}

	mediaCfg := map[string]interface{}{
		"dir":            config.Media.Dir,
		"max_bytes":      config.Media.MaxBytes,
		"darwin":         config.Media.Darwin,
		"linux":          config.Media.Linux,
		"windows":        config.Media.Windows,
		"default_opener": config.Media.DefaultOpener,
	}

	v.Set("database", dbCfg)
	v.Set("settings", settingsCfg)
	v.Set("twitter", twitterCfg)
	v.Set("media", mediaCfg)
	v.Set("search", map[string]interface{}{"index_path": config.Search.IndexPath})
	v.Set("schedule", map[string]interface{}{"cron": config.Schedule.Cron})
	v.Set("log", map[string]interface{}{"level": config.Log.Level, "file": config.Log.File})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
