package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/tweetsync/internal/source"
)

// Retention windows offered for Settings.Expire, in seconds.
const (
	ExpireNever   = 0
	ExpireWeek    = 604800
	ExpireMonth   = 2592000
	ExpireQuarter = 7776000
	ExpireYear    = 31536000
)

const (
	MinCount = 1
	MaxCount = 200
)

var (
	ErrMissingCredentials = errors.New("consumer key and consumer secret are required")
	ErrNoSources          = errors.New("at least one username or hashtag is required")
	ErrEmptySource        = errors.New("sources must not be empty")
	ErrCountRange         = fmt.Errorf("count must be between %d and %d", MinCount, MaxCount)
	ErrExpireValue        = errors.New("expire must be one of the offered retention windows")
)

// ExpireOption pairs a retention window with its label.
type ExpireOption struct {
	Seconds int
	Label   string
}

// ExpireOptions lists the allowed retention windows in display order.
func ExpireOptions() []ExpireOption {
	return []ExpireOption{
		{ExpireNever, "Never"},
		{ExpireWeek, "1 week"},
		{ExpireMonth, "30 days"},
		{ExpireQuarter, "90 days"},
		{ExpireYear, "365 days"},
	}
}

// ExpireLabel returns the label for a retention window, or the raw seconds.
func ExpireLabel(seconds int) string {
	for _, o := range ExpireOptions() {
		if o.Seconds == seconds {
			return o.Label
		}
	}
	return fmt.Sprintf("%ds", seconds)
}

func validExpire(seconds int) bool {
	for _, o := range ExpireOptions() {
		if o.Seconds == seconds {
			return true
		}
	}
	return false
}

// Settings is the import configuration, persisted under [settings].
type Settings struct {
	Import         bool     `mapstructure:"import"`
	Usernames      []string `mapstructure:"usernames"`
	Count          int      `mapstructure:"count"`
	Expire         int      `mapstructure:"expire"`
	ConsumerKey    string   `mapstructure:"consumer_key"`
	ConsumerSecret string   `mapstructure:"consumer_secret"`
}

// Normalize trims every source and credential and drops blank sources.
func (s *Settings) Normalize() {
	cleaned := make([]string, 0, len(s.Usernames))
	for _, u := range s.Usernames {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	s.Usernames = cleaned
	s.ConsumerKey = strings.TrimSpace(s.ConsumerKey)
	s.ConsumerSecret = strings.TrimSpace(s.ConsumerSecret)
}

// Validate reports every configuration problem at once.
func (s Settings) Validate() error {
	var errs []error

	if strings.TrimSpace(s.ConsumerKey) == "" || strings.TrimSpace(s.ConsumerSecret) == "" {
		errs = append(errs, ErrMissingCredentials)
	}

	if len(s.Usernames) == 0 {
		errs = append(errs, ErrNoSources)
	}
	for _, u := range s.Usernames {
		if _, err := source.Parse(u); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrEmptySource, u))
		}
	}

	if s.Count < MinCount || s.Count > MaxCount {
		errs = append(errs, ErrCountRange)
	}

	if !validExpire(s.Expire) {
		errs = append(errs, ErrExpireValue)
	}

	return errors.Join(errs...)
}
