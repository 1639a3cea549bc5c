package validation

import (
	"os"
	"path/filepath"
)

// PathHandler resolves tweetsync's on-disk locations, falling back to the
// defaults under ~/.tweetsync.
type PathHandler struct {
	validator *PathValidator
}

func NewSecurePathHandler() *PathHandler {
	return &PathHandler{validator: NewPathValidator()}
}

func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{validator: NewPermissivePathValidator()}
}

func dataPath(elem ...string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{homeDir, ".tweetsync"}, elem...)...), nil
}

// DBPath validates the database file location.
func (ph *PathHandler) DBPath(userPath string) (string, error) {
	if userPath == "" {
		p, err := dataPath("tweets.db")
		if err != nil {
			return "", err
		}
		userPath = p
	}
	return ph.validator.ValidateFile(userPath)
}

// ConfigPath validates the config file location.
func (ph *PathHandler) ConfigPath(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".config", "tweetsync", "config.toml")
	}
	return ph.validator.ValidateFile(userPath)
}

// IndexPath validates the bleve index directory without creating it; bleve
// refuses to create an index in an existing directory.
func (ph *PathHandler) IndexPath(userPath string) (string, error) {
	if userPath == "" {
		p, err := dataPath("index.bleve")
		if err != nil {
			return "", err
		}
		userPath = p
	}
	return ph.validator.Clean(userPath)
}

// MediaDir validates and creates the photo download directory.
func (ph *PathHandler) MediaDir(userPath string) (string, error) {
	if userPath == "" {
		p, err := dataPath("media")
		if err != nil {
			return "", err
		}
		userPath = p
	}
	return ph.validator.EnsureDir(userPath)
}
