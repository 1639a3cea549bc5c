// Package validation checks untrusted URLs and file paths.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideBaseDirs = errors.New("path not within allowed directories")

// PathValidator normalises user supplied paths and keeps them inside a set
// of base directories. An empty BaseDirs allows everything.
type PathValidator struct {
	BaseDirs      []string
	MaxPathLength int
}

// NewPathValidator limits paths to tweetsync's data and config directories
// and the temp dir.
func NewPathValidator() *PathValidator {
	homeDir, _ := os.UserHomeDir()
	return &PathValidator{
		BaseDirs: []string{
			filepath.Join(homeDir, ".tweetsync"),
			filepath.Join(homeDir, ".config", "tweetsync"),
			os.TempDir(),
		},
		MaxPathLength: 4096,
	}
}

// NewPermissivePathValidator only normalises.
func NewPermissivePathValidator() *PathValidator {
	return &PathValidator{MaxPathLength: 4096}
}

// Clean expands a leading "~/", makes path absolute and checks it.
func (v *PathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if v.MaxPathLength > 0 && len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	for _, r := range path {
		if r < 32 && r != '\t' {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	if hasTraversal(path) {
		return "", fmt.Errorf("directory traversal not allowed")
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("invalid tilde usage in %q", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	if !v.within(abs) {
		return "", fmt.Errorf("%s: %w", abs, ErrOutsideBaseDirs)
	}
	return abs, nil
}

func (v *PathValidator) within(abs string) bool {
	if len(v.BaseDirs) == 0 {
		return true
	}
	for _, base := range v.BaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// EnsureDir validates path and creates it as a directory.
func (v *PathValidator) EnsureDir(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(clean)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(clean, 0o755); mkErr != nil {
			return "", fmt.Errorf("creating directory: %w", mkErr)
		}
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", clean)
	}
	return clean, nil
}

// ValidateFile validates path as a file location; an existing directory fails.
func (v *PathValidator) ValidateFile(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	return clean, nil
}

// SafeFileName reduces name to a single path element usable inside a
// media directory.
func SafeFileName(name string) string {
	name = filepath.Base(filepath.ToSlash(strings.ReplaceAll(name, "\\", "/")))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 32, r == '/', r == '\\', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "file"
	}
	return name
}

func hasTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}
