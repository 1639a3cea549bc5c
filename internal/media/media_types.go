// Package media downloads tweet photos and opens them with a local viewer.
package media

import (
	_ "embed"
	"fmt"
	"mime"
	"net/url"
	"path"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type ImageTypes struct {
	Extensions   []string          `toml:"extensions"`
	URLPatterns  []string          `toml:"url_patterns"`
	ContentTypes map[string]string `toml:"content_types"`
}

type TypesConfig struct {
	Image     ImageTypes                `toml:"image"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

// TypeDetector recognises image URLs, file names and content types.
type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if err := toml.Unmarshal(mediaTypesTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing media_types.toml: %w", err)
	}
	return &TypeDetector{config: &config}, nil
}

// Extension returns the lower-case extension of a URL or path without the
// dot, ignoring query and fragment.
func Extension(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

// IsImage reports whether raw looks like an image by extension or host pattern.
func (d *TypeDetector) IsImage(raw string) bool {
	if slices.Contains(d.config.Image.Extensions, Extension(raw)) {
		return true
	}
	lower := strings.ToLower(raw)
	for _, pattern := range d.config.Image.URLPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// ExtensionFor maps a Content-Type header to a file extension. ok is false
// for anything that is not a known image type.
func (d *TypeDetector) ExtensionFor(contentType string) (ext string, ok bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	ext, ok = d.config.Image.ContentTypes[strings.ToLower(mediaType)]
	return ext, ok
}

// HasImageExtension reports whether name already ends in a known image extension.
func (d *TypeDetector) HasImageExtension(name string) bool {
	return slices.Contains(d.config.Image.Extensions, Extension(name))
}

func (d *TypeDetector) DefaultOpener() string {
	if p, ok := d.config.Platforms[runtime.GOOS]; ok {
		return p.DefaultOpener
	}
	if fallback, ok := d.config.Platforms["fallback"]; ok {
		return fallback.DefaultOpener
	}
	return "open"
}
