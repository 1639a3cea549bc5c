package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pders01/tweetsync/internal/validation"
)

const DefaultMaxBytes = 10 << 20

var (
	ErrNotImage = errors.New("response is not an image")
	ErrTooLarge = errors.New("media exceeds size limit")
)

// Downloader saves remote photos into a directory. Existing files are never
// overwritten: a clash becomes name_0.ext, name_1.ext and so on.
type Downloader struct {
	dir       string
	client    *http.Client
	validator *validation.URLValidator
	detector  *TypeDetector
	maxBytes  int64
	userAgent string
}

type DownloaderOption func(*Downloader)

func WithClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

func WithValidator(v *validation.URLValidator) DownloaderOption {
	return func(d *Downloader) { d.validator = v }
}

func WithMaxBytes(n int64) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

func WithUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) { d.userAgent = ua }
}

func NewDownloader(dir string, opts ...DownloaderOption) (*Downloader, error) {
	detector, err := NewTypeDetector()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}

	d := &Downloader{
		dir:       dir,
		client:    &http.Client{Timeout: 30 * time.Second},
		validator: validation.NewURLValidator(),
		detector:  detector,
		maxBytes:  DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Download fetches rawURL and returns the path of the saved file.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	u, err := d.validator.Validate(rawURL)
	if err != nil {
		return "", fmt.Errorf("rejecting media URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", u, resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return "", fmt.Errorf("%s: %w", u, ErrTooLarge)
	}

	name := validation.SafeFileName(path.Base(u.Path))
	ext, isImage := d.detector.ExtensionFor(resp.Header.Get("Content-Type"))
	if !isImage && !d.detector.HasImageExtension(name) {
		return "", fmt.Errorf("%s: %w", u, ErrNotImage)
	}
	if !d.detector.HasImageExtension(name) {
		name += "." + ext
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", u, err)
	}
	if int64(len(data)) > d.maxBytes {
		return "", fmt.Errorf("%s: %w", u, ErrTooLarge)
	}

	return d.save(name, data)
}

func (d *Downloader) save(name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(d.dir, name)
	for i := 0; ; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			candidate = filepath.Join(d.dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating media file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(candidate)
			return "", fmt.Errorf("writing media file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(candidate)
			return "", fmt.Errorf("writing media file: %w", err)
		}
		return candidate, nil
	}
}

// Remove deletes a file previously returned by Download. Paths outside the
// media directory are refused.
func (d *Downloader) Remove(file string) error {
	rel, err := filepath.Rel(d.dir, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("refusing to remove %s outside %s", file, d.dir)
	}
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing media file: %w", err)
	}
	return nil
}
