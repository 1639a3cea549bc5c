package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	ErrEmptyURL      = errors.New("URL cannot be empty")
	ErrURLScheme     = errors.New("URL must use http or https")
	ErrLocalhost     = errors.New("localhost URLs are not permitted")
	ErrPrivateIP     = errors.New("private IP addresses are not permitted")
	ErrURLCharacters = errors.New("URL contains invalid characters")
)

// URLValidator screens remote URLs before tweetsync fetches them. Media URLs
// come from API responses, so they are treated as untrusted input.
type URLValidator struct {
	AllowLocalhost  bool
	AllowPrivateIPs bool
	MaxLength       int
}

// NewURLValidator rejects loopback and private hosts.
func NewURLValidator() *URLValidator {
	return &URLValidator{MaxLength: 2048}
}

// NewPermissiveURLValidator allows local hosts, for tests and development.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// Validate parses raw and checks scheme, host and path.
func (v *URLValidator) Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	if v.MaxLength > 0 && len(raw) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(raw, "<>\"'`") {
		return nil, ErrURLCharacters
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrURLScheme
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("URL must have a hostname")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return nil, err
	}
	if strings.Contains(u.Path, "..") {
		return nil, fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	return u, nil
}

func (v *URLValidator) checkHost(hostname string) error {
	if !v.AllowLocalhost && isLocalhost(hostname) {
		return ErrLocalhost
	}
	ip := net.ParseIP(hostname)
	if ip == nil {
		return nil
	}
	if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
		return fmt.Errorf("invalid host address %s", hostname)
	}
	if !v.AllowPrivateIPs && isPrivateIP(ip) {
		return ErrPrivateIP
	}
	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
