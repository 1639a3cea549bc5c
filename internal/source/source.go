package source

import (
	"errors"
	"strings"
)

// Kind tells whether a configured source is a user timeline or a hashtag search.
type Kind string

const (
	KindUsername Kind = "username"
	KindHashtag  Kind = "hashtag"
)

// ErrEmpty is returned for a source string that is blank after trimming.
var ErrEmpty = errors.New("source cannot be empty")

// Source is one configured username or hashtag, classified once at parse time.
type Source struct {
	// Raw is the configured string, trimmed
	Raw string
	// Kind is decided by the leading character: '#' is a hashtag, anything else a username
	Kind Kind
	// Label is Raw without its '@' or '#' marker; items are keyed on it
	Label string
}

// Parse classifies a configured source string.
func Parse(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, ErrEmpty
	}

	if strings.HasPrefix(raw, "#") {
		label := strings.TrimPrefix(raw, "#")
		if strings.TrimSpace(label) == "" {
			return Source{}, ErrEmpty
		}
		return Source{Raw: raw, Kind: KindHashtag, Label: label}, nil
	}

	label := strings.TrimPrefix(raw, "@")
	if strings.TrimSpace(label) == "" {
		return Source{}, ErrEmpty
	}
	return Source{Raw: raw, Kind: KindUsername, Label: label}, nil
}

func (s Source) String() string {
	return s.Raw
}
