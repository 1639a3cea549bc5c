// Package twitter is a small client for the v1.1 REST endpoints tweetsync reads.
package twitter

import (
	"fmt"
	"strings"
	"time"
)

// CreatedAtLayout is the timestamp format of the created_at field.
const CreatedAtLayout = time.RubyDate

// Post is a tweet as returned by the timeline and search endpoints.
// Fields tweetsync does not use are dropped during decoding.
type Post struct {
	ID        int64    `json:"id"`
	CreatedAt string   `json:"created_at"`
	Text      string   `json:"text"`
	User      User     `json:"user"`
	Entities  Entities `json:"entities"`
}

// User is the post author.
type User struct {
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

// Entities are the typed spans inside a post's text. A nil slice means the
// API did not send that kind.
type Entities struct {
	Hashtags     []Hashtag `json:"hashtags,omitempty"`
	UserMentions []Mention `json:"user_mentions,omitempty"`
	URLs         []URL     `json:"urls,omitempty"`
	Media        []Media   `json:"media,omitempty"`
}

type Hashtag struct {
	Text string `json:"text"`
}

type Mention struct {
	ScreenName string `json:"screen_name"`
}

type URL struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
}

// Media is an attachment; URL is the t.co link that appears in the text.
type Media struct {
	URL           string `json:"url"`
	MediaURL      string `json:"media_url"`
	MediaURLHTTPS string `json:"media_url_https"`
	ExpandedURL   string `json:"expanded_url"`
	Type          string `json:"type"`
}

const MediaTypePhoto = "photo"

// IsPhoto reports whether the attachment is a still image.
func (m Media) IsPhoto() bool {
	return m.Type == MediaTypePhoto
}

// DownloadURL prefers the https variant of the media URL.
func (m Media) DownloadURL() string {
	if m.MediaURLHTTPS != "" {
		return m.MediaURLHTTPS
	}
	return m.MediaURL
}

// Created parses CreatedAt.
func (p Post) Created() (time.Time, error) {
	t, err := time.Parse(CreatedAtLayout, p.CreatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at %q: %w", p.CreatedAt, err)
	}
	return t, nil
}

// searchResponse wraps search results, which arrive nested under "statuses".
type searchResponse struct {
	Statuses []Post `json:"statuses"`
}

// ErrorDetail is one entry of an API error body.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is returned when the API answers with an {"errors":[...]} body.
type APIError struct {
	StatusCode int           `json:"-"`
	Errors     []ErrorDetail `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("twitter API error: HTTP %d", e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msgs = append(msgs, d.Message)
	}
	return "twitter API error: " + strings.Join(msgs, "; ")
}

// Message is the first remote error message, the one surfaced to users.
func (e *APIError) Message() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Errors[0].Message
}
