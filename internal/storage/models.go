package storage

import (
	"time"

	"github.com/pders01/tweetsync/internal/source"
)

// Item is one imported tweet.
type Item struct {
	ID               uint64      `json:"id"`
	ExternalID       int64       `json:"external_id"`
	SourceType       source.Kind `json:"source_type"`
	SourceLabel      string      `json:"source_label"`
	SourceURL        string      `json:"source_url"`
	Title            string      `json:"title"`
	Content          string      `json:"content"`
	CreatedAt        time.Time   `json:"created_at"`
	ImportedAt       time.Time   `json:"imported_at"`
	LocalMedia       string      `json:"local_media,omitempty"`
	ExternalMediaURL string      `json:"external_media_url,omitempty"`
	Mentions         []string    `json:"mentions,omitempty"`
	Hashtags         []string    `json:"hashtags,omitempty"`
}

// HasMedia reports whether a photo was downloaded for the item.
func (i *Item) HasMedia() bool {
	return i.LocalMedia != ""
}

// ItemQuery narrows ListItems. Zero fields match everything.
type ItemQuery struct {
	SourceType  source.Kind
	SourceLabel string
	Limit       int
}

func (q ItemQuery) matches(item *Item) bool {
	if q.SourceType != "" && item.SourceType != q.SourceType {
		return false
	}
	if q.SourceLabel != "" && item.SourceLabel != q.SourceLabel {
		return false
	}
	return true
}

// RunRecord summarises one scheduled import-and-sweep run.
type RunRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
	Deleted    int       `json:"deleted"`
	Failures   []string  `json:"failures,omitempty"`
}

// Duration is how long the run took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
