// Package importer pulls tweets for the configured sources into the item
// store and expires old items.
//
// One run is strictly sequential: sources are processed in configured order,
// posts in the order the API returned them. A failing source is recorded in
// the Report and skipped; only a store write failure aborts the run.
package importer

import (
	"context"
	"time"

	"github.com/pders01/tweetsync/internal/storage"
)

// Logger is the leveled logger the importer writes to. *debuglog.FieldLogger
// satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// ItemListener is told about store changes, e.g. to keep a search index in sync.
type ItemListener interface {
	OnItemsSaved(items []*storage.Item)
	OnItemsDeleted(ids []uint64)
}

// MediaDownloader saves a remote photo and returns its local path.
type MediaDownloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// MediaRemover deletes a file returned by MediaDownloader.
type MediaRemover interface {
	Remove(path string) error
}

type options struct {
	log       Logger
	now       func() time.Time
	listeners []ItemListener
	download  MediaDownloader
	remove    MediaRemover
}

// Option configures an Importer, Sweeper or Runner.
type Option func(*options)

func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithListener(l ItemListener) Option {
	return func(o *options) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// WithMediaDownloader enables photo downloads. Without it media fields stay empty.
func WithMediaDownloader(d MediaDownloader) Option {
	return func(o *options) { o.download = d }
}

// WithMediaRemover lets the Sweeper delete local photos of expired items.
func WithMediaRemover(r MediaRemover) Option {
	return func(o *options) { o.remove = r }
}

func buildOptions(opts []Option) options {
	o := options{log: nopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) notifySaved(items []*storage.Item) {
	if len(items) == 0 {
		return
	}
	for _, l := range o.listeners {
		l.OnItemsSaved(items)
	}
}

func (o *options) notifyDeleted(ids []uint64) {
	if len(ids) == 0 {
		return
	}
	for _, l := range o.listeners {
		l.OnItemsDeleted(ids)
	}
}
