package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/tweetsync/internal/source"
)

// ErrCursorUnavailable wraps store failures while reading a watermark.
var ErrCursorUnavailable = errors.New("cursor unavailable")

type watermarkStore interface {
	MaxExternalID(ctx context.Context, kind source.Kind, label string) (int64, bool, error)
}

// Cursor reads the highest tweet id already stored for a source.
type Cursor struct {
	store watermarkStore
}

func NewCursor(store watermarkStore) *Cursor {
	return &Cursor{store: store}
}

// MaxSeenID returns the watermark for src. ok is false when nothing has been
// imported for it yet. Items are matched on kind and marker-less label, so
// "@acme" and "acme" share a watermark.
func (c *Cursor) MaxSeenID(ctx context.Context, src source.Source) (id int64, ok bool, err error) {
	id, ok, err = c.store.MaxExternalID(ctx, src.Kind, src.Label)
	if err != nil {
		return 0, false, fmt.Errorf("%w for %s: %w", ErrCursorUnavailable, src, err)
	}
	return id, ok, nil
}
