// Package storage persists imported items and run records.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/source"
)

// ErrNotFound is returned when an item or run record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the content store the importer writes to.
type Store interface {
	// CreateItem assigns item.ID and saves the item in one write.
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uint64) (*Item, error)
	// ListItems returns matching items, newest CreatedAt first.
	ListItems(ctx context.Context, q ItemQuery) ([]*Item, error)
	// MaxExternalID returns the largest ExternalID stored for the source,
	// with ok false when there is none.
	MaxExternalID(ctx context.Context, kind source.Kind, label string) (id int64, ok bool, err error)
	// ItemsCreatedBefore returns items whose CreatedAt is strictly before cutoff.
	ItemsCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Item, error)
	DeleteItem(ctx context.Context, id uint64) error
	SaveRun(ctx context.Context, run *RunRecord) error
	LastRun(ctx context.Context) (*RunRecord, error)
	Close() error
}

// Open opens the backend named by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverBolt:
		return NewBoltStore(cfg.Path, cfg.Timeout)
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
