package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/pders01/tweetsync/internal/storage"
)

// Sweeper deletes items older than the retention window.
type Sweeper struct {
	store storage.Store
	options
}

func NewSweeper(store storage.Store, opts ...Option) *Sweeper {
	return &Sweeper{store: store, options: buildOptions(opts)}
}

// Sweep deletes every item created more than retentionSeconds ago and
// returns how many went. Zero keeps everything.
func (s *Sweeper) Sweep(ctx context.Context, retentionSeconds int) (int, error) {
	if retentionSeconds <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-time.Duration(retentionSeconds) * time.Second)
	expired, err := s.store.ItemsCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("selecting items before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	deleted := make([]uint64, 0, len(expired))
	defer func() { s.notifyDeleted(deleted) }()

	for _, item := range expired {
		if err := s.store.DeleteItem(ctx, item.ID); err != nil {
			return len(deleted), fmt.Errorf("deleting item %d: %w", item.ID, err)
		}
		deleted = append(deleted, item.ID)

		if item.LocalMedia != "" && s.remove != nil {
			if err := s.remove.Remove(item.LocalMedia); err != nil {
				s.log.Warnf("item %d: %v", item.ID, err)
			}
		}
	}

	if len(deleted) > 0 {
		s.log.Infof("expired %d items created before %s", len(deleted), cutoff.Format(time.RFC3339))
	}
	return len(deleted), nil
}
