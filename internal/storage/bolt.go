package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/tweetsync/internal/source"
)

var (
	itemsBucket = []byte("items")
	metaBucket  = []byte("metadata")

	lastRunKey = []byte("last_run")
)

// BoltStore keeps items as JSON values keyed by their big-endian ID.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(dbPath string, timeout time.Duration) (*BoltStore, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{itemsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func (s *BoltStore) CreateItem(ctx context.Context, item *Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating item id: %w", err)
		}
		item.ID = id

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding item: %w", err)
		}
		return b.Put(itob(id), data)
	})
}

func (s *BoltStore) GetItem(ctx context.Context, id uint64) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var item Item
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(itemsBucket).Get(itob(id))
		if data == nil {
			return fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// each decodes every item. An undecodable value fails the whole read, so a
// watermark is never computed from a partial view of the bucket.
func (s *BoltStore) each(fn func(item *Item) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).ForEach(func(k []byte, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decoding item %d: %w", binary.BigEndian.Uint64(k), err)
			}
			return fn(&item)
		})
	})
}

func (s *BoltStore) ListItems(ctx context.Context, q ItemQuery) ([]*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var items []*Item
	err := s.each(func(item *Item) error {
		if q.matches(item) {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(items)
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	return items, nil
}

func sortNewestFirst(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func (s *BoltStore) MaxExternalID(ctx context.Context, kind source.Kind, label string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var (
		maxID int64
		found bool
	)
	err := s.each(func(item *Item) error {
		if item.SourceType != kind || item.SourceLabel != label {
			return nil
		}
		if !found || item.ExternalID > maxID {
			maxID = item.ExternalID
			found = true
		}
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("scanning items: %w", err)
	}
	return maxID, found, nil
}

func (s *BoltStore) ItemsCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var items []*Item
	err := s.each(func(item *Item) error {
		if item.CreatedAt.Before(cutoff) {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *BoltStore) DeleteItem(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		if b.Get(itob(id)) == nil {
			return fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
		return b.Delete(itob(id))
	})
}

func (s *BoltStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(lastRunKey, data)
	})
}

func (s *BoltStore) LastRun(ctx context.Context) (*RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var run RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(lastRunKey)
		if data == nil {
			return fmt.Errorf("last run: %w", ErrNotFound)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}
