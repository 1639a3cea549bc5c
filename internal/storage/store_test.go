package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/source"
)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{name: "bolt", open: func(t *testing.T) Store {
			s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"), time.Second)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}},
		{name: "sqlite", open: func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.sqlite"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newItem(externalID int64, kind source.Kind, label string, created time.Time) *Item {
	return &Item{
		ExternalID:  externalID,
		SourceType:  kind,
		SourceLabel: label,
		SourceURL:   "https://twitter.com/" + label,
		Title:       "Tweet",
		Content:     "content",
		CreatedAt:   created,
		ImportedAt:  base,
	}
}

func TestStore_CreateAndGetItem(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		item := newItem(12, source.KindUsername, "acme", base)
		item.Mentions = []string{"bob", "carol"}
		item.Hashtags = []string{"golang"}
		item.LocalMedia = "/tmp/media/a.jpg"
		item.ExternalMediaURL = "http://pbs.twimg.com/a.jpg"

		require.NoError(t, s.CreateItem(ctx, item))
		assert.NotZero(t, item.ID)

		got, err := s.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ExternalID, got.ExternalID)
		assert.Equal(t, source.KindUsername, got.SourceType)
		assert.Equal(t, "acme", got.SourceLabel)
		assert.Equal(t, item.SourceURL, got.SourceURL)
		assert.Equal(t, []string{"bob", "carol"}, got.Mentions)
		assert.Equal(t, []string{"golang"}, got.Hashtags)
		assert.Equal(t, "/tmp/media/a.jpg", got.LocalMedia)
		assert.True(t, got.HasMedia())
		assert.True(t, base.Equal(got.CreatedAt))
	})
}

func TestStore_IDsAreStoreAssigned(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		a := newItem(7, source.KindUsername, "acme", base)
		b := newItem(7, source.KindUsername, "acme", base)

		require.NoError(t, s.CreateItem(ctx, a))
		require.NoError(t, s.CreateItem(ctx, b))
		assert.NotEqual(t, a.ID, b.ID, "same tweet id imported twice yields two items")

		items, err := s.ListItems(ctx, ItemQuery{})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestStore_GetItemNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		_, err := s.GetItem(context.Background(), 999)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(s.DeleteItem(context.Background(), 999), ErrNotFound))
	})
}

func TestStore_MaxExternalID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, ok, err := s.MaxExternalID(ctx, source.KindUsername, "acme")
		require.NoError(t, err)
		assert.False(t, ok)

		for _, id := range []int64{5, 9, 3} {
			require.NoError(t, s.CreateItem(ctx, newItem(id, source.KindUsername, "acme", base)))
		}
		require.NoError(t, s.CreateItem(ctx, newItem(50, source.KindUsername, "other", base)))
		require.NoError(t, s.CreateItem(ctx, newItem(60, source.KindHashtag, "acme", base)))

		id, ok, err := s.MaxExternalID(ctx, source.KindUsername, "acme")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(9), id)

		id, ok, err = s.MaxExternalID(ctx, source.KindHashtag, "acme")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(60), id)
	})
}

func TestStore_ListItems(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateItem(ctx, newItem(1, source.KindUsername, "acme", base.Add(-2*time.Hour))))
		require.NoError(t, s.CreateItem(ctx, newItem(2, source.KindUsername, "acme", base)))
		require.NoError(t, s.CreateItem(ctx, newItem(3, source.KindHashtag, "drupal", base.Add(-time.Hour))))

		all, err := s.ListItems(ctx, ItemQuery{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{2, 3, 1}, externalIDs(all))

		tagged, err := s.ListItems(ctx, ItemQuery{SourceType: source.KindHashtag})
		require.NoError(t, err)
		assert.Equal(t, []int64{3}, externalIDs(tagged))

		acme, err := s.ListItems(ctx, ItemQuery{SourceLabel: "acme", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, externalIDs(acme))
	})
}

func TestStore_ItemsCreatedBeforeAndDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		old := newItem(1, source.KindUsername, "acme", base.AddDate(0, 0, -40))
		recent := newItem(2, source.KindUsername, "acme", base.AddDate(0, 0, -10))
		require.NoError(t, s.CreateItem(ctx, old))
		require.NoError(t, s.CreateItem(ctx, recent))

		expired, err := s.ItemsCreatedBefore(ctx, base.AddDate(0, 0, -30))
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, old.ID, expired[0].ID)

		// strictly before
		none, err := s.ItemsCreatedBefore(ctx, old.CreatedAt)
		require.NoError(t, err)
		assert.Empty(t, none)

		require.NoError(t, s.DeleteItem(ctx, old.ID))
		left, err := s.ListItems(ctx, ItemQuery{})
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, externalIDs(left))
	})
}

func TestStore_Runs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.LastRun(ctx)
		assert.True(t, errors.Is(err, ErrNotFound))

		require.NoError(t, s.SaveRun(ctx, &RunRecord{ID: "a", StartedAt: base, FinishedAt: base.Add(time.Second), Imported: 1}))
		run := &RunRecord{
			ID:         "b",
			StartedAt:  base.Add(time.Hour),
			FinishedAt: base.Add(time.Hour + 3*time.Second),
			Imported:   4,
			Skipped:    1,
			Deleted:    2,
			Failures:   []string{"#drupal: rate limited"},
		}
		require.NoError(t, s.SaveRun(ctx, run))

		got, err := s.LastRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", got.ID)
		assert.Equal(t, 4, got.Imported)
		assert.Equal(t, 1, got.Skipped)
		assert.Equal(t, 2, got.Deleted)
		assert.Equal(t, []string{"#drupal: rate limited"}, got.Failures)
		assert.Equal(t, 3*time.Second, got.Duration())
	})
}

func TestStore_CanceledContext(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, s.CreateItem(ctx, newItem(1, source.KindUsername, "acme", base)))
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, driver := range []string{"", config.DriverBolt, config.DriverSQLite} {
		s, err := Open(config.DatabaseConfig{Driver: driver, Path: filepath.Join(dir, "db-"+driver), Timeout: time.Second})
		require.NoError(t, err, driver)
		require.NoError(t, s.Close())
	}

	_, err := Open(config.DatabaseConfig{Driver: "postgres", Path: filepath.Join(dir, "x")})
	assert.Error(t, err)
}

func externalIDs(items []*Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ExternalID)
	}
	return ids
}

func TestBoltStore_CorruptItemFailsReads(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.CreateItem(ctx, &Item{ExternalID: 5, SourceType: source.KindUsername, SourceLabel: "acme"}))
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).Put(itob(99), []byte("{not json"))
	}))

	_, _, err = s.MaxExternalID(ctx, source.KindUsername, "acme")
	assert.ErrorContains(t, err, "decoding item 99")

	_, err = s.ListItems(ctx, ItemQuery{})
	assert.Error(t, err)
}
