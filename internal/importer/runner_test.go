package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/storage"
	"github.com/pders01/tweetsync/internal/twitter"
)

func TestRunner_ImportThenSweep(t *testing.T) {
	store := newStore(t)
	seedAged(t, store, 40)

	f := newFakeFetcher()
	f.timelines["acme"] = []twitter.Post{post(100, "acme", "fresh")}
	f.errs["#drupal"] = &twitter.APIError{Errors: []twitter.ErrorDetail{{Message: "rate limited"}}}

	s := settings("acme", "#drupal")
	s.Expire = config.ExpireMonth

	r := NewRunner(store,
		NewImporter(store, f, WithClock(fixedClock)),
		NewSweeper(store, WithClock(fixedClock)),
		WithClock(fixedClock))

	run, err := r.RunAll(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 1, run.Imported)
	assert.Equal(t, 1, run.Deleted)
	assert.Equal(t, []string{"#drupal: rate limited"}, run.Failures)
	assert.Equal(t, []int64{100}, externalIDs(t, store))

	last, err := store.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID)
	assert.Equal(t, 1, last.Deleted)
}

func TestRunner_SweepSkippedAfterStoreError(t *testing.T) {
	inner := newStore(t)
	seedAged(t, inner, 40)
	store := &failingStore{Store: inner, failCreate: 2}

	f := newFakeFetcher()
	f.timelines["acme"] = []twitter.Post{post(100, "acme", "ok"), post(99, "acme", "fails")}

	s := settings("acme")
	s.Expire = config.ExpireMonth

	r := NewRunner(store, NewImporter(store, f, WithClock(fixedClock)), NewSweeper(store, WithClock(fixedClock)))
	run, err := r.RunAll(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)

	assert.Equal(t, 1, run.Imported)
	assert.Zero(t, run.Deleted)
	assert.Len(t, externalIDs(t, inner), 2, "the expired item survives")
	require.Len(t, run.Failures, 1)
	assert.Contains(t, run.Failures[0], "disk full")

	last, err := inner.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID)
}

func TestRunner_SweepsWhenImportDisabled(t *testing.T) {
	store := newStore(t)
	seedAged(t, store, 400)

	s := settings("acme")
	s.Import = false
	s.Expire = config.ExpireQuarter

	r := NewRunner(store, NewImporter(store, newFakeFetcher()), NewSweeper(store, WithClock(fixedClock)))
	run, err := r.RunAll(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Deleted)

	items, err := store.ListItems(context.Background(), storage.ItemQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
}
