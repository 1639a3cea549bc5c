package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/source"
	"github.com/pders01/tweetsync/internal/storage"
	"github.com/pders01/tweetsync/internal/twitter"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func newStore(t *testing.T) *storage.BoltStore {
	t.Helper()
	s, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "test.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func post(id int64, author, text string) twitter.Post {
	return twitter.Post{
		ID:        id,
		CreatedAt: now.Add(time.Duration(id-1000) * time.Minute).Format(twitter.CreatedAtLayout),
		Text:      text,
		User:      twitter.User{ScreenName: author},
	}
}

func settings(sources ...string) config.Settings {
	return config.Settings{
		Import:         true,
		Usernames:      sources,
		Count:          20,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
	}
}

// fakeFetcher serves canned posts per query and honours since_id the way the
// API does.
type fakeFetcher struct {
	mu        sync.Mutex
	timelines map[string][]twitter.Post
	searches  map[string][]twitter.Post
	errs      map[string]error

	timelineCalls []twitter.TimelineParams
	searchCalls   []twitter.SearchParams
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		timelines: map[string][]twitter.Post{},
		searches:  map[string][]twitter.Post{},
		errs:      map[string]error{},
	}
}

func newerThan(posts []twitter.Post, sinceID int64) []twitter.Post {
	if sinceID <= 0 {
		return posts
	}
	var out []twitter.Post
	for _, p := range posts {
		if p.ID > sinceID {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeFetcher) UserTimeline(_ context.Context, p twitter.TimelineParams) ([]twitter.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timelineCalls = append(f.timelineCalls, p)
	if err := f.errs[p.ScreenName]; err != nil {
		return nil, err
	}
	return newerThan(f.timelines[p.ScreenName], p.SinceID), nil
}

func (f *fakeFetcher) Search(_ context.Context, p twitter.SearchParams) ([]twitter.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, p)
	if err := f.errs[p.Query]; err != nil {
		return nil, err
	}
	return newerThan(f.searches[p.Query], p.SinceID), nil
}

var errDisk = errors.New("disk full")

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	storage.Store
	failMax    bool
	failCreate int // fail on the n-th CreateItem, 1-based; 0 never
	failDelete bool
	creates    int
}

func (s *failingStore) MaxExternalID(ctx context.Context, kind source.Kind, label string) (int64, bool, error) {
	if s.failMax {
		return 0, false, errDisk
	}
	return s.Store.MaxExternalID(ctx, kind, label)
}

func (s *failingStore) CreateItem(ctx context.Context, item *storage.Item) error {
	s.creates++
	if s.failCreate > 0 && s.creates >= s.failCreate {
		return errDisk
	}
	return s.Store.CreateItem(ctx, item)
}

func (s *failingStore) DeleteItem(ctx context.Context, id uint64) error {
	if s.failDelete {
		return errDisk
	}
	return s.Store.DeleteItem(ctx, id)
}

type fakeDownloader struct {
	fail  map[string]bool
	calls []string
}

func (d *fakeDownloader) Download(_ context.Context, url string) (string, error) {
	d.calls = append(d.calls, url)
	if d.fail[url] {
		return "", fmt.Errorf("HTTP 404")
	}
	return "/media/" + filepath.Base(url), nil
}

type fakeRemover struct {
	removed []string
	err     error
}

func (r *fakeRemover) Remove(path string) error {
	r.removed = append(r.removed, path)
	return r.err
}

type recordingListener struct {
	saved   []uint64
	deleted []uint64
}

func (l *recordingListener) OnItemsSaved(items []*storage.Item) {
	for _, it := range items {
		l.saved = append(l.saved, it.ID)
	}
}

func (l *recordingListener) OnItemsDeleted(ids []uint64) {
	l.deleted = append(l.deleted, ids...)
}

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(f string, a ...any) { l.add("DEBUG", f, a...) }
func (l *recordingLogger) Infof(f string, a ...any)  { l.add("INFO", f, a...) }
func (l *recordingLogger) Warnf(f string, a ...any)  { l.add("WARN", f, a...) }
func (l *recordingLogger) Errorf(f string, a ...any) { l.add("ERROR", f, a...) }

func externalIDs(t *testing.T, s storage.Store) []int64 {
	t.Helper()
	items, err := s.ListItems(context.Background(), storage.ItemQuery{})
	require.NoError(t, err)
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ExternalID)
	}
	return ids
}
