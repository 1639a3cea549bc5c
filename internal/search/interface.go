package search

import (
	"context"

	"github.com/pders01/tweetsync/internal/storage"
)

// Searcher is the query API used by the CLI and the browser.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
}

// Indexer is implemented by engines that keep their own index and need to
// hear about imported and expired items. It matches importer.ItemListener.
type Indexer interface {
	OnItemsSaved(items []*storage.Item)
	OnItemsDeleted(ids []uint64)
}

// DocCounter reports how many documents an index holds.
type DocCounter interface {
	DocCount() (int, error)
}
