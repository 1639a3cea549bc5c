package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/tweetsync/internal/debuglog"
	"github.com/pders01/tweetsync/internal/render"
	"github.com/pders01/tweetsync/internal/storage"
)

// BleveIndex is a full-text index over stored items. Hits are resolved back
// to items through the store, so the index only stores what it scores.
type BleveIndex struct {
	store storage.Store
	idx   bleve.Index
	log   *debuglog.FieldLogger
}

// NewBleveIndex opens or creates the index at indexPath and indexes every
// stored item. An empty indexPath keeps the index in memory.
func NewBleveIndex(ctx context.Context, store storage.Store, indexPath string) (*BleveIndex, error) {
	idx, err := openIndex(indexPath)
	if err != nil {
		return nil, err
	}

	b := &BleveIndex{store: store, idx: idx, log: debuglog.Component("search")}
	if err := b.Reindex(ctx); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return b, nil
}

func openIndex(indexPath string) (bleve.Index, error) {
	if indexPath == "" {
		return bleve.NewMemOnly(buildIndexMapping())
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(indexPath, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", indexPath, err)
	}
	return idx, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false
	content.IncludeTermVectors = true

	label := bleve.NewTextFieldMapping()
	label.Analyzer = standard.Name
	label.Store = true

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.Store = false

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true

	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("source_label", label)
	dm.AddFieldMappingsAt("hashtags", tags)
	dm.AddFieldMappingsAt("mentions", tags)
	dm.AddFieldMappingsAt("title", title)

	im.DefaultMapping = dm
	return im
}

func itemDocument(item *storage.Item) map[string]any {
	return map[string]any{
		"content":      render.PlainText(item.Content),
		"source_label": item.SourceLabel,
		"hashtags":     item.Hashtags,
		"mentions":     item.Mentions,
		"title":        item.Title,
	}
}

func docID(id uint64) string { return strconv.FormatUint(id, 10) }

// Reindex indexes every stored item.
func (b *BleveIndex) Reindex(ctx context.Context) error {
	items, err := b.store.ListItems(ctx, storage.ItemQuery{})
	if err != nil {
		return fmt.Errorf("listing items for index: %w", err)
	}

	batch := b.idx.NewBatch()
	for _, item := range items {
		if err := batch.Index(docID(item.ID), itemDocument(item)); err != nil {
			return fmt.Errorf("indexing item %d: %w", item.ID, err)
		}
	}
	return b.idx.Batch(batch)
}

// Search runs an OR of per-term match and prefix queries, boosted by field.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	fields := []struct {
		name  string
		boost float64
	}{
		{"content", 2.0},
		{"source_label", 1.5},
		{"hashtags", 1.2},
		{"mentions", 1.2},
		{"title", 0.5},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range fields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.8)

			qs = append(qs, mq, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		item, err := b.store.GetItem(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			// expired while the index was closed
			if err := b.idx.Delete(h.ID); err != nil {
				b.log.Warnf("dropping stale document %s: %v", h.ID, err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, &Result{Item: item, Score: h.Score})
	}
	return out, nil
}

// OnItemsSaved indexes newly imported items.
func (b *BleveIndex) OnItemsSaved(items []*storage.Item) {
	batch := b.idx.NewBatch()
	for _, item := range items {
		if err := batch.Index(docID(item.ID), itemDocument(item)); err != nil {
			b.log.Warnf("indexing item %d: %v", item.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		b.log.Errorf("index batch failed: %v", err)
	}
}

// OnItemsDeleted drops expired items from the index.
func (b *BleveIndex) OnItemsDeleted(ids []uint64) {
	batch := b.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(docID(id))
	}
	if err := b.idx.Batch(batch); err != nil {
		b.log.Errorf("index delete failed: %v", err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveIndex) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveIndex) Close() error {
	return b.idx.Close()
}
