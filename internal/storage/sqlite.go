package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pders01/tweetsync/internal/source"
)

// SQLiteStore keeps items in a single table; times are unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer; keeps the file lock simple
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id INTEGER NOT NULL,
		source_type TEXT NOT NULL,
		source_label TEXT NOT NULL,
		source_url TEXT,
		title TEXT,
		content TEXT,
		created_at INTEGER NOT NULL,
		imported_at INTEGER NOT NULL,
		local_media TEXT,
		external_media_url TEXT,
		mentions TEXT,
		hashtags TEXT
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		imported INTEGER,
		skipped INTEGER,
		deleted INTEGER,
		failures TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_items_source ON items(source_type, source_label);
	CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const itemColumns = `id, external_id, source_type, source_label, source_url, title, content,
	created_at, imported_at, local_media, external_media_url, mentions, hashtags`

func (s *SQLiteStore) CreateItem(ctx context.Context, item *Item) error {
	mentionsJSON, _ := json.Marshal(item.Mentions)
	hashtagsJSON, _ := json.Marshal(item.Hashtags)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (external_id, source_type, source_label, source_url, title, content,
			created_at, imported_at, local_media, external_media_url, mentions, hashtags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ExternalID, string(item.SourceType), item.SourceLabel, item.SourceURL, item.Title, item.Content,
		item.CreatedAt.UnixNano(), item.ImportedAt.UnixNano(), item.LocalMedia, item.ExternalMediaURL,
		string(mentionsJSON), string(hashtagsJSON))
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading item id: %w", err)
	}
	item.ID = uint64(id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item                   Item
		sourceType             string
		createdAt, importedAt  int64
		sourceURL, title       sql.NullString
		content, localMedia    sql.NullString
		externalMedia          sql.NullString
		mentionsJSON, tagsJSON sql.NullString
	)
	err := row.Scan(&item.ID, &item.ExternalID, &sourceType, &item.SourceLabel, &sourceURL, &title, &content,
		&createdAt, &importedAt, &localMedia, &externalMedia, &mentionsJSON, &tagsJSON)
	if err != nil {
		return nil, err
	}

	item.SourceType = source.Kind(sourceType)
	item.SourceURL = sourceURL.String
	item.Title = title.String
	item.Content = content.String
	item.LocalMedia = localMedia.String
	item.ExternalMediaURL = externalMedia.String
	item.CreatedAt = time.Unix(0, createdAt).UTC()
	item.ImportedAt = time.Unix(0, importedAt).UTC()
	if mentionsJSON.Valid {
		_ = json.Unmarshal([]byte(mentionsJSON.String), &item.Mentions)
	}
	if tagsJSON.Valid {
		_ = json.Unmarshal([]byte(tagsJSON.String), &item.Hashtags)
	}
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetItem(ctx context.Context, id uint64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading item %d: %w", id, err)
	}
	return item, nil
}

func (s *SQLiteStore) ListItems(ctx context.Context, q ItemQuery) ([]*Item, error) {
	var (
		where []string
		args  []any
	)
	if q.SourceType != "" {
		where = append(where, "source_type = ?")
		args = append(args, string(q.SourceType))
	}
	if q.SourceLabel != "" {
		where = append(where, "source_label = ?")
		args = append(args, q.SourceLabel)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (s *SQLiteStore) MaxExternalID(ctx context.Context, kind source.Kind, label string) (int64, bool, error) {
	var maxID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(external_id) FROM items WHERE source_type = ? AND source_label = ?`,
		string(kind), label,
	).Scan(&maxID)
	if err != nil {
		return 0, false, fmt.Errorf("querying max external id: %w", err)
	}
	return maxID.Int64, maxID.Valid, nil
}

func (s *SQLiteStore) ItemsCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE created_at < ? ORDER BY created_at`,
		cutoff.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("selecting expired items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id uint64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	failuresJSON, _ := json.Marshal(run.Failures)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, imported, skipped, deleted, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			imported = excluded.imported,
			skipped = excluded.skipped,
			deleted = excluded.deleted,
			failures = excluded.failures
	`, run.ID, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.Imported, run.Skipped, run.Deleted, string(failuresJSON))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LastRun(ctx context.Context) (*RunRecord, error) {
	var (
		run                   RunRecord
		startedAt, finishedAt int64
		failuresJSON          sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, imported, skipped, deleted, failures
		FROM runs ORDER BY started_at DESC LIMIT 1
	`).Scan(&run.ID, &startedAt, &finishedAt, &run.Imported, &run.Skipped, &run.Deleted, &failuresJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("last run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.FinishedAt = time.Unix(0, finishedAt).UTC()
	if failuresJSON.Valid {
		_ = json.Unmarshal([]byte(failuresJSON.String), &run.Failures)
	}
	return &run, nil
}
