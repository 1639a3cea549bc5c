package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/debuglog"
	"github.com/pders01/tweetsync/internal/importer"
	"github.com/pders01/tweetsync/internal/media"
	"github.com/pders01/tweetsync/internal/search"
	"github.com/pders01/tweetsync/internal/storage"
	"github.com/pders01/tweetsync/internal/twitter"
	"github.com/pders01/tweetsync/internal/validation"
)

// env is everything one command invocation opens. Close releases it.
type env struct {
	cfg      *config.Config
	store    storage.Store
	searcher search.Searcher
	index    *search.BleveIndex
}

func (e *env) Close() {
	if e.index != nil {
		_ = e.index.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

// resolvePaths validates the on-disk locations and writes the cleaned
// values back into cfg.
func resolvePaths(cfg *config.Config) error {
	ph := validation.NewPermissivePathHandler()

	db, err := ph.DBPath(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	cfg.Database.Path = db

	if cfg.Search.IndexPath != "" {
		idx, err := ph.IndexPath(cfg.Search.IndexPath)
		if err != nil {
			return fmt.Errorf("invalid index path: %w", err)
		}
		cfg.Search.IndexPath = idx
	}
	return nil
}

// openEnv opens the store and, when withSearch is set, the search backend.
func openEnv(ctx context.Context, cfg *config.Config, withSearch bool) (*env, error) {
	if err := resolvePaths(cfg); err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	e := &env{cfg: cfg, store: store}

	if !withSearch {
		return e, nil
	}
	if cfg.Search.IndexPath == "" {
		e.searcher = search.NewEngine(store)
		return e, nil
	}

	idx, err := search.NewBleveIndex(ctx, store, cfg.Search.IndexPath)
	if err != nil {
		debuglog.Component("search").Warnf("index unavailable, using in-memory search: %v", err)
		e.searcher = search.NewEngine(store)
		return e, nil
	}
	e.index = idx
	e.searcher = idx
	return e, nil
}

// newHTTPClient is shared by the API client and the photo downloader.
func newHTTPClient(cfg config.TwitterConfig) *http.Client {
	return &http.Client{Timeout: cfg.HTTPTimeout}
}

// newFetcher builds an API client for a set of credentials.
func newFetcher(cfg config.TwitterConfig) func(key, secret string) importer.Fetcher {
	return func(key, secret string) importer.Fetcher {
		return twitter.NewClient(key, secret,
			twitter.WithBaseURL(cfg.APIBaseURL),
			twitter.WithTokenURL(cfg.TokenURL),
			twitter.WithHTTPClient(newHTTPClient(cfg)),
			twitter.WithUserAgent(cfg.UserAgent),
		)
	}
}

// pipeline is the importer and sweeper sharing one set of options.
type pipeline struct {
	importer *importer.Importer
	sweeper  *importer.Sweeper
	runner   *importer.Runner
}

// newPipeline wires the importer, the sweeper and the search index together.
func (e *env) newPipeline() (*pipeline, error) {
	cfg := e.cfg

	dir, err := validation.NewPermissivePathHandler().MediaDir(cfg.Media.Dir)
	if err != nil {
		return nil, fmt.Errorf("invalid media directory: %w", err)
	}
	dl, err := media.NewDownloader(dir,
		media.WithClient(newHTTPClient(cfg.Twitter)),
		media.WithMaxBytes(cfg.Media.MaxBytes),
		media.WithUserAgent(cfg.Twitter.UserAgent),
	)
	if err != nil {
		return nil, err
	}

	opts := []importer.Option{
		importer.WithLogger(debuglog.Component("importer")),
		importer.WithMediaDownloader(dl),
		importer.WithMediaRemover(dl),
	}
	if e.index != nil {
		opts = append(opts, importer.WithListener(e.index))
	}

	fetch := newFetcher(cfg.Twitter)(cfg.Settings.ConsumerKey, cfg.Settings.ConsumerSecret)
	im := importer.NewImporter(e.store, fetch, opts...)
	sw := importer.NewSweeper(e.store, opts...)
	return &pipeline{
		importer: im,
		sweeper:  sw,
		runner:   importer.NewRunner(e.store, im, sw, opts...),
	}, nil
}
