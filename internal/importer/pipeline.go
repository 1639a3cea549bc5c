package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/render"
	"github.com/pders01/tweetsync/internal/source"
	"github.com/pders01/tweetsync/internal/storage"
	"github.com/pders01/tweetsync/internal/twitter"
)

// Failure is a source that could not be imported in a run.
type Failure struct {
	Source  string
	Message string
}

func (f Failure) String() string {
	return f.Source + ": " + f.Message
}

// Report counts what one import run did.
type Report struct {
	Imported int
	Skipped  int
	Failures []Failure
}

// Importer is the import pipeline.
type Importer struct {
	store      storage.Store
	cursor     *Cursor
	dispatcher *Dispatcher
	options
}

func NewImporter(store storage.Store, fetcher Fetcher, opts ...Option) *Importer {
	return &Importer{
		store:      store,
		cursor:     NewCursor(store),
		dispatcher: NewDispatcher(fetcher),
		options:    buildOptions(opts),
	}
}

// Run imports every configured source. It does nothing when importing is
// switched off. A store error stops the run; the report is still returned
// with everything committed up to that point.
func (im *Importer) Run(ctx context.Context, settings config.Settings) (Report, error) {
	var report Report
	if !settings.Import {
		im.log.Debugf("import disabled, skipping")
		return report, nil
	}

	for _, raw := range settings.Usernames {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		src, err := source.Parse(raw)
		if err != nil {
			im.log.Warnf("skipping source %q: %v", raw, err)
			report.Failures = append(report.Failures, Failure{Source: raw, Message: err.Error()})
			continue
		}

		if err := im.importSource(ctx, src, settings.Count, &report); err != nil {
			return report, err
		}
	}

	im.log.Infof("import finished: %d imported, %d skipped, %d failed sources",
		report.Imported, report.Skipped, len(report.Failures))
	return report, nil
}

func (im *Importer) importSource(ctx context.Context, src source.Source, count int, report *Report) error {
	// a missing watermark comes back as 0, which the API treats as none
	sinceID, _, err := im.cursor.MaxSeenID(ctx, src)
	if err != nil {
		im.log.Warnf("fetching %s without watermark: %v", src, err)
		sinceID = 0
	}

	mode, posts, err := im.dispatcher.Fetch(ctx, src, count, sinceID)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = newFetchError(src, err)
		}
		im.log.Errorf("%v", fe)
		report.Failures = append(report.Failures, Failure{Source: fe.Source, Message: fe.Message})
		return nil
	}
	im.log.Debugf("fetched %d posts for %s (since_id=%d)", len(posts), src, sinceID)

	saved := make([]*storage.Item, 0, len(posts))
	defer func() { im.notifySaved(saved) }()

	for _, post := range posts {
		item, ok := im.buildItem(ctx, mode, src, post)
		if !ok {
			report.Skipped++
			continue
		}

		if err := im.store.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("saving tweet %d from %s: %w", post.ID, src, err)
		}
		saved = append(saved, item)
		report.Imported++
	}
	return nil
}

func (im *Importer) buildItem(ctx context.Context, mode source.Kind, src source.Source, post twitter.Post) (*storage.Item, bool) {
	if post.ID <= 0 || post.Text == "" {
		im.log.Debugf("skipping malformed post from %s: id=%d", src, post.ID)
		return nil, false
	}
	created, err := post.Created()
	if err != nil {
		im.log.Debugf("skipping post %d from %s: %v", post.ID, src, err)
		return nil, false
	}

	item := &storage.Item{
		ExternalID: post.ID,
		SourceType: mode,
		Title:      "Tweet #" + strconv.FormatInt(post.ID, 10),
		Content:    render.Render(post.Text, post.Entities),
		CreatedAt:  created,
		ImportedAt: im.now(),
	}

	switch mode {
	case source.KindHashtag:
		item.SourceLabel = src.Label
		item.SourceURL = render.SearchURL(src.Raw)
	default:
		item.SourceLabel = post.User.ScreenName
		if item.SourceLabel == "" {
			item.SourceLabel = src.Label
		}
		item.SourceURL = render.ProfileURL(item.SourceLabel)
	}

	for _, m := range post.Entities.UserMentions {
		item.Mentions = appendUnique(item.Mentions, m.ScreenName)
	}
	for _, h := range post.Entities.Hashtags {
		item.Hashtags = appendUnique(item.Hashtags, h.Text)
	}

	im.attachMedia(ctx, item, post.Entities.Media)
	return item, true
}

// attachMedia downloads every photo; the last one that succeeds is kept.
func (im *Importer) attachMedia(ctx context.Context, item *storage.Item, media []twitter.Media) {
	if im.download == nil {
		return
	}
	for _, m := range media {
		if !m.IsPhoto() {
			continue
		}
		local, err := im.download.Download(ctx, m.DownloadURL())
		if err != nil {
			im.log.Warnf("tweet %d: media %s not saved: %v", item.ExternalID, m.DownloadURL(), err)
			continue
		}
		item.LocalMedia = local
		item.ExternalMediaURL = m.MediaURL
		if item.ExternalMediaURL == "" {
			item.ExternalMediaURL = m.MediaURLHTTPS
		}
	}
}

func appendUnique(set []string, v string) []string {
	if v == "" {
		return set
	}
	for _, s := range set {
		if s == v {
			return set
		}
	}
	return append(set, v)
}
