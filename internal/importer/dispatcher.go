package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/tweetsync/internal/source"
	"github.com/pders01/tweetsync/internal/twitter"
)

// Fetcher is the remote API. *twitter.Client implements it.
type Fetcher interface {
	UserTimeline(ctx context.Context, p twitter.TimelineParams) ([]twitter.Post, error)
	Search(ctx context.Context, p twitter.SearchParams) ([]twitter.Post, error)
}

// FetchError is a failed fetch for one source. Message is the remote error
// message when the API sent one.
type FetchError struct {
	Source  string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.Source, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Dispatcher routes hashtags to search and usernames to their timeline.
type Dispatcher struct {
	fetcher Fetcher
}

func NewDispatcher(f Fetcher) *Dispatcher {
	return &Dispatcher{fetcher: f}
}

// Fetch returns up to count posts newer than sinceID (0 means no watermark).
// On failure posts is nil and err is a *FetchError.
func (d *Dispatcher) Fetch(ctx context.Context, src source.Source, count int, sinceID int64) (source.Kind, []twitter.Post, error) {
	var (
		posts []twitter.Post
		err   error
	)

	switch src.Kind {
	case source.KindHashtag:
		posts, err = d.fetcher.Search(ctx, twitter.SearchParams{
			Query:   src.Raw,
			Count:   count,
			SinceID: sinceID,
		})
	default:
		posts, err = d.fetcher.UserTimeline(ctx, twitter.TimelineParams{
			ScreenName: src.Label,
			Count:      count,
			SinceID:    sinceID,
		})
	}

	if err != nil {
		return src.Kind, nil, newFetchError(src, err)
	}
	return src.Kind, posts, nil
}

func newFetchError(src source.Source, err error) *FetchError {
	msg := err.Error()
	var apiErr *twitter.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message()
	}
	return &FetchError{Source: src.Raw, Message: msg, Err: err}
}
