package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultBaseURL  = "https://api.twitter.com"
	defaultTokenURL = "https://api.twitter.com/oauth2/token"
	defaultTimeout  = 30 * time.Second
	maxBodyBytes    = 8 << 20

	timelinePath = "/1.1/statuses/user_timeline.json"
	searchPath   = "/1.1/search/tweets.json"
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets the transport used for both token and API calls.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.base = httpClient
	}
}

// WithBaseURL sets a custom API base URL (useful for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithTokenURL sets the app-only token endpoint.
func WithTokenURL(u string) ClientOption {
	return func(c *Client) {
		c.tokenURL = u
	}
}

// WithUserAgent sets the User-Agent header on API calls.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client calls the timeline and search endpoints with an app-only bearer
// token obtained from the consumer key and secret.
type Client struct {
	baseURL   string
	tokenURL  string
	userAgent string
	base      *http.Client
	http      *http.Client
}

// NewClient creates a client for the given consumer credentials.
func NewClient(consumerKey, consumerSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		tokenURL: defaultTokenURL,
		base:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	creds := clientcredentials.Config{
		ClientID:     consumerKey,
		ClientSecret: consumerSecret,
		TokenURL:     c.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.base)
	c.http = creds.Client(ctx)
	c.http.Timeout = c.base.Timeout

	return c
}

// TimelineParams selects a user's timeline.
type TimelineParams struct {
	ScreenName string
	Count      int
	// SinceID, when non-zero, limits results to ids greater than it
	SinceID int64
}

// SearchParams selects a search query.
type SearchParams struct {
	Query   string
	Count   int
	SinceID int64
}

// UserTimeline returns the most recent posts of a user.
func (c *Client) UserTimeline(ctx context.Context, p TimelineParams) ([]Post, error) {
	q := url.Values{}
	q.Set("screen_name", p.ScreenName)
	setPaging(q, p.Count, p.SinceID)

	var posts []Post
	if err := c.get(ctx, timelinePath, q, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Search returns posts matching the query, flattened out of the "statuses" envelope.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]Post, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	setPaging(q, p.Count, p.SinceID)

	var resp searchResponse
	if err := c.get(ctx, searchPath, q, &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}

func setPaging(q url.Values, count int, sinceID int64) {
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	if sinceID > 0 {
		q.Set("since_id", strconv.FormatInt(sinceID, 10))
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return decodeTokenError(retrieveErr)
		}
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if apiErr := decodeAPIError(resp.StatusCode, body); apiErr != nil {
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// decodeAPIError detects an error body; the timeline endpoint returns an
// object instead of its usual array when something went wrong.
func decodeAPIError(status int, body []byte) *APIError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var apiErr APIError
		if err := json.Unmarshal(trimmed, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			apiErr.StatusCode = status
			return &apiErr
		}
	}
	if status >= 400 {
		return &APIError{StatusCode: status}
	}
	return nil
}

func decodeTokenError(err *oauth2.RetrieveError) error {
	status := 0
	if err.Response != nil {
		status = err.Response.StatusCode
	}
	if apiErr := decodeAPIError(status, err.Body); apiErr != nil {
		return apiErr
	}
	return fmt.Errorf("obtaining bearer token: %w", err)
}
