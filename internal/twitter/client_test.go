package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timelineBody = `[
  {
    "id": 12,
    "created_at": "Wed Oct 10 20:19:24 +0000 2018",
    "text": "Hello @bob #golang https://t.co/abc",
    "user": {"screen_name": "acme", "name": "Acme"},
    "entities": {
      "hashtags": [{"text": "golang", "indices": [11, 18]}],
      "user_mentions": [{"screen_name": "bob", "id": 7}],
      "urls": [{"url": "https://t.co/abc", "expanded_url": "https://example.org"}]
    },
    "retweet_count": 3
  }
]`

type apiServer struct {
	*httptest.Server
	tokenCalls atomic.Int32
	lastQuery  atomic.Value
}

func newAPIServer(t *testing.T, handler http.HandlerFunc) *apiServer {
	t.Helper()
	s := &apiServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		s.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":[{"code":99,"message":"Unable to verify your credentials"}]}`))
			return
		}
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected token request form: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"bearer","access_token":"AAAA"}`))
	})
	mux.HandleFunc("/1.1/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer AAAA" {
			t.Errorf("expected bearer token, got %q", got)
		}
		s.lastQuery.Store(r.URL.Query())
		handler(w, r)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) client(key, secret string) *Client {
	return NewClient(key, secret,
		WithBaseURL(s.URL),
		WithTokenURL(s.URL+"/oauth2/token"),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
		WithUserAgent("tweetsync-test/1.0"),
	)
}

func TestClient_UserTimeline(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, timelinePath, r.URL.Path)
		assert.Equal(t, "tweetsync-test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(timelineBody))
	})

	posts, err := srv.client("key", "secret").UserTimeline(context.Background(), TimelineParams{
		ScreenName: "acme",
		Count:      5,
		SinceID:    9,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	q := srv.lastQuery.Load().(url.Values)
	assert.Equal(t, []string{"acme"}, q["screen_name"])
	assert.Equal(t, []string{"5"}, q["count"])
	assert.Equal(t, []string{"9"}, q["since_id"])

	p := posts[0]
	assert.Equal(t, int64(12), p.ID)
	assert.Equal(t, "acme", p.User.ScreenName)
	assert.Equal(t, []Hashtag{{Text: "golang"}}, p.Entities.Hashtags)
	assert.Equal(t, []Mention{{ScreenName: "bob"}}, p.Entities.UserMentions)
	assert.Nil(t, p.Entities.Media)

	created, err := p.Created()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 10, 10, 20, 19, 24, 0, time.UTC), created.UTC())
}

func TestClient_SearchFlattensStatuses(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, searchPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"statuses":` + timelineBody + `,"search_metadata":{"count":1}}`))
	})

	posts, err := srv.client("key", "secret").Search(context.Background(), SearchParams{Query: "#drupal", Count: 1})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	q := srv.lastQuery.Load().(url.Values)
	assert.Equal(t, []string{"#drupal"}, q["q"])
	assert.Equal(t, []string{"1"}, q["count"])
	_, hasSince := q["since_id"]
	assert.False(t, hasSince, "since_id must be omitted without a watermark")
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "error object with 200", status: http.StatusOK, body: `{"errors":[{"code":88,"message":"rate limited"}]}`, wantMsg: "rate limited"},
		{name: "error object with 404", status: http.StatusNotFound, body: `{"errors":[{"code":34,"message":"Sorry, that page does not exist."}]}`, wantMsg: "Sorry, that page does not exist."},
		{name: "bare server error", status: http.StatusBadGateway, body: ``, wantMsg: "HTTP 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			posts, err := srv.client("key", "secret").UserTimeline(context.Background(), TimelineParams{ScreenName: "acme"})
			assert.Nil(t, posts)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
			assert.Equal(t, tt.wantMsg, apiErr.Message())
		})
	}
}

func TestClient_BadCredentials(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API must not be called without a token")
	})

	_, err := srv.client("key", "wrong").UserTimeline(context.Background(), TimelineParams{ScreenName: "acme"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, "Unable to verify your credentials", apiErr.Message())
}

func TestClient_TokenReused(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	c := srv.client("key", "secret")

	for i := 0; i < 3; i++ {
		_, err := c.UserTimeline(context.Background(), TimelineParams{ScreenName: "acme"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), srv.tokenCalls.Load())
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	})

	_, err := srv.client("key", "secret").UserTimeline(context.Background(), TimelineParams{ScreenName: "acme"})
	assert.Error(t, err)
}

func TestMedia(t *testing.T) {
	m := Media{MediaURL: "http://pbs.twimg.com/a.jpg", MediaURLHTTPS: "https://pbs.twimg.com/a.jpg", Type: "photo"}
	assert.True(t, m.IsPhoto())
	assert.Equal(t, "https://pbs.twimg.com/a.jpg", m.DownloadURL())

	m.MediaURLHTTPS = ""
	assert.Equal(t, "http://pbs.twimg.com/a.jpg", m.DownloadURL())
	assert.False(t, Media{Type: "video"}.IsPhoto())
}

func TestPostCreated_Invalid(t *testing.T) {
	_, err := Post{CreatedAt: "yesterday"}.Created()
	assert.Error(t, err)
}
