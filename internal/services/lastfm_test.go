package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/desertthunder/mist/internal/shared"
)

const searchPage = `<html><body><table>
<tr><td>1</td><td><a href="https://www.youtube.com/watch?v=other">play</a></td><td>x</td><td><a href="/music/Wrong/_/Track">Wrong</a></td></tr>
<tr><td>2</td><td><a href="https://www.youtube.com/watch?v=abc">play</a></td><td>y</td><td><a href="/music/Artist/_/Song">Song</a></td></tr>
</table></body></html>`

const trackPage = `<html><body>
<ul class="tags"><li><a href="/tag/rock">rock</a></li><li><a href="/tag/post-punk"> post-punk </a></li></ul>
<a href="/music/Artist">Artist</a>
</body></html>`

func newLastFMServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case searchTracksPath:
			if r.URL.Query().Get("q") == "" {
				t.Error("missing query")
			}
			w.Write([]byte(searchPage))
		case "/music/Artist/_/Song":
			w.Write([]byte(trackPage))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestLastFMFindTags(t *testing.T) {
	server := newLastFMServer(t)
	defer server.Close()
	finder := NewLastFM(server.URL, server.Client(), nil, shared.NewLogger(io.Discard))

	t.Run("matching row", func(t *testing.T) {
		tags, err := finder.FindTags(context.Background(), "abc", "Artist - Song")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(tags, []string{"rock", "post-punk"}) {
			t.Errorf("got %v", tags)
		}
	})

	t.Run("no matching row", func(t *testing.T) {
		tags, err := finder.FindTags(context.Background(), "missing", "Nope")
		if err != nil || tags != nil {
			t.Errorf("got %v, %v", tags, err)
		}
	})
}

func TestLastFMStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	finder := NewLastFM(server.URL, server.Client(), nil, shared.NewLogger(io.Discard))
	if _, err := finder.FindTags(context.Background(), "abc", "Song"); !errors.Is(err, shared.ErrItemFetch) {
		t.Errorf("expected ErrItemFetch, got %v", err)
	}
}
