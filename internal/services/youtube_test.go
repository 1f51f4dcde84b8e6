package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/mist/internal/ratelimit"
	"github.com/desertthunder/mist/internal/shared"
)

func TestComposeTitle(t *testing.T) {
	tests := []struct {
		name                 string
		author, title, owner string
		want                 string
	}{
		{name: "plain", author: "Artist", title: "Song", owner: "Artist", want: "Artist - Song"},
		{name: "topic channel", author: "Artist", title: "Song", owner: "Artist - Topic", want: "Artist - Song"},
		{name: "author in title", author: "Artist", title: "Artist - Song (Live)", owner: "Artist", want: "Artist - Song (Live)"},
		{name: "reupload", author: "Artist", title: "Song", owner: "Label", want: "Artist - Song [Label]"},
		{name: "no owner", author: "Artist", title: "Song", want: "Artist - Song"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := composeTitle(tt.author, tt.title, tt.owner); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMusicTitleResolver(t *testing.T) {
	t.Run("resolves title", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != playerEndpoint {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body playerRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("bad body: %v", err)
			}
			if body.VideoID != "abc" || body.Context.Client.ClientName != musicClientName {
				t.Errorf("unexpected body %+v", body)
			}
			w.Write([]byte(`{
				"videoDetails": {"title": "Song", "author": "Artist"},
				"microformat": {"microformatDataRenderer": {"pageOwnerDetails": {"name": "Uploader"}}}
			}`))
		}))
		defer server.Close()

		r := NewMusicTitleResolver(server.URL, server.Client(), ratelimit.New(10, time.Second), shared.NewLogger(io.Discard))
		got, err := r.ResolveTitle(context.Background(), "abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "Artist - Song [Uploader]" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("throttled yields placeholder", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"playabilityStatus": {"status": "LOGIN_REQUIRED"}}`))
		}))
		defer server.Close()

		r := NewMusicTitleResolver(server.URL, server.Client(), nil, shared.NewLogger(io.Discard))
		got, err := r.ResolveTitle(context.Background(), "abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != shared.TitlePlaceholder {
			t.Errorf("got %q", got)
		}
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		r := NewMusicTitleResolver(server.URL, server.Client(), nil, shared.NewLogger(io.Discard))
		if _, err := r.ResolveTitle(context.Background(), "abc"); !errors.Is(err, shared.ErrItemFetch) {
			t.Errorf("expected ErrItemFetch, got %v", err)
		}
	})

	t.Run("limiter honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := NewMusicTitleResolver("http://127.0.0.1:0", nil, ratelimit.New(1, time.Hour), shared.NewLogger(io.Discard))
		if _, err := r.ResolveTitle(ctx, "abc"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
