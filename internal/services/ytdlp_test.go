package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mist/internal/shared"
)

// fakeBinary writes a shell script standing in for yt-dlp.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYTDLPListRemoteIDs(t *testing.T) {
	bin := fakeBinary(t, `printf 'id1\nid2\n\nid3\n'`)
	y := NewYTDLP(bin, shared.NewLogger(io.Discard))

	ids, err := y.ListRemoteIDs(context.Background(), "https://example.com/list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(ids, []string{"id1", "id2", "id3"}) {
		t.Errorf("got %v", ids)
	}
}

func TestYTDLPErrors(t *testing.T) {
	bin := fakeBinary(t, `echo "WARNING: noise" >&2; echo "ERROR: playlist does not exist" >&2; exit 1`)
	y := NewYTDLP(bin, shared.NewLogger(io.Discard))

	_, err := y.ListRemoteIDs(context.Background(), "https://example.com/list")
	if err == nil || !strings.Contains(err.Error(), "playlist does not exist") {
		t.Errorf("expected stderr in error, got %v", err)
	}

	_, err = y.FetchItem(context.Background(), FetchRequest{ID: "abc", Title: "Song", Dir: t.TempDir()}, nil)
	if !errors.Is(err, shared.ErrItemFetch) {
		t.Errorf("expected ErrItemFetch, got %v", err)
	}
}

func TestYTDLPFetchItem(t *testing.T) {
	dir := t.TempDir()
	bin := fakeBinary(t, `
for last; do :; done
echo "progress:10/100"
echo "progress:100/100"
echo "filepath:`+dir+`/Song.abc.opus"
case "$last" in *watch?v=abc) exit 0;; *) exit 3;; esac
`)
	y := NewYTDLP(bin, shared.NewLogger(io.Discard))

	var seen [][2]int64
	path, err := y.FetchItem(context.Background(), FetchRequest{ID: "abc", Title: "Song", Dir: dir}, func(done, total int64) {
		seen = append(seen, [2]int64{done, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "Song.abc.opus") {
		t.Errorf("got path %q", path)
	}
	if len(seen) != 2 || seen[1] != [2]int64{100, 100} {
		t.Errorf("got progress %v", seen)
	}
}

func TestYTDLPCancel(t *testing.T) {
	// The child sleep keeps stdout open after yt-dlp itself is killed.
	bin := fakeBinary(t, `sleep 10; echo late`)
	y := NewYTDLP(bin, shared.NewLogger(io.Discard))

	t.Run("ListRemoteIDs", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := y.ListRemoteIDs(ctx, "https://example.com/list")
		if !errors.Is(err, shared.ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
		if !shared.IsExpected(err) {
			t.Errorf("a cancelled listing must be an expected error, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > waitDelay+2*time.Second {
			t.Errorf("listing returned after %s", elapsed)
		}
	})

	t.Run("FetchItem", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := y.FetchItem(ctx, FetchRequest{ID: "abc", Title: "Song", Dir: t.TempDir()}, nil)
		if !errors.Is(err, shared.ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
		if errors.Is(err, shared.ErrItemFetch) {
			t.Errorf("a cancelled download is not a fetch failure: %v", err)
		}
		if elapsed := time.Since(start); elapsed > waitDelay+2*time.Second {
			t.Errorf("download returned after %s", elapsed)
		}
	})
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		in          string
		done, total int64
		ok          bool
	}{
		{in: "5/10", done: 5, total: 10, ok: true},
		{in: "5/NA", done: 5, ok: true},
		{in: "NA/NA"},
		{in: "garbage"},
	}
	for _, tt := range tests {
		done, total, ok := parseProgress(tt.in)
		if done != tt.done || total != tt.total || ok != tt.ok {
			t.Errorf("parseProgress(%q) = %d, %d, %v", tt.in, done, total, ok)
		}
	}
}
