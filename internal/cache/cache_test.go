package cache

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	mtest "github.com/desertthunder/mist/internal/testing"
)

func TestLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries")
	if err := os.WriteFile(path, []byte("a\r\n\nb\nc"), 0644); err != nil {
		t.Fatal(err)
	}

	for range 2 {
		var got []string
		for line, err := range Lines(path) {
			if err != nil {
				t.Fatal(err)
			}
			got = append(got, line)
		}
		if !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("got %v", got)
		}
	}

	t.Run("missing file", func(t *testing.T) {
		items, err := ReadList(filepath.Join(t.TempDir(), "missing"))
		if err != nil || len(items) != 0 {
			t.Errorf("got %v, %v", items, err)
		}
	})

	t.Run("early break", func(t *testing.T) {
		for line := range Lines(path) {
			if line != "a" {
				t.Errorf("got %q", line)
			}
			break
		}
	})
}

func TestWriteList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "origin", "entries")
	items := []string{"id3", "id1", "id2"}
	if err := WriteList(path, items); err != nil {
		t.Fatal(err)
	}
	if got := mtest.MustReadFile(t, path); got != "id3\nid1\nid2\n" {
		t.Errorf("got %q", got)
	}
	got, err := ReadList(path)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, items) {
		t.Errorf("order not preserved: %v", got)
	}

	if err := WriteList(path, []string{"bad\nitem"}); err == nil {
		t.Error("expected error for multi-line item")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles")

	c := New(path, StringCodec(), nil)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	values := map[string]string{
		"a":     "1",
		"b":     "2",
		"delim": "Artist: Song: Live",
		"multi": "line one\nline two",
		"slash": `back\slash\n`,
		"empty": "",
	}
	keys := []string{"a", "b", "delim", "multi", "slash", "empty"}
	for _, k := range keys {
		if err := c.Put(k, values[k]); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if c.Loaded() {
		t.Error("cache should be unloaded after save")
	}

	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != len(values) {
		t.Errorf("got %d entries, want %d", c.Len(), len(values))
	}
	for k, want := range values {
		if got, ok := c.Get(k); !ok || got != want {
			t.Errorf("key %q: got %q, %v; want %q", k, got, ok, want)
		}
	}

	lines := strings.Split(strings.TrimSpace(mtest.MustReadFile(t, path)), "\n")
	if len(lines) != len(keys) || lines[0] != "a: 1" || lines[1] != "b: 2" {
		t.Errorf("unexpected file layout: %q", lines)
	}
}

func TestCacheLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles")
	c := New(path, StringCodec(), nil)

	if err := c.Save(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if err := c.Put("a", "1"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(); !errors.Is(err, ErrLoaded) {
		t.Errorf("expected ErrLoaded, got %v", err)
	}

	for _, key := range []string{"", "a: b", "a\nb"} {
		if err := c.Put(key, "v"); !errors.Is(err, ErrBadKey) {
			t.Errorf("key %q: expected ErrBadKey, got %v", key, err)
		}
	}
}

func TestCachedCall(t *testing.T) {
	const placeholder = "<unknown>"
	c := New(filepath.Join(t.TempDir(), "titles"), StringCodec(), func(v string) bool { return v == placeholder })
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}

	calls := 0
	compute := func(v string) func() (string, error) {
		return func() (string, error) {
			calls++
			return v, nil
		}
	}

	t.Run("miss then hit", func(t *testing.T) {
		if v, _ := c.CachedCall("x", compute("X")); v != "X" {
			t.Errorf("got %q", v)
		}
		if v, _ := c.CachedCall("x", compute("other")); v != "X" {
			t.Errorf("got %q", v)
		}
		if calls != 1 {
			t.Errorf("expected 1 compute call, got %d", calls)
		}
	})

	t.Run("sentinel is not cached", func(t *testing.T) {
		calls = 0
		if v, _ := c.CachedCall("y", compute(placeholder)); v != placeholder {
			t.Errorf("got %q", v)
		}
		if _, ok := c.Get("y"); ok {
			t.Error("sentinel should not be stored")
		}
		c.CachedCall("y", compute(placeholder))
		if calls != 2 {
			t.Errorf("expected recompute, got %d calls", calls)
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		boom := errors.New("boom")
		if _, err := c.CachedCall("z", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
			t.Errorf("got %v", err)
		}
		if _, ok := c.Get("z"); ok {
			t.Error("failed compute should not be stored")
		}
	})
}

func TestJSONCodec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags")
	c := New(path, JSONCodec[[]string](), func(v []string) bool { return v == nil })
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CachedCall("id1", func() ([]string, error) { return []string{"rock", "live"}, nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CachedCall("id2", func() ([]string, error) { return nil, nil }); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if got := mtest.MustReadFile(t, path); got != "id1: [\"rock\",\"live\"]\n" {
		t.Errorf("got %q", got)
	}
}
