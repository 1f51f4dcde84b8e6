package remotes

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/desertthunder/mist/internal/config"
	"github.com/desertthunder/mist/internal/shared"
)

func newRegistry(t *testing.T) (*Registry, *config.Layer) {
	t.Helper()
	dir := t.TempDir()
	layer := config.NewLayer(config.ScopeProject, filepath.Join(dir, "config"))
	return NewRegistry(layer, filepath.Join(dir, "remote"), shared.NewLogger(io.Discard)), layer
}

func TestRegistryAdd(t *testing.T) {
	t.Run("adds and persists", func(t *testing.T) {
		r, layer := newRegistry(t)
		remote, err := r.Add("origin", "https://example.com/playlist?list=PL1&si=abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if remote.URL != "https://example.com/playlist?list=PL1" {
			t.Errorf("expected normalized url, got %s", remote.URL)
		}

		reloaded := config.NewLayer(config.ScopeProject, layer.Path())
		if err := reloaded.Load(); err != nil {
			t.Fatalf("reload: %v", err)
		}
		if got, _ := reloaded.Get(config.NewKey("remote", "origin", "url")); got != remote.URL {
			t.Errorf("persisted url = %q", got)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		r, _ := newRegistry(t)
		if _, err := r.Add("origin", "https://example.com/a"); err != nil {
			t.Fatal(err)
		}
		if _, err := r.Add("origin", "https://example.com/b"); !errors.Is(err, shared.ErrRemoteExists) {
			t.Errorf("expected ErrRemoteExists, got %v", err)
		}
	})

	t.Run("invalid url", func(t *testing.T) {
		r, _ := newRegistry(t)
		if _, err := r.Add("origin", "not a url"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if r.Exists("origin") {
			t.Error("invalid remote should not be stored")
		}
	})
}

func TestRegistrySetURL(t *testing.T) {
	r, _ := newRegistry(t)
	if _, err := r.SetURL("missing", "https://example.com"); !errors.Is(err, shared.ErrRemoteNotFound) {
		t.Fatalf("expected ErrRemoteNotFound, got %v", err)
	}

	if _, err := r.Add("origin", "https://example.com/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SetURL("origin", "https://example.com/b?utm_source=x"); err != nil {
		t.Fatal(err)
	}
	remote, err := r.Ensure("origin")
	if err != nil {
		t.Fatal(err)
	}
	if remote.URL != "https://example.com/b" {
		t.Errorf("got %s", remote.URL)
	}
}

func TestRegistryList(t *testing.T) {
	r, _ := newRegistry(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := r.Add(name, "https://example.com/"+name); err != nil {
			t.Fatal(err)
		}
	}

	got := r.List()
	want := []string{"zeta", "alpha", "mid"}
	if len(got) != len(want) {
		t.Fatalf("got %d remotes", len(got))
	}
	for i, remote := range got {
		if remote.Name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, remote.Name, want[i])
		}
	}
}

func TestRegistryCurrent(t *testing.T) {
	r, _ := newRegistry(t)

	if _, err := r.Current(); !errors.Is(err, shared.ErrNoUpstream) {
		t.Fatalf("expected ErrNoUpstream, got %v", err)
	}
	if _, err := r.Resolve(""); !errors.Is(err, shared.ErrNoUpstream) {
		t.Fatalf("expected ErrNoUpstream, got %v", err)
	}
	if err := r.SetCurrent("origin"); !errors.Is(err, shared.ErrRemoteNotFound) {
		t.Fatalf("expected ErrRemoteNotFound, got %v", err)
	}

	if _, err := r.Add("origin", "https://example.com/a"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetCurrent("origin"); err != nil {
		t.Fatal(err)
	}
	remote, err := r.Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if remote.Name != "origin" {
		t.Errorf("got %s", remote.Name)
	}

	t.Run("remove clears pointer", func(t *testing.T) {
		if err := r.Remove("origin"); err != nil {
			t.Fatal(err)
		}
		if _, err := r.Current(); !errors.Is(err, shared.ErrNoUpstream) {
			t.Errorf("expected ErrNoUpstream, got %v", err)
		}
		if err := r.Remove("origin"); !errors.Is(err, shared.ErrRemoteNotFound) {
			t.Errorf("expected ErrRemoteNotFound, got %v", err)
		}
	})
}
