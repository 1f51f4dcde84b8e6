// Package project resolves the on-disk layout of a mist project.
//
// A project is a directory containing .mist/ with the project config, the current-remote
// pointer, per-remote caches and the run journal. Media files live in the project root.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/mist/internal/shared"
)

// CacheKind names one of the per-remote cache files.
type CacheKind string

const (
	CacheEntries CacheKind = "entries"
	CacheTitles  CacheKind = "titles"
	CacheErrors  CacheKind = "errors"
	CacheTags    CacheKind = "tags"
)

// Layout maps a project root to its state files.
type Layout struct {
	Root string
	dir  string
}

// New builds a layout rooted at root using the configured project directory name.
func New(root string, defaults *shared.Defaults) Layout {
	return Layout{Root: root, dir: defaults.Layout.ProjectDir}
}

// Dir is the .mist directory.
func (l Layout) Dir() string { return filepath.Join(l.Root, l.dir) }

// ConfigPath is the project configuration file.
func (l Layout) ConfigPath() string { return filepath.Join(l.Dir(), "config") }

// RemotePath holds the current-remote pointer.
func (l Layout) RemotePath() string { return filepath.Join(l.Dir(), "remote") }

// HistoryPath is the sqlite run journal.
func (l Layout) HistoryPath() string { return filepath.Join(l.Dir(), "history.db") }

// CacheDir is the cache directory of a remote.
func (l Layout) CacheDir(remote string) string {
	return filepath.Join(l.Dir(), "cache", shared.SanitizeFilename(remote))
}

// CachePath is one cache file of a remote.
func (l Layout) CachePath(remote string, kind CacheKind) string {
	return filepath.Join(l.CacheDir(remote), string(kind))
}

// IsProject reports whether the root contains a project config.
func (l Layout) IsProject() bool {
	info, err := os.Stat(l.ConfigPath())
	return err == nil && !info.IsDir()
}

// Create makes the .mist directory and an empty config file.
//
// It returns [shared.ErrAlreadyInitialized] when the root is already a project.
func (l Layout) Create() error {
	if l.IsProject() {
		return fmt.Errorf("%w: %s", shared.ErrAlreadyInitialized, l.Dir())
	}
	if err := os.MkdirAll(l.Dir(), 0755); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInitialization, err)
	}
	f, err := os.OpenFile(l.ConfigPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInitialization, err)
	}
	return f.Close()
}

// RemoveCache deletes every cache file of a remote.
func (l Layout) RemoveCache(remote string) error {
	err := os.RemoveAll(l.CacheDir(remote))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache for %q: %w", remote, err)
	}
	return nil
}
