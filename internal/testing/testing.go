// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/mist/internal/services"
	"github.com/desertthunder/mist/internal/shared"
)

// FakeExtractor is a test double for [services.Extractor].
//
// FetchItem writes an empty <title>.<id>.opus file unless the id is listed in Fail or Panic.
type FakeExtractor struct {
	IDs     []string
	Title   string
	ListErr error
	Fail    map[string]error
	Panic   map[string]bool
	Block   chan struct{} // when set, FetchItem waits on it or on ctx

	mu      sync.Mutex
	fetched []string
}

func (f *FakeExtractor) ListRemoteIDs(ctx context.Context, url string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]string(nil), f.IDs...), nil
}

func (f *FakeExtractor) RemoteTitle(ctx context.Context, url string) (string, error) {
	if f.Title == "" {
		return "", errors.New("no title")
	}
	return f.Title, nil
}

func (f *FakeExtractor) FetchItem(ctx context.Context, req services.FetchRequest, progress services.ProgressFunc) (string, error) {
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Panic[req.ID] {
		panic("extractor crashed on " + req.ID)
	}
	if err, ok := f.Fail[req.ID]; ok {
		return "", fmt.Errorf("%w: %v", shared.ErrItemFetch, err)
	}
	if progress != nil {
		progress(1, 1)
	}

	path := filepath.Join(req.Dir, shared.SanitizeFilename(req.Title)+"."+req.ID+".opus")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.fetched = append(f.fetched, req.ID)
	f.mu.Unlock()
	return path, nil
}

// Fetched returns the ids downloaded so far.
func (f *FakeExtractor) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// FakeTitles is a test double for [services.TitleResolver]. Unknown ids resolve to "Title <id>".
type FakeTitles struct {
	Titles map[string]string
	Err    error

	mu    sync.Mutex
	calls int
}

func (f *FakeTitles) ResolveTitle(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	if title, ok := f.Titles[id]; ok {
		return title, nil
	}
	return "Title " + id, nil
}

// Calls returns the number of lookups.
func (f *FakeTitles) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeTags is a test double for [services.TagFinder]. Ids without an entry have no match.
type FakeTags struct {
	Tags map[string][]string
}

func (f *FakeTags) FindTags(ctx context.Context, id, title string) ([]string, error) {
	return f.Tags[id], nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

// MustChdir changes into dir and restores the previous directory when the test ends.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	prev := MustGetwd(t)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile creates path with content, including parent directories.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
