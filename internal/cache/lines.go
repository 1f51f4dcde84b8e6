// Package cache implements the flat-file caches kept per remote: plain entry lists and
// "key: value" maps with a strict load, use, save lifecycle.
package cache

import (
	"bufio"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// Lines yields the non-empty lines of path without their line terminators.
//
// The file is opened on every iteration so the sequence can be replayed. A missing file
// yields nothing.
func Lines(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			yield("", err)
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSuffix(scanner.Text(), "\r")
			if line == "" {
				continue
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}

// ReadList collects every line of path. A missing file is an empty list.
func ReadList(path string) ([]string, error) {
	var items []string
	for line, err := range Lines(path) {
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		items = append(items, line)
	}
	return items, nil
}

// WriteList replaces path with one item per line.
func WriteList(path string, items []string) error {
	var b strings.Builder
	for _, item := range items {
		if strings.ContainsAny(item, "\r\n") {
			return fmt.Errorf("list item %q contains a line break", item)
		}
		b.WriteString(item)
		b.WriteByte('\n')
	}
	return writeFile(path, []byte(b.String()))
}

// writeFile replaces path through a temporary file in the same directory so readers never
// observe a partial write.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
