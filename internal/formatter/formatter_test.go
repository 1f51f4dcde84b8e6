package formatter

import (
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/shared"
	"github.com/desertthunder/mist/internal/tasks"
	th "github.com/desertthunder/mist/internal/testing"
)

func listing() Listing {
	return Listing{
		Remote: models.Remote{Name: "origin", URL: "https://www.youtube.com/playlist?list=PL123"},
		Items: []tasks.ListItem{
			{ID: "aaa", Title: "Artist One - Song One", Local: true},
			{ID: "bbb", Title: "Artist Two - Song, Two"},
			{ID: "ccc"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(listing())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("CSV does not parse: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header and 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "ID,Title,Local,URL" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}
		if records[1][2] != "true" || records[2][2] != "false" {
			t.Errorf("unexpected local column: %v", records)
		}
		if records[2][1] != "Artist Two - Song, Two" {
			t.Errorf("comma in title must be quoted, got %q", records[2][1])
		}
		if records[3][3] != "https://www.youtube.com/watch?v=ccc" {
			t.Errorf("unexpected url %q", records[3][3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(listing())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# origin",
			"**Source**: <https://www.youtube.com/playlist?list=PL123>",
			"**Entries**: 3 (1 local)",
			"## Entries",
			"- [x] [Artist One - Song One](https://www.youtube.com/watch?v=aaa)",
			"- [ ] [ccc](https://www.youtube.com/watch?v=ccc)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(listing())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Remote: origin",
			"Entries: 3",
			"1. Artist One - Song One (aaa)",
			"3. ccc\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Text missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("Export rejects unknown formats", func(t *testing.T) {
		if _, err := Export(listing(), Format("yaml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
		ext  string
	}{
		{"csv", FormatCSV, "csv"},
		{"md", FormatMarkdown, "md"},
		{"markdown", FormatMarkdown, "md"},
		{"txt", FormatText, "txt"},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || got.Extension() != tt.ext {
				t.Errorf("got %s (.%s), want %s (.%s)", got, got.Extension(), tt.want, tt.ext)
			}
		})
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		th.MustChdir(t, t.TempDir())

		path, err := WriteExport(listing(), FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != "origin_entries.md" {
			t.Errorf("Expected 'origin_entries.md', got '%s'", path)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "# origin") {
			t.Error("Markdown export missing title")
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "entries.csv")

		got, err := WriteExport(listing(), FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("Expected '%s', got '%s'", path, got)
		}
		if !strings.HasPrefix(th.MustReadFile(t, path), "ID,Title,Local,URL") {
			t.Error("CSV export missing headers")
		}
	})

	t.Run("WithUnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "entries.txt")
		if _, err := WriteExport(listing(), FormatText, path); err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}
