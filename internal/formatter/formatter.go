// package formatter exports the recorded entries of a remote to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/services"
	"github.com/desertthunder/mist/internal/shared"
	"github.com/desertthunder/mist/internal/tasks"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts csv, markdown (or md) and text (or txt).
func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Extension is the file extension used by [WriteExport].
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	}
	return string(f)
}

// Listing is the snapshot of one remote.
type Listing struct {
	Remote models.Remote
	Items  []tasks.ListItem
}

func (l Listing) local() int {
	n := 0
	for _, item := range l.Items {
		if item.Local {
			n++
		}
	}
	return n
}

// ExportToCSV converts a Listing to CSV format with columns: ID, Title, Local, URL
func ExportToCSV(l Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Local", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range l.Items {
		record := []string{
			item.ID,
			item.Title,
			strconv.FormatBool(item.Local),
			services.WatchURL(item.ID),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Listing to a Markdown checklist, ticking entries present locally.
func ExportToMarkdown(l Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", l.Remote.Name)
	fmt.Fprintf(&buf, "**Source**: <%s>\n\n", l.Remote.URL)
	fmt.Fprintf(&buf, "**Entries**: %d (%d local)\n\n", len(l.Items), l.local())

	buf.WriteString("## Entries\n\n")
	for _, item := range l.Items {
		mark := " "
		if item.Local {
			mark = "x"
		}
		label := item.ID
		if item.Title != "" {
			label = item.Title
		}
		fmt.Fprintf(&buf, "- [%s] [%s](%s)\n", mark, label, services.WatchURL(item.ID))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Listing to plain text format
func ExportToText(l Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Remote: %s\n", l.Remote.Name)
	fmt.Fprintf(&buf, "URL: %s\n", l.Remote.URL)
	fmt.Fprintf(&buf, "Entries: %d\n\n", len(l.Items))

	for i, item := range l.Items {
		if item.Title == "" {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, item.ID)
			continue
		}
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, item.Title, item.ID)
	}

	return buf.Bytes(), nil
}

// Export renders l in format f.
func Export(l Listing, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(l)
	case FormatMarkdown:
		return ExportToMarkdown(l)
	case FormatText:
		return ExportToText(l)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// WriteExport writes l to path in format f.
//
// Defaults to {remote}_entries.{ext} as the filename.
func WriteExport(l Listing, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_entries.%s", shared.SanitizeFilename(l.Remote.Name), f.Extension())
	}

	data, err := Export(l, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
