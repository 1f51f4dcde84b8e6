// Package diff compares a remote's recorded entries with the entries present in a local directory.
//
// Results are sets: callers must sort before display.
package diff

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

// Missing returns remote entries that are neither local nor excluded.
func Missing(remote, local, excluded []string) []string {
	return lo.Without(lo.Uniq(remote), append(append([]string{}, local...), excluded...)...)
}

// Leftovers returns local entries the remote no longer lists.
func Leftovers(remote, local []string) []string {
	return lo.Without(lo.Uniq(local), remote...)
}

// Duplicates returns items that occur more than once in seq.
func Duplicates(seq []string) []string {
	return lo.FindDuplicates(seq)
}

// Entry is a file in the working directory that follows the <title>.<id>.<ext> naming.
type Entry struct {
	Title string
	ID    string
	Ext   string
	Name  string
}

// ParseEntryName splits a filename into title, id and extension.
//
// The id is the second-to-last dot-delimited segment; names with fewer than three
// segments are not tracked entries. The title may be empty or start with a dot.
func ParseEntryName(name string) (Entry, bool) {
	last := strings.LastIndex(name, ".")
	if last <= 0 {
		return Entry{}, false
	}
	prev := strings.LastIndex(name[:last], ".")
	if prev < 0 || prev+1 == last {
		return Entry{}, false
	}
	return Entry{
		Title: name[:prev],
		ID:    name[prev+1 : last],
		Ext:   name[last+1:],
		Name:  name,
	}, true
}

// LocalEntries lists tracked entries among the regular files of dir.
func LocalEntries(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if e, ok := ParseEntryName(f.Name()); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// LocalIDs recovers entry ids from the filenames in dir.
func LocalIDs(dir string) ([]string, error) {
	entries, err := LocalEntries(dir)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e Entry, _ int) string { return e.ID }), nil
}

// LocalTitles maps ids to the title part of their filenames.
func LocalTitles(dir string) (map[string]string, error) {
	entries, err := LocalEntries(dir)
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(entries, func(e Entry) (string, string) { return e.ID, e.Title }), nil
}

// Report is the read-only reconciliation state of one remote.
type Report struct {
	Remote     string   `json:"remote"`
	Missing    []string `json:"missing"`
	Leftovers  []string `json:"leftovers"`
	Duplicates []string `json:"duplicates"`
	Failed     []string `json:"failed"`
}

// Clean reports whether the local directory matches the remote.
func (r Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Leftovers) == 0 && len(r.Duplicates) == 0
}

// Compute builds a report from recorded remote ids, local ids and the failure ledger.
//
// Failed entries that are still absent locally are reported separately from Missing.
func Compute(remote string, remoteIDs, localIDs, failed []string) Report {
	return Report{
		Remote:     remote,
		Missing:    Missing(remoteIDs, localIDs, failed),
		Leftovers:  Leftovers(remoteIDs, localIDs),
		Duplicates: Duplicates(localIDs),
		Failed:     lo.Intersect(failed, Missing(remoteIDs, localIDs, nil)),
	}
}
