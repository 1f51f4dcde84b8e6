package services

import (
	"context"
)

// Extractor lists remote entries and downloads single items.
type Extractor interface {
	// ListRemoteIDs returns the entry ids of the list at url, in list order.
	ListRemoteIDs(ctx context.Context, url string) ([]string, error)

	// RemoteTitle returns the display title of the list at url.
	RemoteTitle(ctx context.Context, url string) (string, error)

	// FetchItem downloads one entry into req.Dir and returns the created file.
	// progress may be nil.
	FetchItem(ctx context.Context, req FetchRequest, progress ProgressFunc) (string, error)
}

// FetchRequest names one entry to download.
type FetchRequest struct {
	ID    string
	Title string
	Dir   string
}

// ProgressFunc receives byte counts while an item downloads. total is 0 when unknown.
type ProgressFunc func(downloaded, total int64)

// TitleResolver produces the display title of an entry.
type TitleResolver interface {
	ResolveTitle(ctx context.Context, id string) (string, error)
}

// TagFinder looks up genre tags for an entry. A nil slice with a nil error means no match.
type TagFinder interface {
	FindTags(ctx context.Context, id, title string) ([]string, error)
}
