package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/desertthunder/mist/internal/ratelimit"
	"github.com/desertthunder/mist/internal/shared"
)

const (
	defaultLastFMBaseURL = "https://www.last.fm"
	searchTracksPath     = "/search/tracks"
	tagPathPrefix        = "/tag/"
)

// LastFM implements [TagFinder] by scraping last.fm track pages.
type LastFM struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *log.Logger
}

// NewLastFM creates a tag finder. limiter may be nil.
func NewLastFM(baseURL string, client *http.Client, limiter *ratelimit.Limiter, logger *log.Logger) *LastFM {
	if baseURL == "" {
		baseURL = defaultLastFMBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LastFM{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: client, limiter: limiter, logger: logger}
}

// FindTags searches tracks by title, picks the row linking to the entry's video and
// collects the tag links of that track page.
func (l *LastFM) FindTags(ctx context.Context, id, title string) ([]string, error) {
	search, err := l.get(ctx, l.baseURL+searchTracksPath+"?"+url.Values{"q": {title}}.Encode())
	if err != nil {
		return nil, err
	}

	track := findTrackLink(search, WatchURL(id))
	if track == "" {
		l.logger.Info("no track found for tag lookup", "id", id)
		return nil, nil
	}

	trackURL, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConfiguration, err)
	}
	ref, err := url.Parse(track)
	if err != nil {
		return nil, fmt.Errorf("%w: bad track link %q", shared.ErrItemFetch, track)
	}

	page, err := l.get(ctx, trackURL.ResolveReference(ref).String())
	if err != nil {
		return nil, err
	}
	tags := findTags(page)
	l.logger.Debug("found tags", "id", id, "tags", strings.Join(tags, ", "))
	return tags, nil
}

func (l *LastFM) get(ctx context.Context, target string) (*html.Node, error) {
	if err := l.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrItemFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrItemFetch, target, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", shared.ErrItemFetch, target, err)
	}
	return doc, nil
}

// findTrackLink returns the href of the link in the fourth cell of the first table row
// that also links to video.
func findTrackLink(doc *html.Node, video string) string {
	for row := range elements(doc, "tr") {
		if !containsLink(row, video) {
			continue
		}
		cell := 0
		for c := row.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != "td" {
				continue
			}
			cell++
			if cell != 4 {
				continue
			}
			for a := range elements(c, "a") {
				if href := attr(a, "href"); href != "" {
					return href
				}
			}
		}
	}
	return ""
}

func findTags(doc *html.Node) []string {
	var tags []string
	for a := range elements(doc, "a") {
		if strings.HasPrefix(attr(a, "href"), tagPathPrefix) {
			if text := strings.TrimSpace(textContent(a)); text != "" {
				tags = append(tags, text)
			}
		}
	}
	return tags
}

func containsLink(n *html.Node, href string) bool {
	for a := range elements(n, "a") {
		if attr(a, "href") == href {
			return true
		}
	}
	return false
}

// elements yields every descendant element named tag in document order.
func elements(n *html.Node, tag string) func(func(*html.Node) bool) {
	return func(yield func(*html.Node) bool) {
		for d := range n.Descendants() {
			if d.Type == html.ElementNode && d.Data == tag {
				if !yield(d) {
					return
				}
			}
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			b.WriteString(d.Data)
		}
	}
	return b.String()
}
