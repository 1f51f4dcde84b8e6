// YouTube Music title resolution
//
// Calls the public player endpoint that the music web client uses.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mist/internal/ratelimit"
	"github.com/desertthunder/mist/internal/shared"
)

const (
	defaultMusicBaseURL = "https://music.youtube.com"
	playerEndpoint      = "/youtubei/v1/player"
	musicClientName     = "WEB_REMIX"
	musicClientVersion  = "1.20240617.01.00"
	topicSuffix         = " - Topic"
)

type playerRequest struct {
	VideoID string `json:"videoId"`
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
}

type playerResponse struct {
	VideoDetails *struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	} `json:"videoDetails"`
	Microformat struct {
		Renderer struct {
			Owner struct {
				Name string `json:"name"`
			} `json:"pageOwnerDetails"`
		} `json:"microformatDataRenderer"`
	} `json:"microformat"`
}

// MusicTitleResolver implements [TitleResolver] against YouTube Music.
type MusicTitleResolver struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *log.Logger
}

// NewMusicTitleResolver creates a resolver. Every request waits on limiter first.
func NewMusicTitleResolver(baseURL string, client *http.Client, limiter *ratelimit.Limiter, logger *log.Logger) *MusicTitleResolver {
	if baseURL == "" {
		baseURL = defaultMusicBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MusicTitleResolver{baseURL: baseURL, httpClient: client, limiter: limiter, logger: logger}
}

// ResolveTitle returns "author - title", with " [owner]" appended when the uploading
// channel is not the author.
//
// When the endpoint throttles and omits video details, the placeholder title is returned.
func (m *MusicTitleResolver) ResolveTitle(ctx context.Context, id string) (string, error) {
	if err := m.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	var body playerRequest
	body.VideoID = id
	body.Context.Client.ClientName = musicClientName
	body.Context.Client.ClientVersion = musicClientVersion

	var resp playerResponse
	if err := m.doRequest(ctx, body, &resp); err != nil {
		return "", fmt.Errorf("%w: title of %s: %v", shared.ErrItemFetch, id, err)
	}

	if resp.VideoDetails == nil {
		m.logger.Warn("title lookup throttled", "id", id)
		return shared.TitlePlaceholder, nil
	}

	return composeTitle(resp.VideoDetails.Author, resp.VideoDetails.Title, resp.Microformat.Renderer.Owner.Name), nil
}

func (m *MusicTitleResolver) doRequest(ctx context.Context, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+playerEndpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("player endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func composeTitle(author, title, owner string) string {
	owner = strings.TrimSuffix(owner, topicSuffix)

	name := title
	if !strings.Contains(title, author) {
		name = author + " - " + title
	}
	if owner != "" && owner != author {
		name += " [" + owner + "]"
	}
	return name
}
