// Spotify Web API client for collection metadata and paginated item retrieval.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/trackline/internal/shared"
)

const baseURL = "https://api.spotify.com/v1"

// SavedTracksID is the sentinel collection ID for the current user's
// saved-tracks ("Liked Songs") pseudo-collection.
const SavedTracksID = "liked"

// pageSize is the fixed number of items requested per page. Offsets advance
// by the count actually returned, so pagination must stay sequential.
const pageSize = 100

// APIError is an application-level provider error: the transport round trip
// succeeded but the provider reported a failure. Callers unwrap it with
// [errors.As] to map Status to a user-facing category.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

type apiErrorBody struct {
	Error APIError `json:"error"`
}

// TokenFunc supplies the current bearer access token for a request.
//
// The client never validates or refreshes the session itself; callers must
// gate every fetch behind the session's EnsureValid.
type TokenFunc func() string

// Client fetches collections and their items from the Spotify Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
}

// NewClient creates a Client that authenticates requests with tokens from fn.
func NewClient(httpClient *http.Client, fn TokenFunc) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, token: fn}
}

// get performs an authenticated GET and decodes the response into result.
//
// Non-2xx responses are decoded into an [*APIError]; transport failures wrap
// [shared.ErrAPIRequest]. No retries either way.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		var payload apiErrorBody
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Status != 0 {
			return &payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CollectionMeta retrieves display metadata for a collection.
//
// The SavedTracksID sentinel maps to the dedicated saved-tracks endpoint;
// every other ID uses the playlist-by-ID endpoint.
func (c *Client) CollectionMeta(ctx context.Context, id string) (*Collection, error) {
	if id == SavedTracksID {
		var page itemsPage
		if err := c.get(ctx, "/me/tracks?limit=1&offset=0", &page); err != nil {
			return nil, err
		}
		return &Collection{ID: SavedTracksID, Name: "Liked Songs", Total: page.Total}, nil
	}

	var meta playlistMeta
	if err := c.get(ctx, "/playlists/"+id, &meta); err != nil {
		return nil, err
	}

	collection := meta.collection()
	return &collection, nil
}

// AllItems retrieves every item of a collection, paging sequentially with a
// fixed page size until a short page signals the end.
//
// A failed page is terminal: items accumulated from prior pages are
// discarded and only the error surfaces. Partial results are never returned
// as success.
func (c *Client) AllItems(ctx context.Context, id string) ([]Item, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", id)
	if id == SavedTracksID {
		endpoint = "/me/tracks"
	}

	var items []Item
	offset := 0

	for {
		var page itemsPage
		path := fmt.Sprintf("%s?limit=%d&offset=%d", endpoint, pageSize, offset)
		if err := c.get(ctx, path, &page); err != nil {
			return nil, err
		}

		for _, entry := range page.Items {
			items = append(items, entry.item())
		}

		if len(page.Items) < pageSize {
			return items, nil
		}
		offset += len(page.Items)
	}
}

// UserPlaylists retrieves the current user's playlists, following the same
// sequential pagination discipline as AllItems.
func (c *Client) UserPlaylists(ctx context.Context) ([]Collection, error) {
	var collections []Collection
	offset := 0

	for {
		var page playlistsPage
		path := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", pageSize, offset)
		if err := c.get(ctx, path, &page); err != nil {
			return nil, err
		}

		for _, meta := range page.Items {
			collections = append(collections, meta.collection())
		}

		if len(page.Items) < pageSize {
			return collections, nil
		}
		offset += len(page.Items)
	}
}

// item converts a wire entry to a domain Item, parsing the added_at instant.
func (p pageItem) item() Item {
	addedAt, err := time.Parse(time.RFC3339, p.AddedAt)
	if err != nil {
		addedAt = time.Time{}
	}
	return Item{AddedAt: addedAt, Track: p.Track}
}
