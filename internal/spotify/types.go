// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

import "time"

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date"` // "2006", "2006-01" or "2006-01-02"
	Images      []Image `json:"images"`
	URI         string  `json:"uri"`
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	URI        string   `json:"uri"`
}

// Item wraps a track together with the instant it joined the collection.
//
// The provider does not guarantee items arrive sorted by AddedAt.
type Item struct {
	AddedAt time.Time
	Track   Track
}

// Collection is the display metadata for a playlist or the saved-tracks
// pseudo-collection.
type Collection struct {
	ID       string
	Name     string
	CoverURL string
	Total    int
}

// pageItem is the wire shape of one entry in a playlist or saved-tracks page.
type pageItem struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// itemsPage is the wire shape of one page of collection items.
type itemsPage struct {
	Items  []pageItem `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Next   *string    `json:"next"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// playlistMeta is the wire shape of a playlist object.
type playlistMeta struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []Image        `json:"images"`
	Tracks playlistTracks `json:"tracks"`
	URI    string         `json:"uri"`
}

// playlistsPage is the wire shape of one page of the current user's playlists.
type playlistsPage struct {
	Items  []playlistMeta `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

func (p playlistMeta) collection() Collection {
	c := Collection{ID: p.ID, Name: p.Name, Total: p.Tracks.Total}
	if len(p.Images) > 0 {
		c.CoverURL = p.Images[0].URL
	}
	return c
}
