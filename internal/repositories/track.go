// package repositories provides the SQLite persistence layer for the track
// cache. Fetched collection items are cached best-effort so repeated
// timeline views don't lose track metadata between processes.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/trackline/internal/shared"
	"github.com/desertthunder/trackline/internal/spotify"
)

// CachedTrack is one persisted track row, keyed by (service, service_id).
type CachedTrack struct {
	ID         string
	Service    string
	ServiceID  string
	Title      string
	Artist     string
	Album      string
	DurationMS int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TrackRepository handles track cache reads and writes.
//
// Duplicate tracks are deduplicated via the (service, service_id) UNIQUE
// constraint; constraint violations are not errors.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a TrackRepository with the given database connection.
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new track row with a generated ID.
func (r *TrackRepository) Create(track *CachedTrack) error {
	track.ID = shared.GenerateID()
	now := time.Now()
	track.CreatedAt = now
	track.UpdatedAt = now

	query := `
		INSERT INTO tracks (id, service, service_id, title, artist, album, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		track.ID,
		track.Service,
		track.ServiceID,
		track.Title,
		track.Artist,
		track.Album,
		track.DurationMS,
		track.CreatedAt,
		track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// GetByServiceID retrieves a cached track by service and service-specific ID.
func (r *TrackRepository) GetByServiceID(service, serviceID string) (*CachedTrack, error) {
	query := `
		SELECT id, service, service_id, title, artist, album, duration_ms, created_at, updated_at
		FROM tracks
		WHERE service = ? AND service_id = ?
	`

	var track CachedTrack
	err := r.db.QueryRow(query, service, serviceID).Scan(
		&track.ID,
		&track.Service,
		&track.ServiceID,
		&track.Title,
		&track.Artist,
		&track.Album,
		&track.DurationMS,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track: %w", err)
	}

	return &track, nil
}

// Count returns the number of cached tracks for a service.
func (r *TrackRepository) Count(service string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE service = ?", service).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// CacheItems caches fetched collection items for a service.
//
// Existing rows are left untouched; UNIQUE constraint violations are
// silently ignored. Only actual failures return an error.
func (r *TrackRepository) CacheItems(service string, items []spotify.Item) error {
	for _, item := range items {
		track := item.Track
		if track.ID == "" {
			continue
		}

		existing, err := r.GetByServiceID(service, track.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		row := &CachedTrack{
			Service:    service,
			ServiceID:  track.ID,
			Title:      track.Name,
			Artist:     artistSummary(track),
			Album:      track.Album.Name,
			DurationMS: track.DurationMS,
		}
		if err := r.Create(row); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				continue
			}
			return fmt.Errorf("failed to cache track: %w", err)
		}
	}

	return nil
}

func artistSummary(track spotify.Track) string {
	if len(track.Artists) == 0 {
		return ""
	}
	return track.Artists[0].Name
}
