// package tasks implements the collection view pipeline: session gate,
// collection fetch, best-effort track caching, and projection.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackline/internal/projection"
	"github.com/desertthunder/trackline/internal/session"
	"github.com/desertthunder/trackline/internal/shared"
	"github.com/desertthunder/trackline/internal/spotify"
)

const serviceName = "spotify"

// CollectionAPI is the provider surface the engine fetches from.
// Implemented by [spotify.Client].
type CollectionAPI interface {
	CollectionMeta(ctx context.Context, id string) (*spotify.Collection, error)
	AllItems(ctx context.Context, id string) ([]spotify.Item, error)
	UserPlaylists(ctx context.Context) ([]spotify.Collection, error)
}

// TrackCacher persists fetched items. Implemented by
// [repositories.TrackRepository]; nil disables caching.
type TrackCacher interface {
	CacheItems(service string, items []spotify.Item) error
}

// TimelineView is everything the presentation layer needs to render one
// collection: display metadata plus the three parallel projections.
type TimelineView struct {
	Name      string
	CoverURL  string
	ItemCount int
	Timeline  *projection.Timeline
}

// TimelineEngine orchestrates collection views.
//
// Every operation gates on the session first: an unusable session surfaces
// as [shared.ErrSessionInvalid] so callers can redirect to login, and a
// failed refresh propagates as-is with no retry.
type TimelineEngine struct {
	session *session.Session
	api     CollectionAPI
	cache   TrackCacher
	logger  *log.Logger
	now     func() time.Time
}

// NewTimelineEngine creates a TimelineEngine. The cache may be nil.
func NewTimelineEngine(sess *session.Session, api CollectionAPI, cache TrackCacher, logger *log.Logger) *TimelineEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TimelineEngine{session: sess, api: api, cache: cache, logger: logger, now: time.Now}
}

// guard validates the session before any provider call.
func (e *TimelineEngine) guard(ctx context.Context) error {
	ok, err := e.session.EnsureValid(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrSessionInvalid
	}
	return nil
}

// Collections lists the user's playlists with the saved-tracks
// pseudo-collection prepended.
func (e *TimelineEngine) Collections(ctx context.Context) ([]spotify.Collection, error) {
	if err := e.guard(ctx); err != nil {
		return nil, err
	}

	playlists, err := e.api.UserPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	collections := make([]spotify.Collection, 0, len(playlists)+1)
	collections = append(collections, spotify.Collection{ID: spotify.SavedTracksID, Name: "Liked Songs"})
	collections = append(collections, playlists...)
	return collections, nil
}

// Timeline fetches a collection and all its items and projects them.
//
// Returns [shared.ErrNoCollectionID] for a blank ID and
// [shared.ErrEmptyCollection] for a collection with no items. Caching is
// best-effort: a cache failure is logged, never surfaced.
func (e *TimelineEngine) Timeline(ctx context.Context, id string) (*TimelineView, error) {
	if id == "" {
		return nil, shared.ErrNoCollectionID
	}

	if err := e.guard(ctx); err != nil {
		return nil, err
	}

	meta, err := e.api.CollectionMeta(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", id, err)
	}

	items, err := e.api.AllItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items for %s: %w", id, err)
	}

	if e.cache != nil {
		if err := e.cache.CacheItems(serviceName, items); err != nil {
			e.logger.Warnf("track cache write failed: %v", err)
		}
	}

	timeline, err := projection.Build(items, e.now())
	if err != nil {
		return nil, err
	}

	return &TimelineView{
		Name:      meta.Name,
		CoverURL:  meta.CoverURL,
		ItemCount: len(items),
		Timeline:  timeline,
	}, nil
}
