// package projection turns raw collection items into the three parallel
// views the display page needs: rendered table rows, plain-text tooltip
// rows, and cumulative-count chart points.
package projection

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/trackline/internal/shared"
	"github.com/desertthunder/trackline/internal/spotify"
)

const openBaseURL = "https://open.spotify.com"

// unknownLabel is rendered whenever the provider has no name for an entity.
const unknownLabel = "Unknown"

// DisplayRow is one rendered table row on the display page.
type DisplayRow struct {
	Name     template.HTML // track name, linked when the provider has an ID
	Artists  template.HTML // comma-joined artist links
	Album    template.HTML // album link with formatted release date
	Date     string        // DD/MM/YYYY added date
	Duration string        // m:ss, seconds zero-padded
}

// TooltipRow is the plain-text payload behind one chart point.
type TooltipRow struct {
	Name    string `json:"name"`
	Artists string `json:"artists"`
}

// ChartPoint is one point of the cumulative timeline: x is the instant the
// item joined the collection, y the running count at that moment.
type ChartPoint struct {
	X time.Time `json:"x"`
	Y float64   `json:"y"`
}

// Timeline holds the three synchronized views plus track name labels.
// Index i of each slice refers to the same underlying item; the chart and
// tooltip slices carry one extra synthetic "as of now" entry.
type Timeline struct {
	DisplayRows []DisplayRow
	TooltipRows []TooltipRow
	ChartPoints []ChartPoint
	Labels      []string
}

// Build sorts items ascending by the instant they joined the collection and
// projects them into a Timeline.
//
// An empty item list is a distinct caller-visible outcome and returns
// [shared.ErrEmptyCollection]. The sort is stable: ties keep their original
// relative order. A final chart point (now, n+0.001) with a matching tooltip
// entry anchors the chart at the present moment, offset in y so its x-value
// never collides with the last real point on a flat chart.
func Build(items []spotify.Item, now time.Time) (*Timeline, error) {
	if len(items) == 0 {
		return nil, shared.ErrEmptyCollection
	}

	sorted := make([]spotify.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AddedAt.Before(sorted[j].AddedAt)
	})

	n := len(sorted)
	timeline := &Timeline{
		DisplayRows: make([]DisplayRow, n),
		TooltipRows: make([]TooltipRow, 0, n+1),
		ChartPoints: make([]ChartPoint, 0, n+1),
		Labels:      make([]string, n),
	}

	for i, item := range sorted {
		track := item.Track
		timeline.DisplayRows[i] = DisplayRow{
			Name:     TrackLink(track),
			Artists:  ArtistLinks(track.Artists),
			Album:    AlbumLink(track.Album),
			Date:     FormatDate(item.AddedAt),
			Duration: FormatDuration(track.DurationMS),
		}
		timeline.TooltipRows = append(timeline.TooltipRows, TooltipRow{
			Name:    trackName(track),
			Artists: ArtistNames(track.Artists),
		})
		timeline.ChartPoints = append(timeline.ChartPoints, ChartPoint{
			X: item.AddedAt,
			Y: float64(i + 1),
		})
		timeline.Labels[i] = trackName(track)
	}

	timeline.ChartPoints = append(timeline.ChartPoints, ChartPoint{
		X: now,
		Y: float64(n) + 0.001,
	})
	timeline.TooltipRows = append(timeline.TooltipRows, TooltipRow{
		Name:    "As of now",
		Artists: fmt.Sprintf("%d tracks", n),
	})

	return timeline, nil
}

// TrackLink renders a track name as a link to the provider's track page.
// Tracks without a provider ID degrade to escaped plain text.
func TrackLink(track spotify.Track) template.HTML {
	return anchor(openBaseURL+"/track/"+track.ID, track.ID, trackName(track), "Listen on Spotify")
}

// ArtistLinks renders a comma-joined list of artist links. Falls back to the
// literal "Unknown" when no artist names resolve.
func ArtistLinks(artists []spotify.Artist) template.HTML {
	var parts []string
	for _, artist := range artists {
		if artist.Name == "" && artist.ID == "" {
			continue
		}
		name := artist.Name
		if name == "" {
			name = unknownLabel
		}
		title := fmt.Sprintf("View %s on Spotify", name)
		parts = append(parts, string(anchor(openBaseURL+"/artist/"+artist.ID, artist.ID, name, title)))
	}
	if len(parts) == 0 {
		return template.HTML(unknownLabel)
	}
	return template.HTML(strings.Join(parts, ", "))
}

// AlbumLink renders an album name linked to the provider's album page,
// suffixed with the formatted release date when the provider supplies one.
func AlbumLink(album spotify.Album) template.HTML {
	name := album.Name
	if name == "" {
		name = unknownLabel
	}
	link := anchor(openBaseURL+"/album/"+album.ID, album.ID, name, "View album on Spotify")
	if album.ReleaseDate == "" {
		return link
	}
	return template.HTML(fmt.Sprintf("%s (%s)", link, FormatReleaseDate(album.ReleaseDate)))
}

// ArtistNames joins artist names with commas for tooltip text, using the
// literal "Unknown" when no names resolve.
func ArtistNames(artists []spotify.Artist) string {
	var names []string
	for _, artist := range artists {
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
	}
	if len(names) == 0 {
		return unknownLabel
	}
	return strings.Join(names, ", ")
}

// FormatDate formats an instant as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatReleaseDate formats a provider release date as DD/MM/YYYY.
//
// Release dates come in day, month, or year precision; missing month and day
// components default to 01.
func FormatReleaseDate(date string) string {
	parts := strings.SplitN(date, "-", 3)
	year := parts[0]
	month, day := "01", "01"
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		day = parts[2]
	}
	return fmt.Sprintf("%s/%s/%s", day, month, year)
}

// FormatDuration formats a millisecond duration as m:ss with zero-padded
// seconds, e.g. 65000 -> "1:05".
func FormatDuration(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func trackName(track spotify.Track) string {
	if track.Name == "" {
		return unknownLabel
	}
	return track.Name
}

// anchor builds an escaped link, degrading to escaped plain text when the
// entity has no provider ID to link to.
func anchor(href, id, text, title string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	if id == "" {
		return template.HTML(escaped)
	}
	return template.HTML(fmt.Sprintf(
		`<a href="%s" target="_blank" title="%s">%s</a>`,
		template.HTMLEscapeString(href),
		template.HTMLEscapeString(title),
		escaped,
	))
}
