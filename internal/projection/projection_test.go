package projection

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/trackline/internal/shared"
	"github.com/desertthunder/trackline/internal/spotify"
)

func item(id, name string, addedAt time.Time) spotify.Item {
	return spotify.Item{
		AddedAt: addedAt,
		Track: spotify.Track{
			ID:         id,
			Name:       name,
			DurationMS: 200000,
			Artists:    []spotify.Artist{{ID: "artist-1", Name: "Someone"}},
			Album:      spotify.Album{ID: "album-1", Name: "Somewhere", ReleaseDate: "1999-07-15"},
		},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	t1 := now.Add(-72 * time.Hour)
	t2 := now.Add(-48 * time.Hour)
	t3 := now.Add(-24 * time.Hour)

	t.Run("Empty Collection Is Rejected", func(t *testing.T) {
		if _, err := Build(nil, now); !errors.Is(err, shared.ErrEmptyCollection) {
			t.Errorf("expected ErrEmptyCollection, got %v", err)
		}
	})

	t.Run("Sorts Ascending By Added Date", func(t *testing.T) {
		items := []spotify.Item{
			item("c", "Third", t3),
			item("a", "First", t1),
			item("b", "Second", t2),
		}

		timeline, err := Build(items, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		wantLabels := []string{"First", "Second", "Third"}
		for i, want := range wantLabels {
			if timeline.Labels[i] != want {
				t.Errorf("expected label %d to be %s, got %s", i, want, timeline.Labels[i])
			}
		}
	})

	t.Run("Stable Sort Keeps Tie Order", func(t *testing.T) {
		items := []spotify.Item{
			item("a", "First Added", t1),
			item("b", "Second Added", t1),
		}

		timeline, err := Build(items, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if timeline.Labels[0] != "First Added" || timeline.Labels[1] != "Second Added" {
			t.Errorf("expected ties to keep input order, got %v", timeline.Labels)
		}
	})

	t.Run("Projections Stay Index-Aligned", func(t *testing.T) {
		items := []spotify.Item{
			item("c", "Third", t3),
			item("a", "First", t1),
			item("b", "Second", t2),
		}

		timeline, err := Build(items, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for i := range timeline.DisplayRows {
			name := timeline.Labels[i]
			if !strings.Contains(string(timeline.DisplayRows[i].Name), name) {
				t.Errorf("display row %d does not match item %s", i, name)
			}
			if timeline.TooltipRows[i].Name != name {
				t.Errorf("tooltip row %d does not match item %s", i, name)
			}
			if timeline.ChartPoints[i].Y != float64(i+1) {
				t.Errorf("expected chart point %d to have y=%d, got %v", i, i+1, timeline.ChartPoints[i].Y)
			}
		}
	})

	t.Run("Synthetic As-Of-Now Anchor", func(t *testing.T) {
		items := []spotify.Item{item("a", "Only", t1)}

		timeline, err := Build(items, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(timeline.ChartPoints) != 2 || len(timeline.TooltipRows) != 2 {
			t.Fatal("expected one synthetic chart point and tooltip row")
		}

		last := timeline.ChartPoints[len(timeline.ChartPoints)-1]
		if !last.X.Equal(now) {
			t.Errorf("expected anchor at now, got %v", last.X)
		}
		if last.Y != 1.001 {
			t.Errorf("expected anchor y of 1.001, got %v", last.Y)
		}
		if len(timeline.DisplayRows) != 1 {
			t.Error("display rows must not grow a synthetic entry")
		}
	})

	t.Run("Formats Row Fields", func(t *testing.T) {
		items := []spotify.Item{item("a", "Only", time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC))}

		timeline, err := Build(items, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		row := timeline.DisplayRows[0]
		if row.Date != "03/02/2024" {
			t.Errorf("expected DD/MM/YYYY added date, got %s", row.Date)
		}
		if row.Duration != "3:20" {
			t.Errorf("expected 3:20 duration, got %s", row.Duration)
		}
		if !strings.Contains(string(row.Album), "15/07/1999") {
			t.Errorf("expected release date in album cell, got %s", row.Album)
		}
	})
}

func TestRendering(t *testing.T) {
	t.Run("TrackLink", func(t *testing.T) {
		t.Run("With Provider ID", func(t *testing.T) {
			link := string(TrackLink(spotify.Track{ID: "abc", Name: "Song"}))
			if !strings.Contains(link, `href="https://open.spotify.com/track/abc"`) {
				t.Errorf("expected track href, got %s", link)
			}
		})

		t.Run("Without Provider ID", func(t *testing.T) {
			link := string(TrackLink(spotify.Track{Name: "Local Only"}))
			if strings.Contains(link, "<a") {
				t.Errorf("expected plain text without an ID, got %s", link)
			}
			if link != "Local Only" {
				t.Errorf("expected plain name, got %s", link)
			}
		})

		t.Run("Escapes Names", func(t *testing.T) {
			link := string(TrackLink(spotify.Track{ID: "abc", Name: `<script>"hi"</script>`}))
			if strings.Contains(link, "<script>") {
				t.Errorf("expected escaped name, got %s", link)
			}
		})

		t.Run("Nameless Track", func(t *testing.T) {
			link := string(TrackLink(spotify.Track{ID: "abc"}))
			if !strings.Contains(link, "Unknown") {
				t.Errorf("expected Unknown fallback, got %s", link)
			}
		})
	})

	t.Run("ArtistNames", func(t *testing.T) {
		t.Run("Joins With Commas", func(t *testing.T) {
			names := ArtistNames([]spotify.Artist{{Name: "A"}, {Name: "B"}})
			if names != "A, B" {
				t.Errorf("expected 'A, B', got %s", names)
			}
		})

		t.Run("Unknown Fallback", func(t *testing.T) {
			if got := ArtistNames(nil); got != "Unknown" {
				t.Errorf("expected Unknown, got %s", got)
			}
			if got := ArtistNames([]spotify.Artist{{ID: "x"}}); got != "Unknown" {
				t.Errorf("expected Unknown for nameless artists, got %s", got)
			}
		})
	})

	t.Run("ArtistLinks Unknown Fallback", func(t *testing.T) {
		if got := string(ArtistLinks(nil)); got != "Unknown" {
			t.Errorf("expected Unknown, got %s", got)
		}
	})
}

func TestFormatReleaseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1999", "01/01/1999"},
		{"1999-07", "01/07/1999"},
		{"1999-07-15", "15/07/1999"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := FormatReleaseDate(tc.in); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int
		want string
	}{
		{65000, "1:05"},
		{5000, "0:05"},
		{0, "0:00"},
		{600000, "10:00"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			if got := FormatDuration(tc.ms); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
