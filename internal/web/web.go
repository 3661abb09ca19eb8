// Package web is the presentation adapter: server-rendered HTML for the
// playlist list and the collection timeline view. All rendering concerns
// live here, behind a small contract with the core pipeline.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/desertthunder/trackline/internal/projection"
	"github.com/desertthunder/trackline/internal/spotify"
	"github.com/desertthunder/trackline/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views renders the application's HTML pages from embedded templates.
type Views struct {
	tpl *template.Template
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Views{tpl: tpl}, nil
}

// ListData is the payload for the playlist list page.
type ListData struct {
	Collections []spotify.Collection
}

// displayData is the payload for the timeline page. Chart points, tooltip
// rows and labels are serialized to JSON for the inline chart script.
type displayData struct {
	Name        string
	CoverURL    string
	ItemCount   int
	DisplayRows []projection.DisplayRow
	ChartJSON   template.JS
	TooltipJSON template.JS
	LabelsJSON  template.JS
}

// List renders the playlist list page.
func (v *Views) List(w io.Writer, data ListData) error {
	return v.tpl.ExecuteTemplate(w, "list.html", data)
}

// Display renders the collection timeline page.
func (v *Views) Display(w io.Writer, view *tasks.TimelineView) error {
	chart, err := json.Marshal(view.Timeline.ChartPoints)
	if err != nil {
		return fmt.Errorf("failed to encode chart points: %w", err)
	}
	tooltips, err := json.Marshal(view.Timeline.TooltipRows)
	if err != nil {
		return fmt.Errorf("failed to encode tooltip rows: %w", err)
	}
	labels, err := json.Marshal(view.Timeline.Labels)
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}

	return v.tpl.ExecuteTemplate(w, "display.html", displayData{
		Name:        view.Name,
		CoverURL:    view.CoverURL,
		ItemCount:   view.ItemCount,
		DisplayRows: view.Timeline.DisplayRows,
		ChartJSON:   template.JS(chart),
		TooltipJSON: template.JS(tooltips),
		LabelsJSON:  template.JS(labels),
	})
}
