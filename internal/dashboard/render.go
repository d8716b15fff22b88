package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// Options controls what the dashboard shows.
type Options struct {
	MaxListings    int
	MaxAPIListings int
	Title          string
	Subtitle       string
	SourceURL      string
}

// Page is the data rendered into index.html.
type Page struct {
	Title       string
	Subtitle    string
	SourceURL   string
	LastUpdated string
	Stats       Stats
	Jobs        []JobCard
}

// JobCard is one listing as shown on the page.
type JobCard struct {
	model.Listing
	New         bool
	ShowSnippet bool
}

// APISummary is the content of the companion jobs.json file.
type APISummary struct {
	Stats
	LastUpdated string          `json:"last_updated"`
	Jobs        []model.Listing `json:"jobs"`
}

// Build computes the page and JSON summary for the given listings as of now.
func Build(listings []model.Listing, now time.Time, opts Options) (Page, APISummary) {
	stats := ComputeStats(listings, now)
	sorted := SortNewestFirst(listings)
	today := model.FormatDate(now)

	shown := sorted[:min(len(sorted), opts.MaxListings)]
	cards := make([]JobCard, len(shown))
	for i, l := range shown {
		cards[i] = JobCard{
			Listing:     l,
			New:         l.DateFound == today,
			ShowSnippet: l.Snippet != "" && l.Snippet != model.DefaultSnippet,
		}
	}

	sourceURL := opts.SourceURL
	if sourceURL == "" {
		sourceURL = "https://github.com"
	}

	page := Page{
		Title:       opts.Title,
		Subtitle:    opts.Subtitle,
		SourceURL:   sourceURL,
		LastUpdated: now.Format("January 02, 2006 at 15:04 MST"),
		Stats:       stats,
		Jobs:        cards,
	}

	api := APISummary{
		Stats:       stats,
		LastUpdated: now.Format(time.RFC3339),
		Jobs:        nonNil(sorted[:min(len(sorted), opts.MaxAPIListings)]),
	}
	return page, api
}

// RenderHTML writes the dashboard page.
func RenderHTML(w io.Writer, page Page) error {
	if err := indexTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}
	return nil
}

// RenderJSON writes the summary as indented JSON without HTML escaping.
func RenderJSON(w io.Writer, summary APISummary) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// nonNil keeps an empty job list encoded as [] rather than null.
func nonNil(ls []model.Listing) []model.Listing {
	if ls == nil {
		return []model.Listing{}
	}
	return ls
}
