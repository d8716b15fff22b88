package model

import (
	"context"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for Listing.DateFound.
const DateLayout = "2006-01-02"

// Defaults for optional listing fields.
const (
	DefaultLocation = "India"
	DefaultSnippet  = "No description available"
)

// Listing is a single job posting extracted from search results and persisted
// in the listing store. Link uniquely identifies a listing.
type Listing struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Link      string `json:"link"`
	Snippet   string `json:"snippet"`
	DateFound string `json:"date_found"`
}

// City returns the first comma-separated segment of the location, trimmed.
func (l Listing) City() string {
	city, _, _ := strings.Cut(l.Location, ",")
	return strings.TrimSpace(city)
}

// FormatDate renders t as a DateFound value.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SearchResult is one raw organic result returned by the search provider.
type SearchResult struct {
	Position      int    `json:"position,omitempty"`
	Title         string `json:"title"`
	Link          string `json:"link"`
	DisplayedLink string `json:"displayed_link,omitempty"`
	Snippet       string `json:"snippet,omitempty"`
	Source        string `json:"source,omitempty"`
	Date          string `json:"date,omitempty"`
}

// Searcher runs the configured job query against a search provider.
type Searcher interface {
	Search(ctx context.Context) ([]SearchResult, error)
}

// Extractor turns raw search results into validated listings.
type Extractor interface {
	Extract(ctx context.Context, results []SearchResult) ([]Listing, error)
}

// ListingStore persists the bounded, newest-first listing list.
type ListingStore interface {
	// Load returns the persisted listings, newest first.
	Load(ctx context.Context) ([]Listing, error)
	// Merge adds the incoming listings whose link is not yet stored and
	// returns the ones that were added.
	Merge(ctx context.Context, incoming []Listing) ([]Listing, error)
}

// Notifier publishes the listings added by a run.
type Notifier interface {
	Notify(ctx context.Context, added []Listing) error
}

// ListingFilter decides whether an extracted listing is kept.
type ListingFilter interface {
	Match(l Listing) bool
	// Apply returns the listings that match, in their original order.
	Apply(listings []Listing) []Listing
}
