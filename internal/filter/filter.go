package filter

import (
	"net/url"
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure ListingFilter implements model.ListingFilter.
var _ model.ListingFilter = (*ListingFilter)(nil)

// ListingFilter keeps listings whose title contains any include keyword, no
// exclude keyword, and whose link host is not an excluded domain.
// Matching is case-insensitive. Empty lists are treated as "match all".
type ListingFilter struct {
	titleKeywords  []string
	excludeTitles  []string
	excludeDomains []string
}

// NewListingFilter returns a filter over listing titles and link domains.
func NewListingFilter(titleKeywords, excludeTitles, excludeDomains []string) *ListingFilter {
	return &ListingFilter{
		titleKeywords:  lowerAll(titleKeywords),
		excludeTitles:  lowerAll(excludeTitles),
		excludeDomains: lowerAll(excludeDomains),
	}
}

// Match returns true if the listing passes every configured rule.
func (f *ListingFilter) Match(l model.Listing) bool {
	titleLower := strings.ToLower(l.Title)

	if len(f.titleKeywords) > 0 && !containsAny(titleLower, f.titleKeywords) {
		return false
	}
	if containsAny(titleLower, f.excludeTitles) {
		return false
	}

	if len(f.excludeDomains) > 0 {
		host := linkHost(l.Link)
		for _, d := range f.excludeDomains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return false
			}
		}
	}

	return true
}

// Apply returns the listings that match, preserving order.
func (f *ListingFilter) Apply(listings []model.Listing) []model.Listing {
	kept := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			kept = append(kept, l)
		}
	}
	return kept
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func linkHost(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
