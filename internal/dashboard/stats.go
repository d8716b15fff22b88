package dashboard

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// missingDate is the sort key for listings without a date_found.
const missingDate = "1900-01-01"

// Stats summarizes the persisted listings for a given day.
type Stats struct {
	TotalJobs    int `json:"total_jobs"`
	NewToday     int `json:"new_today"`
	NewYesterday int `json:"new_yesterday"`
	Companies    int `json:"companies"`
	Cities       int `json:"cities"`
}

// ComputeStats counts listings found on today's and the previous calendar
// date plus distinct companies and cities. now is interpreted in its own
// location.
func ComputeStats(listings []model.Listing, now time.Time) Stats {
	today := model.FormatDate(now)
	yesterday := model.FormatDate(now.AddDate(0, 0, -1))

	companies := make(map[string]struct{})
	cities := make(map[string]struct{})
	stats := Stats{TotalJobs: len(listings)}

	for _, l := range listings {
		switch l.DateFound {
		case today:
			stats.NewToday++
		case yesterday:
			stats.NewYesterday++
		}
		if l.Company != "" {
			companies[l.Company] = struct{}{}
		}
		if l.Location != "" {
			if city := l.City(); city != "" {
				cities[city] = struct{}{}
			}
		}
	}

	stats.Companies = len(companies)
	stats.Cities = len(cities)
	return stats
}

// SortNewestFirst returns a copy of listings ordered by date_found
// descending. Listings sharing a date keep their stored order.
func SortNewestFirst(listings []model.Listing) []model.Listing {
	sorted := slices.Clone(listings)
	slices.SortStableFunc(sorted, func(a, b model.Listing) int {
		return cmp.Compare(sortKey(b), sortKey(a))
	})
	return sorted
}

func sortKey(l model.Listing) string {
	if strings.TrimSpace(l.DateFound) == "" {
		return missingDate
	}
	return l.DateFound
}
