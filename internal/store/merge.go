package store

import "github.com/amishk599/jobpulse/internal/model"

// DefaultRetention is the number of listings kept when no cap is configured.
const DefaultRetention = 200

// Merge prepends the incoming listings whose link is non-empty and not yet in
// existing, then truncates the result to limit entries. Duplicate links within
// incoming collapse to their first occurrence. The returned added slice holds
// only the accepted listings that survive truncation, in incoming order.
func Merge(existing, incoming []model.Listing, limit int) (merged, added []model.Listing) {
	if limit <= 0 {
		limit = DefaultRetention
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, l := range existing {
		seen[l.Link] = struct{}{}
	}

	added = make([]model.Listing, 0, len(incoming))
	for _, l := range incoming {
		if l.Link == "" {
			continue
		}
		if _, ok := seen[l.Link]; ok {
			continue
		}
		seen[l.Link] = struct{}{}
		added = append(added, l)
	}
	if len(added) > limit {
		added = added[:limit]
	}

	merged = make([]model.Listing, 0, min(len(added)+len(existing), limit))
	merged = append(merged, added...)
	for _, l := range existing {
		if len(merged) == limit {
			break
		}
		merged = append(merged, l)
	}
	return merged, added
}
