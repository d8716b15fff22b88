package store

import (
	"fmt"
	"testing"

	"github.com/amishk599/jobpulse/internal/model"
)

func listing(link string) model.Listing {
	return model.Listing{Title: "Product Manager", Company: "Acme", Link: link, DateFound: "2025-03-11"}
}

func listings(prefix string, n int) []model.Listing {
	out := make([]model.Listing, n)
	for i := range out {
		out[i] = listing(fmt.Sprintf("https://%s/%d", prefix, i))
	}
	return out
}

func links(ls []model.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Link
	}
	return out
}

func assertUniqueLinks(t *testing.T, ls []model.Listing) {
	t.Helper()
	seen := make(map[string]bool, len(ls))
	for _, l := range ls {
		if seen[l.Link] {
			t.Fatalf("duplicate link %q", l.Link)
		}
		seen[l.Link] = true
	}
}

func TestMerge_EmptyIncomingLeavesStoreUnchanged(t *testing.T) {
	existing := listings("old", 3)
	merged, added := Merge(existing, nil, 200)
	if len(added) != 0 {
		t.Errorf("added = %v, want none", links(added))
	}
	if fmt.Sprint(links(merged)) != fmt.Sprint(links(existing)) {
		t.Errorf("merged = %v, want %v", links(merged), links(existing))
	}
}

func TestMerge_DuplicateWithinBatch(t *testing.T) {
	merged, added := Merge(nil, []model.Listing{listing("a"), listing("a")}, 200)
	if len(added) != 1 || len(merged) != 1 || merged[0].Link != "a" {
		t.Errorf("merged = %v added = %v, want single entry a", links(merged), links(added))
	}
}

func TestMerge_SkipsExistingAndEmptyLinks(t *testing.T) {
	existing := []model.Listing{listing("a"), listing("b")}
	incoming := []model.Listing{listing("b"), listing(""), listing("c"), listing("d")}

	merged, added := Merge(existing, incoming, 200)
	if got := fmt.Sprint(links(added)); got != "[c d]" {
		t.Errorf("added = %s, want [c d]", got)
	}
	if got := fmt.Sprint(links(merged)); got != "[c d a b]" {
		t.Errorf("merged = %s, want [c d a b]", got)
	}
}

func TestMerge_FullStoreDropsOldest(t *testing.T) {
	existing := listings("old", 200)
	merged, added := Merge(existing, []model.Listing{listing("new")}, 200)

	if len(merged) != 200 {
		t.Fatalf("len(merged) = %d, want 200", len(merged))
	}
	if merged[0].Link != "new" {
		t.Errorf("merged[0] = %q, want new", merged[0].Link)
	}
	if merged[199].Link != existing[198].Link {
		t.Errorf("merged[199] = %q, want %q", merged[199].Link, existing[198].Link)
	}
	if len(added) != 1 {
		t.Errorf("len(added) = %d, want 1", len(added))
	}
}

func TestMerge_AddedTruncatedToCap(t *testing.T) {
	merged, added := Merge(listings("old", 5), listings("new", 12), 10)
	if len(merged) != 10 || len(added) != 10 {
		t.Fatalf("len(merged) = %d len(added) = %d, want 10/10", len(merged), len(added))
	}
	if fmt.Sprint(links(merged)) != fmt.Sprint(links(added)) {
		t.Errorf("merged should consist of the surviving added listings")
	}
}

func TestMerge_Invariants(t *testing.T) {
	existing := listings("x", 150)
	for round := 0; round < 5; round++ {
		incoming := append(listings("x", 20), listings(fmt.Sprintf("r%d", round), 40)...)
		incoming = append(incoming, incoming[25])

		var added []model.Listing
		existing, added = Merge(existing, incoming, 200)
		if len(existing) > 200 {
			t.Fatalf("round %d: len = %d, exceeds cap", round, len(existing))
		}
		assertUniqueLinks(t, existing)
		if len(added) != 40 {
			t.Errorf("round %d: added %d, want 40", round, len(added))
		}
	}
}
