package store

import (
	"context"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure DryRunStore implements model.ListingStore.
var _ model.ListingStore = (*DryRunStore)(nil)

// DryRunStore reads through to another store but never writes. Merge reports
// what would have been added.
type DryRunStore struct {
	inner model.ListingStore
	limit int
}

func NewDryRunStore(inner model.ListingStore, limit int) *DryRunStore {
	return &DryRunStore{inner: inner, limit: limit}
}

func (s *DryRunStore) Load(ctx context.Context) ([]model.Listing, error) {
	return s.inner.Load(ctx)
}

func (s *DryRunStore) Merge(ctx context.Context, incoming []model.Listing) ([]model.Listing, error) {
	existing, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	_, added := Merge(existing, incoming, s.limit)
	return added, nil
}
