package fetcher

import (
	"context"
	"fmt"

	"github.com/Alias1177/LottoPredictor/models"
)

// StoreSource serves history from a DrawStore, ignoring the requested issue range
type StoreSource struct {
	name  string
	store models.DrawStore
}

// NewStoreSource wraps store as a resolver tier
func NewStoreSource(name string, store models.DrawStore) *StoreSource {
	return &StoreSource{name: name, store: store}
}

func (s *StoreSource) Name() string { return s.name }

// LatestIssue returns the issue id of the last stored row
func (s *StoreSource) LatestIssue(ctx context.Context, v models.VariantConfig) (string, error) {
	records, err := s.store.Load(ctx, v)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: %s has no rows for %s", models.ErrMissingData, s.name, v.Code)
	}
	return records[len(records)-1].Issue, nil
}

// History returns the whole stored snapshot
func (s *StoreSource) History(ctx context.Context, v models.VariantConfig, _, _ string) ([]models.DrawRecord, error) {
	return s.store.Load(ctx, v)
}
