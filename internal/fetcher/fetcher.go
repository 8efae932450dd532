// Package fetcher acquires draw history: the remote source first, local copies as fallback.
package fetcher

import (
	"context"
	"fmt"

	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mode decides whether fetched history is persisted
type Mode string

const (
	// ModeTrain persists a successful remote fetch, replacing the local snapshot
	ModeTrain Mode = "train"
	// ModePredict only returns the records
	ModePredict Mode = "predict"
)

// Snapshot is the outcome of a full refresh
type Snapshot struct {
	Latest  string
	Records []models.DrawRecord
	Source  string
}

type remote interface {
	Remote() bool
}

// Fetcher is the HistoryFetcher
type Fetcher struct {
	resolver *Resolver
	primary  models.DrawStore
	mirrors  []models.DrawStore
	logger   zerolog.Logger
}

// New creates a fetcher. primary receives persisted snapshots; mirror failures are only logged.
func New(resolver *Resolver, primary models.DrawStore, mirrors ...models.DrawStore) *Fetcher {
	return &Fetcher{
		resolver: resolver,
		primary:  primary,
		mirrors:  mirrors,
		logger:   log.With().Str("component", "history_fetcher").Logger(),
	}
}

// LatestIssue returns the newest known issue id of the variant
func (f *Fetcher) LatestIssue(ctx context.Context, v models.VariantConfig) (string, error) {
	issue, src, err := f.resolver.LatestIssue(ctx, v)
	if err != nil {
		return "", fmt.Errorf("latest issue of %s: %w", v.Code, err)
	}
	f.logger.Info().Str("variant", v.Code).Str("source", src.Name()).Str("issue", issue).Msg("Latest issue resolved")
	return issue, nil
}

// History returns the draws between start and end
func (f *Fetcher) History(ctx context.Context, v models.VariantConfig, start, end string, mode Mode) ([]models.DrawRecord, error) {
	records, _, err := f.history(ctx, v, start, end, mode)
	return records, err
}

// Refresh resolves the latest issue and fetches the whole history in train mode
func (f *Fetcher) Refresh(ctx context.Context, v models.VariantConfig) (*Snapshot, error) {
	latest, err := f.LatestIssue(ctx, v)
	if err != nil {
		return nil, err
	}

	f.logger.Info().Str("variant", v.Code).Str("name", v.Name).Msg("Fetching draw history")
	records, source, err := f.history(ctx, v, "1", latest, ModeTrain)
	if err != nil {
		return nil, err
	}

	f.logger.Info().Str("variant", v.Code).Int("count", len(records)).Msg("Draw history ready for training")
	return &Snapshot{Latest: latest, Records: records, Source: source}, nil
}

func (f *Fetcher) history(ctx context.Context, v models.VariantConfig, start, end string, mode Mode) ([]models.DrawRecord, string, error) {
	records, src, err := f.resolver.History(ctx, v, start, end)
	if err != nil {
		return nil, "", fmt.Errorf("history of %s: %w", v.Code, err)
	}

	if r, ok := src.(remote); !ok || !r.Remote() {
		f.logger.Warn().Str("variant", v.Code).Str("source", src.Name()).Msg("Network fetch failed, using local data")
		return records, src.Name(), nil
	}

	if mode == ModeTrain {
		if err := f.persist(ctx, v, records); err != nil {
			return nil, "", err
		}
	}
	return records, src.Name(), nil
}

func (f *Fetcher) persist(ctx context.Context, v models.VariantConfig, records []models.DrawRecord) error {
	if f.primary != nil {
		if err := f.primary.Save(ctx, v, records); err != nil {
			return fmt.Errorf("saving history of %s: %w", v.Code, err)
		}
	}
	for _, m := range f.mirrors {
		if err := m.Save(ctx, v, records); err != nil {
			f.logger.Warn().Err(err).Str("variant", v.Code).Msg("Mirroring draw history failed")
		}
	}
	return nil
}
