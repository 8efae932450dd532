package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Resolver tries a ranked list of draw sources in order; the first success wins.
type Resolver struct {
	sources []models.DrawSource
	logger  zerolog.Logger
}

// NewResolver creates a resolver over sources, highest priority first
func NewResolver(sources ...models.DrawSource) *Resolver {
	return &Resolver{
		sources: sources,
		logger:  log.With().Str("component", "history_resolver").Logger(),
	}
}

// LatestIssue returns the newest issue id and the source that served it
func (r *Resolver) LatestIssue(ctx context.Context, v models.VariantConfig) (string, models.DrawSource, error) {
	var lastErr error
	for _, src := range r.sources {
		issue, err := src.LatestIssue(ctx, v)
		if err == nil {
			return issue, src, nil
		}
		lastErr = err
		r.logFailure(src, v, err)
	}
	return "", nil, exhausted(lastErr)
}

// History returns draw records and the source that served them
func (r *Resolver) History(ctx context.Context, v models.VariantConfig, start, end string) ([]models.DrawRecord, models.DrawSource, error) {
	var lastErr error
	for _, src := range r.sources {
		records, err := src.History(ctx, v, start, end)
		if err == nil {
			return records, src, nil
		}
		lastErr = err
		r.logFailure(src, v, err)
	}
	return nil, nil, exhausted(lastErr)
}

func (r *Resolver) logFailure(src models.DrawSource, v models.VariantConfig, err error) {
	event := r.logger.Warn()
	if errors.Is(err, models.ErrMissingData) {
		event = r.logger.Debug()
	}
	event.Err(err).Str("source", src.Name()).Str("variant", v.Code).Msg("Draw source failed, trying next")
}

func exhausted(lastErr error) error {
	if lastErr == nil {
		return fmt.Errorf("%w: no sources configured", models.ErrMissingData)
	}
	if errors.Is(lastErr, models.ErrMissingData) {
		return lastErr
	}
	return fmt.Errorf("%w: %w", models.ErrMissingData, lastErr)
}
