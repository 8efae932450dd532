package models

import "context"

// DrawSource is one tier of the history resolver
type DrawSource interface {
	Name() string
	LatestIssue(ctx context.Context, v VariantConfig) (string, error)
	History(ctx context.Context, v VariantConfig, start, end string) ([]DrawRecord, error)
}

// DrawStore persists the latest known draw history of a variant
type DrawStore interface {
	Load(ctx context.Context, v VariantConfig) ([]DrawRecord, error)
	Save(ctx context.Context, v VariantConfig, records []DrawRecord) error
}

// Engine trains a model and produces the textual prediction output
type Engine interface {
	ArtifactsPresent(v VariantConfig) bool
	Train(ctx context.Context, v VariantConfig, split float64) error
	Predict(ctx context.Context, v VariantConfig) (string, error)
}
