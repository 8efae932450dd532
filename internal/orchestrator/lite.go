package orchestrator

import (
	"context"

	"github.com/Alias1177/LottoPredictor/internal/lite"
	"github.com/Alias1177/LottoPredictor/internal/output"
	"github.com/Alias1177/LottoPredictor/models"
)

// LiteEngine serves the orchestrator from the in-process frequency predictor.
// Its predict output follows the same marker-line contract as the external engine.
type LiteEngine struct {
	predictor *lite.Predictor
}

// NewLiteEngine wraps predictor as a models.Engine
func NewLiteEngine(predictor *lite.Predictor) *LiteEngine {
	return &LiteEngine{predictor: predictor}
}

// ArtifactsPresent reports whether the lite model artifact exists
func (e *LiteEngine) ArtifactsPresent(v models.VariantConfig) bool {
	return e.predictor.Trained(v)
}

// Train rebuilds the frequency model; the split ratio does not apply to it
func (e *LiteEngine) Train(ctx context.Context, v models.VariantConfig, _ float64) error {
	_, err := e.predictor.Train(ctx, v)
	return err
}

// Predict returns the prediction rendered as the marker line
func (e *LiteEngine) Predict(ctx context.Context, v models.VariantConfig) (string, error) {
	res, err := e.predictor.Predict(ctx, v)
	if err != nil {
		return "", err
	}
	return output.Marker(v, res) + "\n", nil
}
