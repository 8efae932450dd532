// Package orchestrator sequences the fetch, train and predict steps of one run.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/Alias1177/LottoPredictor/internal/fetcher"
	"github.com/Alias1177/LottoPredictor/internal/output"
	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Refresher refreshes the local draw history of a variant
type Refresher interface {
	Refresh(ctx context.Context, v models.VariantConfig) (*fetcher.Snapshot, error)
}

// Result is the outcome of a completed run
type Result struct {
	Plan       models.Plan
	Snapshot   *fetcher.Snapshot
	Output     string
	Prediction models.PredictionResult
}

// Parsed reports whether a prediction could be extracted from the predict output
func (r *Result) Parsed() bool {
	return len(r.Prediction) > 0
}

// Orchestrator is the TrainingOrchestrator. Runs are synchronous; callers must not overlap runs of one variant.
type Orchestrator struct {
	refresher Refresher
	engine    models.Engine
	logger    zerolog.Logger
}

// New creates an orchestrator over the history refresher and the model engine
func New(refresher Refresher, engine models.Engine) *Orchestrator {
	return &Orchestrator{
		refresher: refresher,
		engine:    engine,
		logger:    log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run probes the artifacts, decides the plan and executes it. The first failing step aborts the run.
func (o *Orchestrator) Run(ctx context.Context, v models.VariantConfig, flags models.Flags, split float64) (*Result, error) {
	if err := ValidateSplit(split); err != nil {
		return nil, err
	}

	present := o.engine.ArtifactsPresent(v)
	plan, err := Decide(flags, present)
	if err != nil {
		o.logger.Error().Str("variant", v.Code).Msg("No trained model found and predict-only was requested")
		return nil, err
	}

	steps := plan.Steps()
	o.logger.Info().
		Str("variant", v.Code).
		Bool("refresh", flags.RefreshData).
		Bool("force_train", flags.ForceTrain).
		Bool("predict_only", flags.PredictOnly).
		Bool("artifact_present", present).
		Strs("steps", steps).
		Msg("Run planned")

	result := &Result{Plan: plan}
	stage := 0
	progress := func(step string) {
		stage++
		o.logger.Info().Str("variant", v.Code).Msgf("[%d/%d] %s", stage, len(steps), step)
	}

	if plan.Fetch {
		progress(models.StepFetch)
		snap, err := o.refresher.Refresh(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("fetch step: %w", err)
		}
		result.Snapshot = snap
	}

	if plan.Train {
		progress(models.StepTrain)
		if err := o.engine.Train(ctx, v, split); err != nil {
			return nil, fmt.Errorf("train step: %w", err)
		}
	} else {
		o.logger.Info().Str("variant", v.Code).Msg("Trained model found, skipping training")
	}

	progress(models.StepPredict)
	out, err := o.engine.Predict(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("predict step: %w", err)
	}
	result.Output = out
	result.Prediction = output.Parse(out)

	if !result.Parsed() {
		o.logger.Warn().Err(models.ErrUnparsableOutput).Str("variant", v.Code).Msg("Prediction output not understood")
	}
	return result, nil
}
