package orchestrator

import "github.com/Alias1177/LottoPredictor/models"

// Decide resolves the step sequence from the caller flags and the artifact probe.
//
//	predict_only, no artifact   -> ErrNoModelForPredictOnly
//	predict_only, artifact      -> predict
//	refresh                     -> fetch, train when forced or no artifact, predict
//	force_train or no artifact  -> fetch, train, predict
//	otherwise                   -> predict
func Decide(flags models.Flags, artifactPresent bool) (models.Plan, error) {
	switch {
	case flags.PredictOnly && !artifactPresent:
		return models.Plan{}, models.ErrNoModelForPredictOnly
	case flags.PredictOnly:
		return models.Plan{Predict: true}, nil
	case flags.RefreshData:
		return models.Plan{Fetch: true, Train: flags.ForceTrain || !artifactPresent, Predict: true}, nil
	case flags.ForceTrain || !artifactPresent:
		return models.Plan{Fetch: true, Train: true, Predict: true}, nil
	default:
		return models.Plan{Predict: true}, nil
	}
}

// ValidateSplit checks the train/test ratio passed to the training step
func ValidateSplit(split float64) error {
	// Written as a range test so NaN fails too
	if !(split >= 0.5 && split < 1.0) {
		return models.ErrInvalidSplit
	}
	return nil
}
