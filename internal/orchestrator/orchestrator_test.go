package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Alias1177/LottoPredictor/internal/fetcher"
	"github.com/Alias1177/LottoPredictor/internal/variant"
	"github.com/Alias1177/LottoPredictor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const markerOutput = "预测结果：{'红球_1': 1, '红球_2': 2, '红球_3': 3, '红球_4': 4, '红球_5': 5, '蓝球_1': 1, '蓝球_2': 2}\n"

type recorder struct {
	calls []string
}

type fakeRefresher struct {
	rec *recorder
	err error
}

func (f *fakeRefresher) Refresh(context.Context, models.VariantConfig) (*fetcher.Snapshot, error) {
	f.rec.calls = append(f.rec.calls, models.StepFetch)
	if f.err != nil {
		return nil, f.err
	}
	return &fetcher.Snapshot{Latest: "24003", Source: "remote"}, nil
}

type fakeEngine struct {
	rec        *recorder
	present    bool
	trainErr   error
	predictOut string
	predictErr error
	split      float64
}

func (f *fakeEngine) ArtifactsPresent(models.VariantConfig) bool { return f.present }

func (f *fakeEngine) Train(_ context.Context, _ models.VariantConfig, split float64) error {
	f.rec.calls = append(f.rec.calls, models.StepTrain)
	f.split = split
	return f.trainErr
}

func (f *fakeEngine) Predict(context.Context, models.VariantConfig) (string, error) {
	f.rec.calls = append(f.rec.calls, models.StepPredict)
	return f.predictOut, f.predictErr
}

func dlt(t *testing.T) models.VariantConfig {
	t.Helper()
	v, err := variant.Default().Lookup("dlt")
	require.NoError(t, err)
	return v
}

func TestDecideTable(t *testing.T) {
	predictOnly := models.Plan{Predict: true}
	full := models.Plan{Fetch: true, Train: true, Predict: true}
	fetchPredict := models.Plan{Fetch: true, Predict: true}

	tests := []struct {
		refresh, force, only, present bool
		want                          models.Plan
		wantErr                       error
	}{
		{refresh: true, force: false, only: false, present: true, want: fetchPredict},
		{refresh: true, force: false, only: false, present: false, want: full},
		{refresh: true, force: true, only: false, present: true, want: full},
		{refresh: true, force: true, only: false, present: false, want: full},
		{refresh: false, force: false, only: false, present: true, want: predictOnly},
		{refresh: false, force: false, only: false, present: false, want: full},
		{refresh: false, force: true, only: false, present: true, want: full},
		{refresh: false, force: true, only: false, present: false, want: full},
		{refresh: false, force: false, only: true, present: false, wantErr: models.ErrNoModelForPredictOnly},
		{refresh: true, force: false, only: true, present: false, wantErr: models.ErrNoModelForPredictOnly},
		{refresh: false, force: true, only: true, present: false, wantErr: models.ErrNoModelForPredictOnly},
		{refresh: true, force: true, only: true, present: false, wantErr: models.ErrNoModelForPredictOnly},
		{refresh: false, force: false, only: true, present: true, want: predictOnly},
		{refresh: true, force: false, only: true, present: true, want: predictOnly},
		{refresh: false, force: true, only: true, present: true, want: predictOnly},
		{refresh: true, force: true, only: true, present: true, want: predictOnly},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("refresh=%t force=%t only=%t present=%t", tt.refresh, tt.force, tt.only, tt.present)
		t.Run(name, func(t *testing.T) {
			plan, err := Decide(models.Flags{RefreshData: tt.refresh, ForceTrain: tt.force, PredictOnly: tt.only}, tt.present)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}

func TestValidateSplit(t *testing.T) {
	for _, ok := range []float64{0.5, 0.8, 0.99} {
		assert.NoError(t, ValidateSplit(ok))
	}
	for _, bad := range []float64{0.49, 1.0, 1.5, 0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, ValidateSplit(bad), models.ErrInvalidSplit)
	}
}

func TestRunRejectsNaNSplitBeforeAnyStep(t *testing.T) {
	rec := &recorder{}
	o := New(&fakeRefresher{rec: rec}, &fakeEngine{rec: rec, present: false, predictOut: markerOutput})

	_, err := o.Run(context.Background(), dlt(t), models.Flags{}, math.NaN())
	assert.ErrorIs(t, err, models.ErrInvalidSplit)
	assert.Empty(t, rec.calls)
}

func TestRunPredictOnlyWithoutModelSpawnsNothing(t *testing.T) {
	rec := &recorder{}
	o := New(&fakeRefresher{rec: rec}, &fakeEngine{rec: rec, present: false, predictOut: markerOutput})

	_, err := o.Run(context.Background(), dlt(t), models.Flags{PredictOnly: true}, 0.8)
	assert.ErrorIs(t, err, models.ErrNoModelForPredictOnly)
	assert.Empty(t, rec.calls)
}

func TestRunWithModelOnlyPredicts(t *testing.T) {
	rec := &recorder{}
	o := New(&fakeRefresher{rec: rec}, &fakeEngine{rec: rec, present: true, predictOut: markerOutput})

	res, err := o.Run(context.Background(), dlt(t), models.Flags{}, 0.8)
	require.NoError(t, err)
	assert.Equal(t, []string{models.StepPredict}, rec.calls)
	assert.True(t, res.Parsed())
	assert.Equal(t, 5, res.Prediction["红球_5"])
	assert.Nil(t, res.Snapshot)
}

func TestRunWithoutModelRunsFullSequence(t *testing.T) {
	rec := &recorder{}
	engine := &fakeEngine{rec: rec, present: false, predictOut: markerOutput}
	o := New(&fakeRefresher{rec: rec}, engine)

	res, err := o.Run(context.Background(), dlt(t), models.Flags{}, 0.75)
	require.NoError(t, err)
	assert.Equal(t, []string{models.StepFetch, models.StepTrain, models.StepPredict}, rec.calls)
	assert.Equal(t, 0.75, engine.split)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, "24003", res.Snapshot.Latest)
}

func TestRunRefreshWithModelSkipsTrain(t *testing.T) {
	rec := &recorder{}
	o := New(&fakeRefresher{rec: rec}, &fakeEngine{rec: rec, present: true, predictOut: markerOutput})

	_, err := o.Run(context.Background(), dlt(t), models.Flags{RefreshData: true}, 0.8)
	require.NoError(t, err)
	assert.Equal(t, []string{models.StepFetch, models.StepPredict}, rec.calls)
}

func TestRunFetchFailureAborts(t *testing.T) {
	rec := &recorder{}
	o := New(&fakeRefresher{rec: rec, err: models.ErrMissingData}, &fakeEngine{rec: rec, present: false})

	_, err := o.Run(context.Background(), dlt(t), models.Flags{}, 0.8)
	assert.ErrorIs(t, err, models.ErrMissingData)
	assert.Equal(t, []string{models.StepFetch}, rec.calls)
}

func TestRunTrainFailurePropagatesExitCode(t *testing.T) {
	rec := &recorder{}
	trainErr := &models.SubprocessError{Step: models.StepTrain, ExitCode: 3}
	o := New(&fakeRefresher{rec: rec}, &fakeEngine{rec: rec, present: true, trainErr: trainErr})

	_, err := o.Run(context.Background(), dlt(t), models.Flags{ForceTrain: true}, 0.8)
	var subErr *models.SubprocessError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, 3, subErr.ExitCode)
	assert.Equal(t, []string{models.StepFetch, models.StepTrain}, rec.calls)
}

func TestRunUnparsableOutputIsSoft(t *testing.T) {
	rec := &recorder{}
	o := New(&fakeRefresher{rec: rec}, &fakeEngine{rec: rec, present: true, predictOut: "something went sideways\n"})

	res, err := o.Run(context.Background(), dlt(t), models.Flags{}, 0.8)
	require.NoError(t, err)
	assert.False(t, res.Parsed())
	assert.Empty(t, res.Prediction)
}

func TestRunRejectsInvalidSplit(t *testing.T) {
	rec := &recorder{}
	o := New(&fakeRefresher{rec: rec}, &fakeEngine{rec: rec, present: true})

	_, err := o.Run(context.Background(), dlt(t), models.Flags{}, 1.0)
	assert.ErrorIs(t, err, models.ErrInvalidSplit)
	assert.Empty(t, rec.calls)
}
