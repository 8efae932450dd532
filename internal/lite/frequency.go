// Package lite is the frequency-count predictor used when the heavyweight engine is unavailable.
package lite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Predictor trains and serves the frequency model of each variant
type Predictor struct {
	store    models.DrawStore
	modelDir string
	logger   zerolog.Logger
}

// NewPredictor creates a predictor reading history from store and keeping artifacts under modelDir
func NewPredictor(store models.DrawStore, modelDir string) *Predictor {
	return &Predictor{
		store:    store,
		modelDir: modelDir,
		logger:   log.With().Str("component", "lite_predictor").Logger(),
	}
}

// ArtifactPath returns the model file of the variant
func (p *Predictor) ArtifactPath(v models.VariantConfig) string {
	return filepath.Join(p.modelDir, v.LiteModelPath)
}

// Trained reports whether a model artifact exists for the variant
func (p *Predictor) Trained(v models.VariantConfig) bool {
	info, err := os.Stat(p.ArtifactPath(v))
	return err == nil && !info.IsDir()
}

// Train recomputes the model from the full stored history and overwrites the artifact
func (p *Predictor) Train(ctx context.Context, v models.VariantConfig) (*models.FrequencyModel, error) {
	records, err := p.store.Load(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("loading history of %s: %w", v.Code, err)
	}

	model := Count(records)
	if err := p.save(v, model); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("variant", v.Code).
		Int("rows", len(records)).
		Str("path", p.ArtifactPath(v)).
		Msg("Lite model trained")
	return model, nil
}

// Predict ranks numbers by frequency, training first when no artifact exists
func (p *Predictor) Predict(ctx context.Context, v models.VariantConfig) (models.PredictionResult, error) {
	if !p.Trained(v) {
		p.logger.Info().Str("variant", v.Code).Msg("No lite model found, training first")
		if _, err := p.Train(ctx, v); err != nil {
			return nil, err
		}
	}

	model, err := p.load(v)
	if err != nil {
		return nil, err
	}
	return Pick(v, model), nil
}

// Count aggregates occurrences across all rows and all positional columns of each category
func Count(records []models.DrawRecord) *models.FrequencyModel {
	model := &models.FrequencyModel{
		Red:  make(map[int]int),
		Blue: make(map[int]int),
	}
	for _, rec := range records {
		for _, n := range rec.Numbers(models.Red) {
			model.Red[n]++
		}
		for _, n := range rec.Numbers(models.Blue) {
			model.Blue[n]++
		}
	}
	return model
}

// Pick selects the predicted numbers of both categories
func Pick(v models.VariantConfig, model *models.FrequencyModel) models.PredictionResult {
	result := make(models.PredictionResult, v.RedCount+v.BlueCount)
	for _, cat := range []models.Category{models.Red, models.Blue} {
		k, maxNum := v.Count(cat), v.Max(cat)
		picked := Fill(TopK(model.Counts(cat), k, maxNum), k, maxNum)
		for i, n := range picked {
			result[v.Header(cat, i+1)] = n
		}
	}
	return result
}

// TopK returns up to k numbers within 1..maxNum ordered by count desc, then number asc
func TopK(counts map[int]int, k, maxNum int) []int {
	nums := make([]int, 0, len(counts))
	for n, c := range counts {
		if n < 1 || n > maxNum || c <= 0 {
			continue
		}
		nums = append(nums, n)
	}

	sort.Slice(nums, func(i, j int) bool {
		if counts[nums[i]] != counts[nums[j]] {
			return counts[nums[i]] > counts[nums[j]]
		}
		return nums[i] < nums[j]
	})

	if len(nums) > k {
		nums = nums[:k]
	}
	return nums
}

// Fill tops picked up to k entries with the smallest unused numbers of 1..maxNum
func Fill(picked []int, k, maxNum int) []int {
	out := append(make([]int, 0, k), picked...)
	used := make(map[int]bool, len(picked))
	for _, n := range picked {
		used[n] = true
	}
	for n := 1; n <= maxNum && len(out) < k; n++ {
		if !used[n] {
			out = append(out, n)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (p *Predictor) save(v models.VariantConfig, model *models.FrequencyModel) error {
	path := p.ArtifactPath(v)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encoding lite model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing lite model: %w", err)
	}
	return nil
}

func (p *Predictor) load(v models.VariantConfig) (*models.FrequencyModel, error) {
	data, err := os.ReadFile(p.ArtifactPath(v))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: lite model of %s", models.ErrMissingData, v.Code)
		}
		return nil, err
	}

	// Keys are stored as strings; encoding/json converts them back to int
	var model models.FrequencyModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decoding lite model: %w", err)
	}
	if model.Red == nil {
		model.Red = map[int]int{}
	}
	if model.Blue == nil {
		model.Blue = map[int]int{}
	}
	return &model, nil
}
