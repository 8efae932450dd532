// Package variant holds the immutable registry of supported lottery games.
package variant

import (
	"fmt"
	"os"
	"sort"

	"github.com/Alias1177/LottoPredictor/models"
	"gopkg.in/yaml.v3"
)

// Built-in game descriptors
var builtins = []models.VariantConfig{
	{
		Code:        "ssq",
		Name:        "双色球",
		StoragePath: "ssq/data.csv",
		RedCount:    6,
		RedMax:      33,
		BlueCount:   1,
		BlueMax:     16,
		IssueColumn: 0,
		RedColumn:   1,
		BlueColumn:  7,
		CheckpointMarkers: []string{
			"ssq/red_ball_model/red_ball_model.ckpt.meta",
			"ssq/blue_ball_model/blue_ball_model.ckpt.meta",
		},
		LiteModelPath: "ssq/lite/lite_model.json",
	},
	{
		Code:        "dlt",
		Name:        "大乐透",
		StoragePath: "dlt/data.csv",
		RedCount:    5,
		RedMax:      35,
		BlueCount:   2,
		BlueMax:     12,
		IssueColumn: 0,
		RedColumn:   1,
		BlueColumn:  6,
		CheckpointMarkers: []string{
			"dlt/red_ball_model/red_ball_model.ckpt.meta",
			"dlt/blue_ball_model/blue_ball_model.ckpt.meta",
		},
		LiteModelPath: "dlt/lite/lite_model.json",
	},
}

// Registry is a read-only set of variants keyed by code
type Registry struct {
	variants map[string]models.VariantConfig
}

type file struct {
	Variants []models.VariantConfig `yaml:"variants"`
}

// Default returns the registry of built-in variants
func Default() *Registry {
	r, err := New(builtins)
	if err != nil {
		panic(err)
	}
	return r
}

// New builds a registry, rejecting invalid or duplicate descriptors
func New(list []models.VariantConfig) (*Registry, error) {
	r := &Registry{variants: make(map[string]models.VariantConfig, len(list))}
	for _, v := range list {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.variants[v.Code]; dup {
			return nil, fmt.Errorf("duplicate variant %q", v.Code)
		}
		v.CheckpointMarkers = append([]string(nil), v.CheckpointMarkers...)
		r.variants[v.Code] = v
	}
	return r, nil
}

// LoadFile reads variant descriptors from a YAML file
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variants file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing variants file: %w", err)
	}
	if len(f.Variants) == 0 {
		return nil, fmt.Errorf("variants file %s defines no variants", path)
	}
	return New(f.Variants)
}

// Load returns the registry from path, or the built-ins when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Lookup returns a copy of the variant descriptor
func (r *Registry) Lookup(code string) (models.VariantConfig, error) {
	v, ok := r.variants[code]
	if !ok {
		return models.VariantConfig{}, fmt.Errorf("%w: %q", models.ErrUnknownVariant, code)
	}
	v.CheckpointMarkers = append([]string(nil), v.CheckpointMarkers...)
	return v, nil
}

// Codes lists registered variant codes in sorted order
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.variants))
	for code := range r.variants {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
