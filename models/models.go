package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is a ball pool of a game variant
type Category string

const (
	Red  Category = "red"
	Blue Category = "blue"
)

// Column headers of the local store and keys of a PredictionResult
const (
	IssueHeader = "期数"
	redPrefix   = "红球"
	bluePrefix  = "蓝球"
)

// VariantConfig describes one lottery game. Values are never mutated after the registry is built.
type VariantConfig struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	StoragePath string `yaml:"storage_path"` // relative to DATA_DIR
	RedCount    int    `yaml:"red_count"`
	RedMax      int    `yaml:"red_max"`
	BlueCount   int    `yaml:"blue_count"`
	BlueMax     int    `yaml:"blue_max"`

	// Cell layout of one row of the remote history table
	IssueColumn int `yaml:"issue_column"`
	RedColumn   int `yaml:"red_column"`
	BlueColumn  int `yaml:"blue_column"`

	// Files produced by the heavyweight engine, relative to MODEL_DIR
	CheckpointMarkers []string `yaml:"checkpoint_markers"`
	// Lite model artifact, relative to MODEL_DIR
	LiteModelPath string `yaml:"lite_model_path"`
}

// Count returns how many numbers of the category one draw holds
func (v VariantConfig) Count(cat Category) int {
	if cat == Blue {
		return v.BlueCount
	}
	return v.RedCount
}

// Max returns the largest valid number of the category
func (v VariantConfig) Max(cat Category) int {
	if cat == Blue {
		return v.BlueMax
	}
	return v.RedMax
}

// Header returns the column name of position i (1-based).
// A variant with a single blue ball uses the bare "蓝球" header.
func (v VariantConfig) Header(cat Category, i int) string {
	if cat == Blue {
		if v.BlueCount == 1 {
			return bluePrefix
		}
		return fmt.Sprintf("%s_%d", bluePrefix, i)
	}
	return fmt.Sprintf("%s_%d", redPrefix, i)
}

// Headers returns all position headers of the category in order
func (v VariantConfig) Headers(cat Category) []string {
	n := v.Count(cat)
	headers := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		headers = append(headers, v.Header(cat, i))
	}
	return headers
}

// Columns returns the full store header row
func (v VariantConfig) Columns() []string {
	cols := []string{IssueHeader}
	cols = append(cols, v.Headers(Red)...)
	return append(cols, v.Headers(Blue)...)
}

// Width is the minimal number of cells a remote table row must contain
func (v VariantConfig) Width() int {
	width := v.IssueColumn + 1
	if end := v.RedColumn + v.RedCount; end > width {
		width = end
	}
	if end := v.BlueColumn + v.BlueCount; end > width {
		width = end
	}
	return width
}

// Validate checks the descriptor for internal consistency
func (v VariantConfig) Validate() error {
	switch {
	case v.Code == "":
		return fmt.Errorf("variant code is empty")
	case v.StoragePath == "":
		return fmt.Errorf("variant %s: storage_path is empty", v.Code)
	case v.RedCount <= 0 || v.BlueCount <= 0:
		return fmt.Errorf("variant %s: ball counts must be positive", v.Code)
	case v.RedMax < v.RedCount || v.BlueMax < v.BlueCount:
		return fmt.Errorf("variant %s: number range smaller than ball count", v.Code)
	case v.IssueColumn < 0 || v.RedColumn < 0 || v.BlueColumn < 0:
		return fmt.Errorf("variant %s: negative column index", v.Code)
	case v.LiteModelPath == "":
		return fmt.Errorf("variant %s: lite_model_path is empty", v.Code)
	}
	return nil
}

// DrawRecord is one historical drawing. Cells are kept as read; parsing happens on demand.
type DrawRecord struct {
	Issue string
	Red   []string
	Blue  []string
}

// Cells returns the raw cells of the category
func (r DrawRecord) Cells(cat Category) []string {
	if cat == Blue {
		return r.Blue
	}
	return r.Red
}

// Numbers parses the category cells, skipping empty and malformed ones
func (r DrawRecord) Numbers(cat Category) []int {
	cells := r.Cells(cat)
	nums := make([]int, 0, len(cells))
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		n, err := strconv.Atoi(cell)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

// FrequencyModel holds per-number occurrence counts for both ball pools
type FrequencyModel struct {
	Red  map[int]int `json:"red"`
	Blue map[int]int `json:"blue"`
}

// Counts returns the occurrence map of the category
func (m FrequencyModel) Counts(cat Category) map[int]int {
	if cat == Blue {
		return m.Blue
	}
	return m.Red
}

// PredictionResult maps a position header (e.g. "红球_1") to the predicted number
type PredictionResult map[string]int

// Numbers returns the predicted numbers of the category in position order.
// The second value reports how many positions were missing.
func (p PredictionResult) Numbers(v VariantConfig, cat Category) ([]int, int) {
	var (
		nums    []int
		missing int
	)
	for _, header := range v.Headers(cat) {
		n, ok := p[header]
		if !ok {
			missing++
			continue
		}
		nums = append(nums, n)
	}
	return nums, missing
}

// Flags are the caller intent switches of one orchestration run
type Flags struct {
	RefreshData bool
	ForceTrain  bool
	PredictOnly bool
}

// Plan is the resolved step sequence of one orchestration run
type Plan struct {
	Fetch   bool
	Train   bool
	Predict bool
}

// Steps returns the step names in execution order
func (p Plan) Steps() []string {
	var steps []string
	if p.Fetch {
		steps = append(steps, StepFetch)
	}
	if p.Train {
		steps = append(steps, StepTrain)
	}
	if p.Predict {
		steps = append(steps, StepPredict)
	}
	return steps
}

// Step names
const (
	StepFetch   = "fetch"
	StepTrain   = "train"
	StepPredict = "predict"
)
