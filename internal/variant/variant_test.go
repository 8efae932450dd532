package variant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Alias1177/LottoPredictor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"dlt", "ssq"}, r.Codes())

	dlt, err := r.Lookup("dlt")
	require.NoError(t, err)
	assert.Equal(t, 5, dlt.RedCount)
	assert.Equal(t, 2, dlt.BlueCount)
	assert.Equal(t, []string{"期数", "红球_1", "红球_2", "红球_3", "红球_4", "红球_5", "蓝球_1", "蓝球_2"}, dlt.Columns())
	assert.Equal(t, 8, dlt.Width())

	ssq, err := r.Lookup("ssq")
	require.NoError(t, err)
	assert.Equal(t, []string{"蓝球"}, ssq.Headers(models.Blue))
	assert.Equal(t, 8, ssq.Width())
}

func TestLookupReturnsCopy(t *testing.T) {
	r := Default()
	v, err := r.Lookup("dlt")
	require.NoError(t, err)
	v.CheckpointMarkers[0] = "tampered"
	v.RedCount = 1

	again, err := r.Lookup("dlt")
	require.NoError(t, err)
	assert.Equal(t, 5, again.RedCount)
	assert.NotEqual(t, "tampered", again.CheckpointMarkers[0])
}

func TestLookupUnknown(t *testing.T) {
	_, err := Default().Lookup("kl8")
	assert.ErrorIs(t, err, models.ErrUnknownVariant)
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		list []models.VariantConfig
	}{
		{
			name: "пустой код",
			list: []models.VariantConfig{{StoragePath: "x.csv", RedCount: 1, RedMax: 1, BlueCount: 1, BlueMax: 1, LiteModelPath: "m.json"}},
		},
		{
			name: "диапазон меньше количества",
			list: []models.VariantConfig{{Code: "x", StoragePath: "x.csv", RedCount: 5, RedMax: 3, BlueCount: 1, BlueMax: 1, LiteModelPath: "m.json"}},
		},
		{
			name: "дубликат",
			list: []models.VariantConfig{builtins[0], builtins[0]},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.list)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	content := `variants:
  - code: qlc
    name: 七乐彩
    storage_path: qlc/data.csv
    red_count: 7
    red_max: 30
    blue_count: 1
    blue_max: 30
    issue_column: 0
    red_column: 1
    blue_column: 8
    lite_model_path: qlc/lite/lite_model.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"qlc"}, r.Codes())

	v, err := r.Lookup("qlc")
	require.NoError(t, err)
	assert.Equal(t, 7, v.RedCount)
	assert.Equal(t, 9, v.Width())
}

func TestLoadEmptyPathUsesBuiltins(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)
	assert.Len(t, r.Codes(), 2)
}
