package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"VARIANT", "ENGINE", "DATA_DIR", "REQUEST_TIMEOUT", "TRAIN_TEST_SPLIT", "DB_HOST"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dlt", cfg.Variant)
	assert.Equal(t, "exec", cfg.Engine)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 0.8, cfg.TrainTestSplit)
	assert.False(t, cfg.DB.Enabled())
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VARIANT", "ssq")
	t.Setenv("ENGINE", "lite")
	t.Setenv("TRAIN_TEST_SPLIT", "0.7")
	t.Setenv("REQUEST_TIMEOUT", "bogus")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ssq", cfg.Variant)
	assert.Equal(t, "lite", cfg.Engine)
	assert.Equal(t, 0.7, cfg.TrainTestSplit)
	assert.Equal(t, 10, cfg.RequestTimeout)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
}

func TestTimeoutIsCapped(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{name: "в пределах", seconds: 3, want: 3 * time.Second},
		{name: "слишком большой", seconds: 60, want: MaxRequestTimeout},
		{name: "нулевой", seconds: 0, want: MaxRequestTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{RequestTimeout: tt.seconds}
			assert.Equal(t, tt.want, cfg.Timeout())
		})
	}
}
