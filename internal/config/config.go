package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// MaxRequestTimeout bounds every call to the remote history source
const MaxRequestTimeout = 10 * time.Second

// Config holds all application configuration
type Config struct {
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	Variant        string  `env:"VARIANT" envDefault:"dlt"`
	VariantsFile   string  `env:"VARIANTS_FILE"`
	DataDir        string  `env:"DATA_DIR" envDefault:"data"`
	ModelDir       string  `env:"MODEL_DIR" envDefault:"model"`
	Engine         string  `env:"ENGINE" envDefault:"exec"` // exec | lite
	EngineDir      string  `env:"ENGINE_DIR" envDefault:"."`
	PythonBin      string  `env:"PYTHON_BIN" envDefault:"python3"`
	TrainScript    string  `env:"TRAIN_SCRIPT" envDefault:"run_train_model.py"`
	PredictScript  string  `env:"PREDICT_SCRIPT" envDefault:"run_predict.py"`
	TrainTestSplit float64 `env:"TRAIN_TEST_SPLIT" envDefault:"0.8"`
	HistoryBaseURL string  `env:"HISTORY_BASE_URL" envDefault:"https://datachart.500.com"`
	RequestTimeout int     `env:"REQUEST_TIMEOUT" envDefault:"10"` // seconds
	RequestsPerSec int     `env:"REQUESTS_PER_SEC" envDefault:"2"`

	DB DBConfig

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// DBConfig holds the optional Postgres draw archive settings
type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	DBName   string `env:"DB_NAME"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// Enabled reports whether the archive is configured
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// Timeout returns the remote request timeout, never above MaxRequestTimeout
func (c *Config) Timeout() time.Duration {
	timeout := time.Duration(c.RequestTimeout) * time.Second
	if timeout <= 0 || timeout > MaxRequestTimeout {
		return MaxRequestTimeout
	}
	return timeout
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.Variant = getEnvWithDefault("VARIANT", "dlt")
	cfg.VariantsFile = os.Getenv("VARIANTS_FILE")
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "data")
	cfg.ModelDir = getEnvWithDefault("MODEL_DIR", "model")
	cfg.Engine = getEnvWithDefault("ENGINE", "exec")
	cfg.EngineDir = getEnvWithDefault("ENGINE_DIR", ".")
	cfg.PythonBin = getEnvWithDefault("PYTHON_BIN", "python3")
	cfg.TrainScript = getEnvWithDefault("TRAIN_SCRIPT", "run_train_model.py")
	cfg.PredictScript = getEnvWithDefault("PREDICT_SCRIPT", "run_predict.py")
	cfg.TrainTestSplit = getEnvFloatWithDefault("TRAIN_TEST_SPLIT", 0.8)
	cfg.HistoryBaseURL = getEnvWithDefault("HISTORY_BASE_URL", "https://datachart.500.com")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 10)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 2)

	cfg.DB = DBConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
