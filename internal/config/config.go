// Package config provides configuration for the marketplace service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int `toml:"http_port"`

	// Database
	DatabaseURL string `toml:"database_url"`

	// LLM (OpenAI-compatible endpoint used by the negotiation agent)
	LLMBaseURL string        `toml:"llm_base_url"`
	LLMAPIKey  string        `toml:"llm_api_key"`
	LLMModel   string        `toml:"llm_model"`
	LLMTimeout time.Duration `toml:"-"`

	// Vision (Gemini listing analysis)
	GeminiAPIKey string `toml:"gemini_api_key"`

	// Object storage for listing photos
	Storage StorageConfig `toml:"storage"`

	// Negotiation rules
	MaxRounds       int           `toml:"max_rounds"`
	OfferTTL        time.Duration `toml:"-"`
	PlanTTL         time.Duration `toml:"-"`
	PriceCeilingPct float64       `toml:"price_ceiling_pct"`
	PriceFloorPct   float64       `toml:"price_floor_pct"`
	LowballPct      float64       `toml:"lowball_pct"`

	// Logging
	LogLevel string `toml:"log_level"`
}

// StorageConfig configures the S3-compatible image bucket.
type StorageConfig struct {
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Endpoint string `toml:"endpoint"`
}

// Load loads configuration. Precedence: environment variables override the
// optional TOML file at MARKETPLACE_CONFIG (or ./marketplace.toml), which
// overrides built-in defaults. A .env file is honored if present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        8080,
		DatabaseURL:     "file:marketplace.db?cache=shared&mode=rwc",
		LLMBaseURL:      "https://api.openai.com",
		LLMModel:        "gpt-4o",
		MaxRounds:       10,
		PriceCeilingPct: 1.2,
		PriceFloorPct:   0.5,
		LowballPct:      0.7,
		LogLevel:        "info",
	}

	if path := firstExisting(os.Getenv("MARKETPLACE_CONFIG"), "marketplace.toml"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "config file %s ignored: %v\n", path, err)
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.Storage.Key = getEnv("STORAGE_KEY", cfg.Storage.Key)
	cfg.Storage.Secret = getEnv("STORAGE_SECRET", cfg.Storage.Secret)
	cfg.Storage.Region = getEnv("STORAGE_REGION", cfg.Storage.Region)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.Endpoint = getEnv("STORAGE_ENDPOINT", cfg.Storage.Endpoint)
	cfg.MaxRounds = getEnvInt("MAX_ROUNDS", cfg.MaxRounds)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.LLMTimeout = time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond
	cfg.OfferTTL = time.Duration(getEnvInt("OFFER_TTL_HOURS", 72)) * time.Hour
	cfg.PlanTTL = time.Duration(getEnvInt("PLAN_TTL_MINUTES", 10)) * time.Minute

	return cfg
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
