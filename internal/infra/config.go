package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	JWTSecret          string
	StoragePath        string
	StorageBaseURL     string
	GeoIPDBPath        string
	CORSAllowedOrigins []string

	AIGatewayAPIKey  string
	AIGatewayBaseURL string
	AIImageModel     string
	AITextModel      string
	MeshyAPIKey      string
	MeshyBaseURL     string

	VariationCount        int
	CreditsPerBatch       int
	ModelPollInitialDelay time.Duration
	ModelPollInterval     time.Duration
	ModelPollMaxAttempts  int
	ModelCacheSize        int
	PriceMarkup           float64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvCSV("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		AIGatewayAPIKey:  os.Getenv("AI_GATEWAY_API_KEY"),
		AIGatewayBaseURL: getEnv("AI_GATEWAY_BASE_URL", "https://ai.gateway.lovable.dev/v1"),
		AIImageModel:     getEnv("AI_IMAGE_MODEL", "google/gemini-2.5-flash-image-preview"),
		AITextModel:      getEnv("AI_TEXT_MODEL", "google/gemini-2.5-flash"),
		MeshyAPIKey:      os.Getenv("MESHY_API_KEY"),
		MeshyBaseURL:     getEnv("MESHY_BASE_URL", "https://api.meshy.ai"),

		VariationCount:        getEnvInt("VARIATION_COUNT", 3),
		CreditsPerBatch:       getEnvInt("CREDITS_PER_BATCH", 1),
		ModelPollInitialDelay: time.Second * time.Duration(getEnvInt("MODEL_POLL_INITIAL_DELAY_SECONDS", 5)),
		ModelPollInterval:     time.Second * time.Duration(getEnvInt("MODEL_POLL_INTERVAL_SECONDS", 10)),
		ModelPollMaxAttempts:  getEnvInt("MODEL_POLL_MAX_ATTEMPTS", 60),
		ModelCacheSize:        getEnvInt("MODEL_CACHE_SIZE", 256),
		PriceMarkup:           getEnvFloat("PRICE_MARKUP", 1.0),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.VariationCount <= 0 {
		return nil, fmt.Errorf("VARIATION_COUNT must be positive")
	}

	return cfg, nil
}

// UsesSQLite reports whether DATABASE_URL points at a local SQLite file.
func (c *Config) UsesSQLite() bool {
	return strings.HasPrefix(c.DatabaseURL, "sqlite:") || strings.HasPrefix(c.DatabaseURL, "file:")
}

// SQLitePath strips the sqlite: scheme from DATABASE_URL.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite:")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvCSV(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
