// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the root configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Extraction    ExtractionConfig
	Cache         CacheConfig
	Import        ImportConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Stats         StatsConfig
}

type ServerConfig struct {
	Host               string   `validate:"required"`
	Port               int      `validate:"min=1,max=65535"`
	RateLimitPerSecond int      `validate:"min=0"`
	RateLimitBurst     int      `validate:"min=0"`
	AllowedOrigins     []string `validate:"min=1"`
}

type DatabaseConfig struct {
	Driver     string `validate:"oneof=postgres sqlite memory"`
	Host       string `validate:"required_if=Driver postgres"`
	Port       int    `validate:"min=0,max=65535"`
	User       string `validate:"required_if=Driver postgres"`
	Password   string
	Name       string `validate:"required_if=Driver postgres"`
	SSLMode    string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	SQLitePath string `validate:"required_if=Driver sqlite"`
	MaxConns   int32  `validate:"min=1"`
	MinConns   int32  `validate:"min=0,ltefield=MaxConns"`
}

// DSN builds a postgres connection URL
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"min=0"`
}

// AuthConfig enables login when both values are set
type AuthConfig struct {
	JWTSecret    string
	PasswordHash string
	TokenTTL     time.Duration `validate:"gt=0"`
}

// Enabled reports whether requests must carry a token
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" && a.PasswordHash != ""
}

type ExtractionConfig struct {
	Provider      string `validate:"oneof=gemini openai none"`
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string `validate:"omitempty,url"`
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string        `validate:"omitempty,url"`
	Delay         time.Duration `validate:"min=0"`
	Timeout       time.Duration `validate:"gt=0"`
	MaxAttempts   int           `validate:"min=1,max=10"`
	BaseBackoff   time.Duration `validate:"gt=0"`
	MaxBackoff    time.Duration `validate:"gtefield=BaseBackoff"`
}

// CacheConfig selects where raw extraction responses are memoised
type CacheConfig struct {
	Driver string        `validate:"oneof=memory redis none"`
	TTL    time.Duration `validate:"min=0"`
}

type ImportConfig struct {
	MaxParallel  int   `validate:"min=1,max=64"`
	MaxFileBytes int64 `validate:"min=1024"`
	MaxFiles     int   `validate:"min=1"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	LogLevel       string `validate:"oneof=debug info warn error"`
}

type ProfilingConfig struct {
	Enabled bool
	Port    int `validate:"min=1,max=65535"`
}

type StatsConfig struct {
	TaxRate float64 `validate:"min=0,max=1"`
}

// Load reads .env when present, then the environment, and validates the result
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getEnvInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
			AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "host_ledger"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "host-ledger.db"),
			MaxConns:   int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:   int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			PasswordHash: getEnv("HOST_PASSWORD_HASH", ""),
			TokenTTL:     getEnvDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Extraction: ExtractionConfig{
			Provider:      getEnv("EXTRACTION_PROVIDER", "gemini"),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", ""),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			Delay:         getEnvDuration("EXTRACTION_DELAY", 2*time.Second),
			Timeout:       getEnvDuration("EXTRACTION_TIMEOUT", 90*time.Second),
			MaxAttempts:   getEnvInt("EXTRACTION_MAX_ATTEMPTS", 3),
			BaseBackoff:   getEnvDuration("EXTRACTION_BASE_BACKOFF", time.Second),
			MaxBackoff:    getEnvDuration("EXTRACTION_MAX_BACKOFF", 8*time.Second),
		},
		Cache: CacheConfig{
			Driver: getEnv("CACHE_DRIVER", "memory"),
			TTL:    getEnvDuration("CACHE_TTL", 24*time.Hour),
		},
		Import: ImportConfig{
			MaxParallel:  getEnvInt("IMPORT_MAX_PARALLEL", 4),
			MaxFileBytes: int64(getEnvInt("IMPORT_MAX_FILE_BYTES", 20<<20)),
			MaxFiles:     getEnvInt("IMPORT_MAX_FILES", 50),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
			LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		Profiling: ProfilingConfig{
			Enabled: getEnvBool("PPROF_ENABLED", false),
			Port:    getEnvInt("PPROF_PORT", 6060),
		},
		Stats: StatsConfig{
			TaxRate: getEnvFloat("TAX_RATE", 0.21),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags on every section
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
