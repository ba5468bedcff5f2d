package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendSupabase = "supabase"
)

// Limits applied by the chat pipeline.
const (
	DefaultHistoryWindow      = 10
	DefaultHistoryFetchLimit  = 20
	DefaultMessageCharBound   = 1000
	DefaultOutboundMessageCap = 25
	DefaultSummaryTurns       = 3
	DefaultMaxUploadMB        = 10
	MaxRequestMessageLength   = 10000
)

var ErrMissingStoreConfig = errors.New("store backend configuration is incomplete")

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort    string
	Environment string
	LogLevel    string
	LogFile     string
	FrontendURL []string

	StoreBackend string
	DatabaseURL  string
	SupabaseURL  string
	SupabaseKey  string

	GroqAPIKey        string
	GroqAPIURL        string
	GroqModel         string
	GroqTemperature   float64
	GroqMaxTokens     int
	CompletionTimeout time.Duration

	JWTSecret       string
	TokenExpiration time.Duration

	HistoryWindow       int
	HistoryFetchLimit   int
	MessageCharBound    int
	OutboundMessageCap  int
	SummaryTurns        int
	RequireDurableWrite bool
	SerializeSessions   bool
	MaxUploadBytes      int64

	// Warnings collects fallbacks taken while parsing; logged once the logger exists.
	Warnings []string
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// AuthEnabled reports whether account routes can be served. Only the postgres
// backend carries the users table.
func (c *Config) AuthEnabled() bool {
	return c.StoreBackend == StoreBackendPostgres
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Don't fail if .env is not present, might be in production
	if err := godotenv.Load(); err != nil {
		cfg.warn("could not load .env file, using environment variables only")
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", "8080")
	cfg.Environment = getEnv("ENVIRONMENT", "development")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFile = getEnv("LOG_FILE", "")
	cfg.FrontendURL = splitList(getEnv("FRONTEND_URL", "http://localhost:3000"))

	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres))
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.SupabaseURL = getEnv("SUPABASE_URL", "")
	cfg.SupabaseKey = getEnv("SUPABASE_KEY", "")

	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: DATABASE_URL is not set", ErrMissingStoreConfig)
		}
	case StoreBackendSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("%w: SUPABASE_URL and SUPABASE_KEY are required", ErrMissingStoreConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrMissingStoreConfig, cfg.StoreBackend)
	}

	cfg.GroqAPIKey = getEnv("GROQ_API_KEY", "")
	cfg.GroqAPIURL = getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions")
	cfg.GroqModel = getEnv("GROQ_MODEL", "llama-3.3-70b-versatile")
	cfg.GroqTemperature = cfg.getFloat("GROQ_TEMPERATURE", 0.7)
	cfg.GroqMaxTokens = cfg.getInt("GROQ_MAX_TOKENS", 250, 1)
	cfg.CompletionTimeout = time.Duration(cfg.getInt("COMPLETION_TIMEOUT_SECONDS", 30, 1)) * time.Second
	if cfg.GroqAPIKey == "" {
		cfg.warn("GROQ_API_KEY is not set, chat requests will be rejected")
	}

	cfg.JWTSecret = getEnv("JWT_SECRET", "default-super-secret-key") // CHANGE THIS IN PRODUCTION!
	cfg.TokenExpiration = time.Hour * time.Duration(cfg.getInt("JWT_EXPIRATION_HOURS", 24, 1))

	cfg.HistoryWindow = cfg.getInt("HISTORY_WINDOW", DefaultHistoryWindow, 0)
	cfg.HistoryFetchLimit = cfg.getInt("HISTORY_FETCH_LIMIT", DefaultHistoryFetchLimit, 0)
	cfg.MessageCharBound = cfg.getInt("MESSAGE_CHAR_BOUND", DefaultMessageCharBound, 1)
	cfg.OutboundMessageCap = cfg.getInt("OUTBOUND_MESSAGE_CAP", DefaultOutboundMessageCap, 0)
	cfg.SummaryTurns = cfg.getInt("SUMMARY_TURNS", DefaultSummaryTurns, 0)
	cfg.RequireDurableWrite = cfg.getBool("REQUIRE_DURABLE_WRITE", false)
	cfg.SerializeSessions = cfg.getBool("SERIALIZE_SESSIONS", true)
	cfg.MaxUploadBytes = int64(cfg.getInt("MAX_UPLOAD_MB", DefaultMaxUploadMB, 1)) << 20

	if cfg.HistoryFetchLimit < cfg.HistoryWindow {
		cfg.warn(fmt.Sprintf("HISTORY_FETCH_LIMIT %d is below HISTORY_WINDOW %d, raising it", cfg.HistoryFetchLimit, cfg.HistoryWindow))
		cfg.HistoryFetchLimit = cfg.HistoryWindow
	}

	return cfg, nil
}

func (c *Config) warn(msg string) {
	c.Warnings = append(c.Warnings, msg)
}

func (c *Config) getInt(key string, fallback, min int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min {
		c.warn(fmt.Sprintf("invalid %s %q, using default %d", key, raw, fallback))
		return fallback
	}
	return value
}

func (c *Config) getFloat(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		c.warn(fmt.Sprintf("invalid %s %q, using default %g", key, raw, fallback))
		return fallback
	}
	return value
}

func (c *Config) getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		c.warn(fmt.Sprintf("invalid %s %q, using default %t", key, raw, fallback))
		return fallback
	}
	return value
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
