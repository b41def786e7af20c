package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Front ends the quiz client can drive.
const (
	FrontendWeb      = "web"
	FrontendTerminal = "terminal"
)

// Answer store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// ReloadMode selects what the reload control does.
type ReloadMode string

const (
	// ReloadReset clears the session's stored answers and fetches a new session in place.
	ReloadReset ReloadMode = "reset"
	// ReloadRelaunch only tells the user to destroy and relaunch the hosting environment.
	ReloadRelaunch ReloadMode = "relaunch"
)

// Config holds all application configuration.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	Frontend       string
	ServerPort     string
	GinMode        string
	LogLevel       string
	LogFormat      string
	StoreBackend   string
	StoreDir       string
	RedisURL       string
	StoreTTL       time.Duration
	ReloadMode     ReloadMode
	PassPercent    int
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted.
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		BaseURL:        strings.TrimRight(getEnv("QUIZ_BASE_URL", "http://localhost:8000"), "/"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		Frontend:       oneOf(getEnv("FRONTEND", FrontendWeb), FrontendWeb, FrontendWeb, FrontendTerminal),
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		StoreBackend:   oneOf(getEnv("STORE_BACKEND", StoreFile), StoreFile, StoreFile, StoreRedis, StoreMemory),
		StoreDir:       getEnv("STORE_DIR", "./.quiz-answers"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StoreTTL:       time.Duration(getEnvInt("STORE_TTL_HOURS", 720)) * time.Hour,
		ReloadMode:     ReloadMode(oneOf(getEnv("RELOAD_MODE", string(ReloadReset)), string(ReloadReset), string(ReloadReset), string(ReloadRelaunch))),
		PassPercent:    getEnvInt("PASS_PERCENT", 90),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// oneOf returns v lowercased when it is among allowed, otherwise fallback.
func oneOf(v, fallback string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
