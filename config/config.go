package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Fetch    FetchConfig
	Screener ScreenerConfig
	Cache    CacheConfig
	Log      LogConfig
}

// FetchConfig controls the HTTP engine and batch execution.
type FetchConfig struct {
	// BaseURL is the site root every page path is resolved against.
	BaseURL string // default: "https://finviz.com"

	// InsecureSkipVerify disables TLS certificate verification.
	// Only for deployments fronted by an untrusted chain.
	InsecureSkipVerify bool // default: false

	// Timeout is the per-request deadline.
	Timeout time.Duration // default: 30s

	UserAgent string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int // default: 3

	// RetryInitialInterval is the first backoff interval.
	RetryInitialInterval time.Duration // default: 500ms

	// MaxConcurrency caps in-flight tasks per batch. 0 launches all at once.
	MaxConcurrency int // default: 0
}

// ScreenerConfig controls screener pagination.
type ScreenerConfig struct {
	// PageSize is the number of rows the site renders per screener page.
	PageSize int // default: 20

	// AllowPartial keeps the rows of pages that fetched successfully when
	// others fail, instead of failing the whole search.
	AllowPartial bool // default: false
}

// CacheConfig controls the per-ticker page cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached ticker pages.
	MaxEntries int // default: 256

	// TTL expires cached pages. 0 keeps them for the process lifetime.
	TTL time.Duration // default: 0
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Handler builds a slog handler writing to w at the configured level and
// format.
func (c LogConfig) Handler(w io.Writer) slog.Handler {
	var level slog.Level
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: ignoring unreadable .env", "error", err)
	}

	return &Config{
		Fetch: FetchConfig{
			BaseURL:              strings.TrimRight(envOr("FINSCRAPE_BASE_URL", "https://finviz.com"), "/"),
			InsecureSkipVerify:   envBoolOr("FINSCRAPE_INSECURE_SKIP_VERIFY", false),
			Timeout:              envDurationOr("FINSCRAPE_TIMEOUT", 30*time.Second),
			UserAgent:            envOr("FINSCRAPE_USER_AGENT", DefaultUserAgent),
			MaxRetries:           envIntOr("FINSCRAPE_MAX_RETRIES", 3),
			RetryInitialInterval: envDurationOr("FINSCRAPE_RETRY_INTERVAL", 500*time.Millisecond),
			MaxConcurrency:       envIntOr("FINSCRAPE_MAX_CONCURRENCY", 0),
		},
		Screener: ScreenerConfig{
			PageSize:     envIntOr("FINSCRAPE_PAGE_SIZE", 20),
			AllowPartial: envBoolOr("FINSCRAPE_ALLOW_PARTIAL", false),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("FINSCRAPE_CACHE_MAX_ENTRIES", 256),
			TTL:        envDurationOr("FINSCRAPE_CACHE_TTL", 0),
		},
		Log: LogConfig{
			Level:  envOr("FINSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("FINSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// DefaultUserAgent is sent when FINSCRAPE_USER_AGENT is unset.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
