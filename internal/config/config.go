package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Progress server
	ServerURL     string
	ClientTimeout time.Duration
	JSONP         bool

	// Polling
	PollInterval time.Duration
	MaxFailures  int
	MaxBackoff   time.Duration

	// Search page
	QueryEndpoint   string
	FacetViewConfig string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
// Defaults mirror the progress page: one poll per second against a local
// server on port 5000.
func Load() Config {
	return Config{
		ServerURL:     getEnv("JOBWATCH_SERVER_URL", "http://localhost:5000"),
		ClientTimeout: getDuration("JOBWATCH_CLIENT_TIMEOUT", 0),
		JSONP:         getEnv("JOBWATCH_JSONP", "false") == "true",

		PollInterval: getDuration("JOBWATCH_POLL_INTERVAL", time.Second),
		MaxFailures:  getInt("JOBWATCH_MAX_FAILURES", 5),
		MaxBackoff:   getDuration("JOBWATCH_MAX_BACKOFF", 30*time.Second),

		QueryEndpoint:   getEnv("JOBWATCH_QUERY_ENDPOINT", "/query"),
		FacetViewConfig: getEnv("JOBWATCH_FACETVIEW_CONFIG", ""),

		LogFile:  getEnv("JOBWATCH_LOG_FILE", "/tmp/jobwatch.log"),
		LogLevel: parseLogLevel(getEnv("JOBWATCH_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration parses a Go duration, falling back on empty or invalid input.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return n
}

// ParseLogLevel maps a level name to a slog level. Unknown names map to INFO.
func ParseLogLevel(s string) slog.Level {
	return parseLogLevel(s)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
