package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings that are not part of the command line surface.
type Config struct {
	// OutputDir is destroyed and recreated on every run.
	OutputDir string // default: "media_kit"

	Browser BrowserConfig
	HTTP    HTTPConfig
	Log     LogConfig
}

// BrowserConfig controls the playwright browser.
type BrowserConfig struct {
	Headless bool // default: true

	// InstallBrowsers downloads the playwright driver and chromium before launch.
	InstallBrowsers bool // default: true

	// NavigationTimeout bounds each page.Goto.
	NavigationTimeout time.Duration // default: 30s
}

// HTTPConfig controls the plain HTTP fetches used for favicon and metadata.
type HTTPConfig struct {
	Timeout   time.Duration // default: 10s
	UserAgent string
}

type LogConfig struct {
	Level string // default: "info"
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from MEDIAKIT_* environment variables with defaults.
func Load() *Config {
	return &Config{
		OutputDir: envOr("MEDIAKIT_OUTPUT_DIR", "media_kit"),
		Browser: BrowserConfig{
			Headless:          envBoolOr("MEDIAKIT_HEADLESS", true),
			InstallBrowsers:   envBoolOr("MEDIAKIT_INSTALL_BROWSERS", true),
			NavigationTimeout: envDurationOr("MEDIAKIT_NAV_TIMEOUT", 30*time.Second),
		},
		HTTP: HTTPConfig{
			Timeout:   envDurationOr("MEDIAKIT_HTTP_TIMEOUT", 10*time.Second),
			UserAgent: envOr("MEDIAKIT_USER_AGENT", defaultUserAgent),
		},
		Log: LogConfig{
			Level: envOr("MEDIAKIT_LOG_LEVEL", "info"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
