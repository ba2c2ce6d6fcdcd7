// ABOUTME: Configuration loader for the dashboard server
// ABOUTME: Loads settings from environment variables (and an optional .env) with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAdminRoleID is the role allowed into the settings screens.
const DefaultAdminRoleID = "66f4ef543336e7123f662bd1"

// Session store backends
const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

type Config struct {
	// Server
	Port         string
	CookieSecure bool // Set Secure flag on session cookies (default: true)

	// Remote API
	APIBaseURL  string        // absolute base every API path is joined onto
	FileBaseURL string        // origin uploaded assets are served from
	APITimeout  time.Duration // zero leaves the transport default
	APIAllProxy string        // ssh+socks5://user@host:port?private-key=/path

	// Access control
	AdminRoleID string

	// Sessions
	SessionTTL    time.Duration
	SessionStore  string // memory or sqlite
	SessionDBPath string

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitLogin   int  // Login attempts per minute per client IP (default: 5)
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		CookieSecure: getEnvBool("COOKIE_SECURE", true),

		APIBaseURL:  strings.TrimRight(ensureScheme(getEnv("API_BASE_URL", "http://localhost:5000/api")), "/"),
		FileBaseURL: strings.TrimRight(ensureScheme(os.Getenv("FILE_BASE_URL")), "/"),
		APITimeout:  time.Duration(getEnvInt("API_TIMEOUT", 0)) * time.Second,
		APIAllProxy: os.Getenv("API_ALL_PROXY"),

		AdminRoleID: getEnv("ADMIN_ROLE_ID", DefaultAdminRoleID),

		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL", 86400)) * time.Second,
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		SessionDBPath: getEnv("SESSION_DB_PATH", "eon-dashboard.db"),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitLogin:   getEnvInt("RATE_LIMIT_LOGIN", 5),
	}

	base, err := url.Parse(cfg.APIBaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", cfg.APIBaseURL)
	}
	if cfg.FileBaseURL == "" {
		cfg.FileBaseURL = base.Scheme + "://" + base.Host
	}

	if cfg.APITimeout < 0 {
		return nil, fmt.Errorf("API_TIMEOUT must not be negative, got %s", cfg.APITimeout)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	switch cfg.SessionStore {
	case SessionStoreMemory, SessionStoreSQLite:
	default:
		return nil, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreSQLite, cfg.SessionStore)
	}
	if cfg.APIAllProxy != "" && !strings.HasPrefix(cfg.APIAllProxy, "ssh+socks5://") {
		return nil, fmt.Errorf("API_ALL_PROXY must use the ssh+socks5:// scheme")
	}

	if cfg.RateLimitLogin < 1 || cfg.RateLimitLogin > 10000 {
		return nil, fmt.Errorf("RATE_LIMIT_LOGIN must be between 1 and 10000, got %d", cfg.RateLimitLogin)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
