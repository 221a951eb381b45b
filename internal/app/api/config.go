package api

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
)

// DefaultCatalogBaseURL is the public Fetch dogs API.
const DefaultCatalogBaseURL = "https://frontend-take-home-service.fetch.com"

// Config carries environment-driven settings for the API process.
type Config struct {
	Port                       string
	CatalogBaseURL             string
	CatalogTimeout             time.Duration
	CatalogRateLimitRPS        float64
	PostgresDSN                string
	RedisURL                   string
	BreedsCacheTTL             time.Duration
	SessionTTL                 time.Duration
	TemporalAddress            string
	TemporalNamespace          string
	TemporalDisabled           bool
	SessionPurgeIntervalMinute int
	CORSAllowedOrigins         []string
	CookieSecure               bool
}

// LoadConfig reads a .env file when present, then environment variables, applies defaults,
// and validates basic constraints.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	cfg := Config{
		Port:               envDefault("PORT", "8080"),
		CatalogBaseURL:     strings.TrimRight(envDefault("CATALOG_BASE_URL", DefaultCatalogBaseURL), "/"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		CORSAllowedOrigins: splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		CookieSecure:       isTruthy(os.Getenv("COOKIE_SECURE")),
	}
	if u, err := url.Parse(cfg.CatalogBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("CATALOG_BASE_URL must be an absolute URL")
	}

	var err error
	if cfg.CatalogTimeout, err = envDuration("CATALOG_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BreedsCacheTTL, err = envDuration("BREEDS_CACHE_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	cfg.CatalogRateLimitRPS = 20
	if raw := strings.TrimSpace(os.Getenv("CATALOG_RATE_LIMIT_RPS")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("CATALOG_RATE_LIMIT_RPS must be a non-negative number")
		}
		cfg.CatalogRateLimitRPS = rps
	}
	hours, err := envPositiveInt("SESSION_TTL_HOURS", 24)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL = time.Duration(hours) * time.Hour
	if cfg.SessionPurgeIntervalMinute, err = envPositiveInt("SESSION_PURGE_INTERVAL_MINUTES", 0); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SessionPurgeInterval is the configured purge cadence, or fallback when unset.
func (c Config) SessionPurgeInterval(fallback time.Duration) time.Duration {
	if c.SessionPurgeIntervalMinute <= 0 {
		return fallback
	}
	return time.Duration(c.SessionPurgeIntervalMinute) * time.Minute
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 10s or 1h", key)
	}
	return d, nil
}

func envPositiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
