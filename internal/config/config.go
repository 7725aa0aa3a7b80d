package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOSRM = "osrm"
	ProviderORS  = "ors"

	CacheNone     = "none"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

// Config holds the service settings read from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	Provider string

	OSRMBaseURL   string
	OSRMProfile   string
	OSRMTimeout   time.Duration
	OSRMRateLimit float64

	ORSAPIKey  string
	ORSBaseURL string
	ORSProfile string

	CacheBackend string
	DatabaseURL  string
	RedisURL     string
	CacheTTL     time.Duration

	MaxConcurrentSolves int

	HTTPReadHeaderTimeout time.Duration
	HTTPReadTimeout       time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment. Call godotenv.Load
// first to pick up a local .env file.
func Load() (*Config, error) {
	l := loader{}

	cfg := &Config{
		Port:      Get("PORT", "8080"),
		LogLevel:  Get("LOG_LEVEL", "info"),
		LogFormat: Get("LOG_FORMAT", "json"),

		Provider: strings.ToLower(Get("TRAVELTIME_PROVIDER", ProviderOSRM)),

		OSRMBaseURL:   Get("OSRM_BASE_URL", "http://router.project-osrm.org"),
		OSRMProfile:   Get("OSRM_PROFILE", "driving"),
		OSRMTimeout:   l.asDuration("OSRM_TIMEOUT", 30*time.Second),
		OSRMRateLimit: l.asFloat("OSRM_RATE_LIMIT", 5),

		ORSAPIKey:  Get("ORS_API_KEY", ""),
		ORSBaseURL: Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSProfile: Get("ORS_PROFILE", "driving-car"),

		CacheBackend: strings.ToLower(Get("CACHE_BACKEND", CacheNone)),
		DatabaseURL:  Get("DATABASE_URL", ""),
		RedisURL:     Get("REDIS_URL", ""),
		CacheTTL:     l.asDuration("CACHE_TTL", 6*time.Hour),

		MaxConcurrentSolves: l.asInt("MAX_CONCURRENT_SOLVES", 2),

		HTTPReadHeaderTimeout: l.asDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		HTTPReadTimeout:       l.asDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:      l.asDuration("HTTP_WRITE_TIMEOUT", 180*time.Second),
		HTTPIdleTimeout:       l.asDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}

	if l.err != nil {
		return nil, l.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderOSRM:
	case ProviderORS:
		if c.ORSAPIKey == "" {
			return fmt.Errorf("config: ORS_API_KEY is required when TRAVELTIME_PROVIDER=%s", ProviderORS)
		}
	default:
		return fmt.Errorf("config: unknown TRAVELTIME_PROVIDER %q", c.Provider)
	}

	switch c.CacheBackend {
	case CacheNone:
	case CachePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required when CACHE_BACKEND=%s", CachePostgres)
		}
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL is required when CACHE_BACKEND=%s", CacheRedis)
		}
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.OSRMTimeout <= 0 {
		return fmt.Errorf("config: OSRM_TIMEOUT must be positive")
	}
	if c.OSRMRateLimit < 0 {
		return fmt.Errorf("config: OSRM_RATE_LIMIT must not be negative")
	}
	if c.MaxConcurrentSolves < 1 {
		return fmt.Errorf("config: MAX_CONCURRENT_SOLVES must be at least 1")
	}
	return nil
}

// loader keeps the first parse error so Load can report it once.
type loader struct {
	err error
}

func (l *loader) asDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("config: %s: %w", key, err)
	}
	return d
}

func (l *loader) asFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("config: %s: %w", key, err)
	}
	return f
}

func (l *loader) asInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("config: %s: %w", key, err)
	}
	return n
}
