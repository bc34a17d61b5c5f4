package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed fetching.
	SourcesFile  string // optional YAML file overriding feed endpoints
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	WindowHours  float64
	UserAgent    string

	// Nominatim geocoding.
	NominatimBaseURL  string
	NominatimTimeout  time.Duration
	GeocodeCacheSize  int
	GeocodeRatePerSec float64

	// Optional Kafka publishing of in-AOI events.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parseDuration("NOMINATIM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	windowHours, err := parseFloat("WINDOW_HOURS", "24")
	if err != nil {
		return nil, err
	}
	if windowHours <= 0 {
		return nil, errors.New("WINDOW_HOURS must be positive")
	}

	geocodeRate, err := parseFloat("NOMINATIM_RATE_LIMIT", "1")
	if err != nil {
		return nil, err
	}
	if geocodeRate <= 0 {
		return nil, errors.New("NOMINATIM_RATE_LIMIT must be positive")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SourcesFile:  os.Getenv("SOURCES_FILE"),
		FetchTimeout: fetchTimeout,
		CacheTTL:     cacheTTL,
		WindowHours:  windowHours,
		UserAgent:    envOrDefault("USER_AGENT", "disaster-intel-tool/1.0 (+https://github.com/mitchk23/disaster-intel-tool)"),

		NominatimBaseURL:  envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimTimeout:  nominatimTimeout,
		GeocodeCacheSize:  parseGeocodeCacheSize(),
		GeocodeRatePerSec: geocodeRate,

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "aoi-events"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, fallback string) (float64, error) {
	f, err := strconv.ParseFloat(envOrDefault(key, fallback), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
