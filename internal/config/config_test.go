package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.SourcesFile)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 24.0, cfg.WindowHours)
	assert.Contains(t, cfg.UserAgent, "disaster-intel-tool")
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.NominatimBaseURL)
	assert.Equal(t, 10*time.Second, cfg.NominatimTimeout)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)
	assert.Equal(t, 1.0, cfg.GeocodeRatePerSec)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "aoi-events", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SOURCES_FILE", "/etc/disaster-intel/sources.yaml")
	t.Setenv("FETCH_TIMEOUT", "1m")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("WINDOW_HOURS", "6")
	t.Setenv("USER_AGENT", "custom-agent/2.0")
	t.Setenv("NOMINATIM_BASE_URL", "http://nominatim.internal:8080")
	t.Setenv("NOMINATIM_TIMEOUT", "3s")
	t.Setenv("NOMINATIM_RATE_LIMIT", "0.5")
	t.Setenv("GEOCODE_CACHE_SIZE", "250")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "hazard-events")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/etc/disaster-intel/sources.yaml", cfg.SourcesFile)
	assert.Equal(t, time.Minute, cfg.FetchTimeout)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 6.0, cfg.WindowHours)
	assert.Equal(t, "custom-agent/2.0", cfg.UserAgent)
	assert.Equal(t, "http://nominatim.internal:8080", cfg.NominatimBaseURL)
	assert.Equal(t, 3*time.Second, cfg.NominatimTimeout)
	assert.Equal(t, 0.5, cfg.GeocodeRatePerSec)
	assert.Equal(t, 250, cfg.GeocodeCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hazard-events", cfg.KafkaTopic)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "-5s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_InvalidWindowHours(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"zero", "0"},
		{"negative", "-3"},
		{"garbage", "a-day-or-so"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WINDOW_HOURS", tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "WINDOW_HOURS")
		})
	}
}

func TestLoad_InvalidGeocodeRate(t *testing.T) {
	t.Setenv("NOMINATIM_RATE_LIMIT", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOMINATIM_RATE_LIMIT")
}

func TestLoad_KafkaBrokersImplyEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_BrokerListTrimsWhitespace(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " broker1:9092 , ,broker2:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}
