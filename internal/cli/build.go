package cli

import (
	"fmt"
	"io"
	"log/slog"

	kafkaadapter "github.com/mitchk23/disaster-intel-tool/internal/adapter/kafka"
	"github.com/mitchk23/disaster-intel-tool/internal/adapter/nominatim"
	"github.com/mitchk23/disaster-intel-tool/internal/config"
	"github.com/mitchk23/disaster-intel-tool/internal/domain"
	"github.com/mitchk23/disaster-intel-tool/internal/feed"
	"github.com/mitchk23/disaster-intel-tool/internal/fetch"
	"github.com/mitchk23/disaster-intel-tool/internal/observability"
	"github.com/mitchk23/disaster-intel-tool/internal/pipeline"
)

// buildEngine assembles the snapshot engine and its collaborators from
// config. The returned closers must be closed on shutdown.
func buildEngine(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Engine, []io.Closer, error) {
	registry := fetch.Registry{}
	if cfg.SourcesFile != "" {
		loaded, err := fetch.LoadRegistry(cfg.SourcesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load sources: %w", err)
		}
		registry = loaded
		logger.Info("sources file loaded", "path", cfg.SourcesFile)
	}

	fetcher := fetch.NewFetcher(registry, cfg.FetchTimeout, cfg.CacheTTL, cfg.UserAgent, logger, metrics)

	var geocoder domain.Geocoder = nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg.NominatimBaseURL, cfg.UserAgent, cfg.NominatimTimeout, cfg.GeocodeRatePerSec, metrics, logger),
		cfg.GeocodeCacheSize,
		metrics,
	)

	var publisher pipeline.EventPublisher
	var closers []io.Closer
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		publisher = kp
		closers = append(closers, kp)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	engine := pipeline.New(fetcher, feed.All(), geocoder, publisher, logger, metrics, cfg.WindowHours)
	return engine, closers, nil
}

func closeAll(closers []io.Closer, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}
}
