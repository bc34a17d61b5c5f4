package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
	"github.com/mitchk23/disaster-intel-tool/internal/observability"
)

// Fetcher downloads raw feed payloads. A TTL cache keyed by URL keeps
// back-to-back snapshot requests from hammering the upstream feeds while
// still expiring entries, so a long-running service sees fresh data.
type Fetcher struct {
	registry  Registry
	client    *http.Client
	cache     *gocache.Cache
	userAgent string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFetcher creates a feed fetcher.
func NewFetcher(registry Registry, timeout, cacheTTL time.Duration, userAgent string, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		registry:  registry,
		client:    &http.Client{Timeout: timeout},
		cache:     gocache.New(cacheTTL, 2*cacheTTL),
		userAgent: userAgent,
		logger:    logger,
		metrics:   metrics,
	}
}

// Payload is one source's raw download, or the error that prevented it.
type Payload struct {
	Source domain.Source
	Body   []byte
	Err    error
}

// FetchAll downloads every enabled source concurrently. It never fails as a
// whole; a source that cannot be fetched carries its error in the returned
// payload so the caller can degrade to the sources that did respond.
func (f *Fetcher) FetchAll(ctx context.Context, windowHours float64) []Payload {
	var enabled []domain.Source
	for _, src := range domain.Sources() {
		if f.registry.Enabled(src) {
			enabled = append(enabled, src)
		} else {
			f.logger.Info("source disabled, skipping", "source", src)
		}
	}

	payloads := make([]Payload, len(enabled))
	var wg sync.WaitGroup
	for i, src := range enabled {
		i, src := i, src
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := f.Fetch(ctx, src, windowHours)
			payloads[i] = Payload{Source: src, Body: body, Err: err}
		}()
	}
	wg.Wait()
	return payloads
}

// Fetch downloads one source's payload, consulting the cache first.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source, windowHours float64) ([]byte, error) {
	url := f.registry.URLFor(src, windowHours)
	if url == "" {
		return nil, fmt.Errorf("no endpoint for source %q", src)
	}

	if cached, ok := f.cache.Get(url); ok {
		f.metrics.PayloadCache.WithLabelValues(string(src), "hit").Inc()
		return cached.([]byte), nil
	}
	f.metrics.PayloadCache.WithLabelValues(string(src), "miss").Inc()

	start := time.Now()
	body, err := f.download(ctx, url)
	f.metrics.FeedFetchDuration.WithLabelValues(string(src)).Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.FeedFetches.WithLabelValues(string(src), "error").Inc()
		f.logger.Error("feed fetch failed", "source", src, "url", url, "error", err)
		return nil, err
	}
	f.metrics.FeedFetches.WithLabelValues(string(src), "success").Inc()
	f.logger.Debug("feed fetched", "source", src, "url", url, "bytes", len(body))

	f.cache.Set(url, body, gocache.DefaultExpiration)
	return body, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
