package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
	"github.com/mitchk23/disaster-intel-tool/internal/observability"
)

// Client implements domain.Geocoder using the OpenStreetMap Nominatim API.
// Nominatim's usage policy caps anonymous clients at one request per second
// and requires an identifying User-Agent, so the client carries a rate
// limiter and the service's agent string.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration, ratePerSec float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode resolves a free-text place name to coordinates. A place that does
// not resolve is an InvalidQueryError, distinct from transport failures.
func (c *Client) Geocode(ctx context.Context, place string) (domain.Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Place{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"q":      {place},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Place{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.Place{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Place{}, fmt.Errorf("decode response: %w", err)
	}

	if len(results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		c.logger.Info("place did not resolve", "place", place)
		return domain.Place{}, &domain.InvalidQueryError{Reason: fmt.Sprintf("place %q did not resolve", place)}
	}

	r := results[0]
	lat, latErr := strconv.ParseFloat(r.Lat, 64)
	lon, lonErr := strconv.ParseFloat(r.Lon, 64)
	if latErr != nil || lonErr != nil || !domain.ValidCoordinates(lat, lon) {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Place{}, fmt.Errorf("nominatim returned unusable coordinates (%q, %q)", r.Lat, r.Lon)
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.Place{
		Point:       domain.Point{Lat: lat, Lon: lon},
		DisplayName: r.DisplayName,
	}, nil
}

// Nominatim API response types. Coordinates arrive as strings.

type result struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
