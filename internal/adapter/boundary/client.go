// Package boundary is the HTTP client for the area-of-interest boundary
// service, which resolves named regions (states, counties, watersheds)
// to polygon feature collections in geographic coordinates (EPSG:4326).
package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/observability"
)

// ErrUnknownRegion is returned when the boundary service does not
// recognize one of the requested region names.
var ErrUnknownRegion = errors.New("unknown region name")

// Client fetches AOI polygons from the boundary service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a boundary service client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve fetches a single feature collection covering the union of the
// named regions. Every feature shares EPSG:4326. An unrecognized name
// yields ErrUnknownRegion; any other failure is propagated as-is.
func (c *Client) Resolve(ctx context.Context, names []string) (*geojson.FeatureCollection, error) {
	if len(names) == 0 {
		return nil, errors.New("resolve: no region names given")
	}

	params := url.Values{"names": {strings.Join(names, ",")}}
	u := c.baseURL + "/regions?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.metrics.BoundaryRequests.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boundary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("boundary service error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read boundary response: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundary response: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, strings.Join(names, ","))
	}

	c.logger.Debug("resolved regions", "names", names, "features", len(fc.Features))
	return fc, nil
}
