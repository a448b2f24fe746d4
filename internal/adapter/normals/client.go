// Package normals is the HTTP client for the climate-normals service,
// which serves monthly climate-normal grids in ESRI ASCII format,
// clipped to a requested bounding box.
package normals

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

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/geo"
	"github.com/couchcryptid/climate-normals-etl/internal/observability"
	"github.com/couchcryptid/climate-normals-etl/internal/raster"
)

// ErrUnknownVariable is returned when the normals service does not serve
// the requested variable.
var ErrUnknownVariable = errors.New("unknown climate variable")

// monthNames label the twelve layers of each variable's stack, in
// calendar order.
var monthNames = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// Client fetches climate-normal raster stacks from the normals service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	crs        domain.CRS
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a normals service client. crs is the coordinate
// system grids are requested and returned in; the ASC format itself
// carries no CRS metadata.
func NewClient(baseURL string, timeout time.Duration, crs domain.CRS, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		crs:        crs,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch retrieves one 12-layer monthly stack per variable, clipped to
// the AOI's bounding box. The AOI arrives in geographic coordinates; the
// bbox is transformed into the client's raster CRS before requesting.
// The first failed request aborts the whole fetch; there is no retry and
// no partial result. Grid congruence across the twelve months is
// enforced while stacking.
func (c *Client) Fetch(ctx context.Context, aoi *geojson.FeatureCollection, variables []domain.Variable) (map[domain.Variable]*domain.Stack, error) {
	bound, err := c.requestBound(aoi)
	if err != nil {
		return nil, err
	}

	out := make(map[domain.Variable]*domain.Stack, len(variables))
	for _, v := range variables {
		stack, err := c.fetchVariable(ctx, bound, v)
		if err != nil {
			return nil, err
		}
		out[v] = stack
	}
	return out, nil
}

// requestBound computes the AOI's bounding box in the raster CRS.
func (c *Client) requestBound(aoi *geojson.FeatureCollection) (orb.Bound, error) {
	if len(aoi.Features) == 0 {
		return orb.Bound{}, errors.New("fetch: empty area of interest")
	}
	b := aoi.Features[0].Geometry.Bound()
	for _, f := range aoi.Features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	if c.crs == domain.CRSWGS84 {
		return b, nil
	}

	minPt, err := geo.Transform(b.Min, domain.CRSWGS84, c.crs)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("transform aoi bbox: %w", err)
	}
	maxPt, err := geo.Transform(b.Max, domain.CRSWGS84, c.crs)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("transform aoi bbox: %w", err)
	}
	return orb.Bound{Min: minPt, Max: maxPt}, nil
}

func (c *Client) fetchVariable(ctx context.Context, aoi orb.Bound, v domain.Variable) (*domain.Stack, error) {
	stack := &domain.Stack{}
	for month := 1; month <= 12; month++ {
		layer, err := c.fetchMonth(ctx, aoi, v, month)
		if err != nil {
			c.metrics.FetchRequests.WithLabelValues(string(v), "error").Inc()
			return nil, err
		}
		c.metrics.FetchRequests.WithLabelValues(string(v), "success").Inc()
		if err := stack.Add(layer); err != nil {
			return nil, fmt.Errorf("stack %s month %d: %w", v, month, err)
		}
	}
	c.logger.Debug("fetched variable stack",
		"variable", v,
		"layers", stack.Len(),
		"cols", stack.Grid().Cols,
		"rows", stack.Grid().Rows,
	)
	return stack, nil
}

func (c *Client) fetchMonth(ctx context.Context, aoi orb.Bound, v domain.Variable, month int) (*domain.Layer, error) {
	params := url.Values{
		"bbox": {fmt.Sprintf("%g,%g,%g,%g", aoi.Min.X(), aoi.Min.Y(), aoi.Max.X(), aoi.Max.Y())},
		"crs":  {c.crs.String()},
	}
	u := fmt.Sprintf("%s/normals/%s/%02d.asc?%s", c.baseURL, url.PathEscape(string(v)), month, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("normals request %s/%02d: %w", v, month, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s: %s", ErrUnknownVariable, v, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("normals service error: status %d: %s", resp.StatusCode, body)
	}

	layer, err := raster.ReadASC(resp.Body, monthNames[month-1], c.crs)
	if err != nil {
		return nil, fmt.Errorf("parse %s/%02d grid: %w", v, month, err)
	}
	return layer, nil
}
