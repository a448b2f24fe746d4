// Package pipeline orchestrates the five-stage climate-normals
// analysis: AOI resolution, normals retrieval, raster reduction, zonal
// and global aggregation, and point extraction, followed by optional
// result publication and preview rendering.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/geo"
	"github.com/couchcryptid/climate-normals-etl/internal/observability"
)

// AOIResolver resolves region names to a polygon feature collection in
// geographic coordinates.
type AOIResolver interface {
	Resolve(ctx context.Context, names []string) (*geojson.FeatureCollection, error)
}

// NormalsRetriever fetches one monthly raster stack per variable,
// clipped to the AOI.
type NormalsRetriever interface {
	Fetch(ctx context.Context, aoi *geojson.FeatureCollection, variables []domain.Variable) (map[domain.Variable]*domain.Stack, error)
}

// PointSource loads the observation-site point dataset.
type PointSource interface {
	Load() (geo.PointDataset, error)
}

// Publisher delivers a completed result to downstream consumers.
type Publisher interface {
	PublishResult(ctx context.Context, result *domain.AnalysisResult) error
}

// Renderer writes preview images of analysis rasters and zonal results.
type Renderer interface {
	WriteLayerPNG(l *domain.Layer) (string, error)
	WriteChoroplethPNG(grid domain.Grid, fc *geojson.FeatureCollection, column string) (string, error)
}

// Analysis runs the climate-normals workflow once and holds its result.
type Analysis struct {
	resolver  AOIResolver
	retriever NormalsRetriever
	points    PointSource
	publisher Publisher // nil disables publication
	renderer  Renderer  // nil disables previews
	logger    *slog.Logger
	metrics   *observability.Metrics

	regions   []string
	variables []domain.Variable

	mu     sync.Mutex
	result *domain.AnalysisResult
	ready  atomic.Bool
}

// New creates an Analysis with the given collaborators. Pass a nil
// publisher or renderer to disable that step.
func New(resolver AOIResolver, retriever NormalsRetriever, points PointSource,
	publisher Publisher, renderer Renderer,
	logger *slog.Logger, metrics *observability.Metrics,
	regions []string, variables []domain.Variable) *Analysis {
	return &Analysis{
		resolver:  resolver,
		retriever: retriever,
		points:    points,
		publisher: publisher,
		renderer:  renderer,
		logger:    logger,
		metrics:   metrics,
		regions:   regions,
		variables: variables,
	}
}

// CheckReadiness returns nil once a run has completed, or an error
// describing why the service is not yet ready.
func (a *Analysis) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("analysis has not completed yet")
	}
	return nil
}

// Result returns the last completed analysis result, or nil.
func (a *Analysis) Result() *domain.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Run executes the pipeline once. Any stage error halts the run and is
// returned as-is; there is no retry or partial-failure recovery.
func (a *Analysis) Run(ctx context.Context) error {
	a.logger.Info("analysis started", "regions", a.regions, "variables", a.variables)
	a.metrics.PipelineRunning.Set(1)
	defer a.metrics.PipelineRunning.Set(0)

	result, err := a.run(ctx)
	if err != nil {
		a.metrics.AnalysisRuns.WithLabelValues("error").Inc()
		return err
	}

	a.mu.Lock()
	a.result = result
	a.mu.Unlock()
	a.ready.Store(true)
	a.metrics.AnalysisRuns.WithLabelValues("success").Inc()
	a.logger.Info("analysis complete",
		"zones", len(result.Zonal.Features),
		"points", len(result.Points.Features),
	)
	return nil
}

// timeStage runs fn and records its duration under the stage label.
func (a *Analysis) timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	a.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}
