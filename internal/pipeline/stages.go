package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/geo"
	"github.com/couchcryptid/climate-normals-etl/internal/raster"
	"github.com/couchcryptid/climate-normals-etl/internal/zonal"
)

// run executes the stages in order and assembles the result.
func (a *Analysis) run(ctx context.Context) (*domain.AnalysisResult, error) {
	result := domain.NewAnalysisResult(a.regions, a.variables)

	// Stage 1: resolve the area of interest. Boundary data is always
	// geographic (EPSG:4326).
	var aoi *geojson.FeatureCollection
	err := a.timeStage("aoi", func() error {
		var err error
		aoi, err = a.resolver.Resolve(ctx, a.regions)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolve aoi: %w", err)
	}
	a.logger.Info("aoi resolved", "features", len(aoi.Features))

	// Stage 2: fetch monthly stacks and mask them to the AOI polygons.
	var stacks map[domain.Variable]*domain.Stack
	err = a.timeStage("fetch", func() error {
		var err error
		stacks, err = a.retriever.Fetch(ctx, aoi, a.variables)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch normals: %w", err)
	}

	grid := stacks[a.variables[0]].Grid()
	result.Grid = grid

	// Bring the AOI into the raster CRS once; masking, zonal
	// aggregation, and choropleth rendering all need it there.
	aoiRaster := aoi
	if grid.CRS != domain.CRSWGS84 {
		aoiRaster, err = geo.ReprojectCollection(aoi, domain.CRSWGS84, grid.CRS)
		if err != nil {
			return nil, fmt.Errorf("reproject aoi: %w", err)
		}
	}

	for _, v := range a.variables {
		masked, err := zonal.MaskStack(stacks[v], aoiRaster, grid.CRS)
		if err != nil {
			return nil, fmt.Errorf("mask %s stack: %w", v, err)
		}
		a.metrics.CellsMasked.Add(float64(masked))
	}

	// Stage 3: reduce each monthly stack to one named annual summary
	// layer, then stack the summaries as one multi-band raster.
	summary := &domain.Stack{}
	err = a.timeStage("reduce", func() error {
		for _, v := range a.variables {
			layer, err := raster.Reduce(stacks[v], v.Reduction())
			if err != nil {
				return fmt.Errorf("reduce %s: %w", v, err)
			}
			if err := summary.Add(layer.Rename(string(v))); err != nil {
				return fmt.Errorf("stack %s summary: %w", v, err)
			}
			a.metrics.CellsProcessed.Add(float64(stacks[v].Len() * grid.Cols * grid.Rows))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 4: global mean per summary layer, then zonal means appended
	// to the AOI polygons as one attribute column per variable.
	err = a.timeStage("aggregate", func() error {
		for _, l := range summary.Layers() {
			v := domain.Variable(l.Name)
			mean, valid := raster.GlobalMean(l)
			result.Global = append(result.Global, domain.GlobalStat{
				Variable:   v,
				Reduction:  v.Reduction(),
				Unit:       v.Unit(),
				Mean:       domain.MeanOrNull(mean),
				ValidCells: valid,
			})

			if err := zonal.Mean(l, aoiRaster, grid.CRS, l.Name); err != nil {
				return fmt.Errorf("zonal %s: %w", l.Name, err)
			}
		}
		a.metrics.ZonesComputed.Add(float64(len(aoiRaster.Features)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Zonal = zonalOutput(aoi, aoiRaster, summary)

	// Stage 5: load the point dataset, reproject it into the raster
	// CRS, and sample the whole summary stack once, appending one
	// column per variable.
	err = a.timeStage("extract", func() error {
		pts, err := a.points.Load()
		if err != nil {
			return err
		}
		projected, err := geo.ReprojectPoints(pts, grid.CRS)
		if err != nil {
			return err
		}
		if err := raster.ExtractAt(summary, projected); err != nil {
			return err
		}

		// Attributes were appended to the reprojected copy; carry them
		// back onto the original geographic coordinates for output.
		for i, f := range pts.FC.Features {
			if f.Properties == nil {
				f.Properties = geojson.Properties{}
			}
			for _, l := range summary.Layers() {
				f.Properties[l.Name] = projected.FC.Features[i].Properties[l.Name]
			}
		}
		result.Points = pts.FC
		a.metrics.PointsSampled.Add(float64(len(pts.FC.Features)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract points: %w", err)
	}

	if a.publisher != nil {
		err = a.timeStage("publish", func() error {
			return a.publisher.PublishResult(ctx, result)
		})
		if err != nil {
			return nil, fmt.Errorf("publish result: %w", err)
		}
	}

	if a.renderer != nil {
		err = a.timeStage("render", func() error {
			return a.renderPreviews(summary, aoiRaster)
		})
		if err != nil {
			return nil, fmt.Errorf("render previews: %w", err)
		}
	}

	return result, nil
}

// zonalOutput returns the AOI collection in geographic coordinates with
// the zonal attributes attached. Aggregation happens in the raster CRS;
// the output keeps the boundary service's original geometry.
func zonalOutput(aoi, aoiRaster *geojson.FeatureCollection, summary *domain.Stack) *geojson.FeatureCollection {
	if aoi == aoiRaster {
		return aoi
	}
	for i, f := range aoi.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		for _, l := range summary.Layers() {
			f.Properties[l.Name] = aoiRaster.Features[i].Properties[l.Name]
		}
	}
	return aoi
}

// renderPreviews writes one raster preview and one zonal choropleth per
// variable, in a stable order.
func (a *Analysis) renderPreviews(summary *domain.Stack, aoiRaster *geojson.FeatureCollection) error {
	layers := make([]*domain.Layer, len(summary.Layers()))
	copy(layers, summary.Layers())
	sort.Slice(layers, func(i, j int) bool { return layers[i].Name < layers[j].Name })

	for _, l := range layers {
		path, err := a.renderer.WriteLayerPNG(l)
		if err != nil {
			return err
		}
		a.logger.Debug("wrote raster preview", "path", path)

		path, err = a.renderer.WriteChoroplethPNG(l.Grid, aoiRaster, l.Name)
		if err != nil {
			return err
		}
		a.logger.Debug("wrote zonal choropleth", "path", path)
	}
	return nil
}
