// Package zonal aggregates raster cell values by overlapping polygon
// zones and masks rasters to polygon boundaries.
//
// Cell membership is decided by cell-center containment: a cell belongs
// to every zone whose polygon contains its center point. This is the
// common zonal-statistics convention.
package zonal

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// Mean computes the mean of the layer's valid cells inside each feature
// of the collection and appends it as the named attribute. A feature
// with zero valid cells (empty polygons, polygons outside the extent,
// polygons over pure NoData) gets a null attribute; no feature affects
// another. The collection must be in the raster's CRS.
func Mean(l *domain.Layer, fc *geojson.FeatureCollection, fcCRS domain.CRS, column string) error {
	if fcCRS != l.Grid.CRS {
		return fmt.Errorf("zonal mean: polygons are %s, raster is %s: %w",
			fcCRS, l.Grid.CRS, domain.ErrCRSMismatch)
	}

	for _, f := range fc.Features {
		sum := 0.0
		valid := 0
		forEachCellInside(l.Grid, f.Geometry, func(col, row int) {
			v := l.At(col, row)
			if math.IsNaN(v) {
				return
			}
			sum += v
			valid++
		})

		mean := math.NaN()
		if valid > 0 {
			mean = sum / float64(valid)
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[column] = domain.FloatOrNull(mean)
	}
	return nil
}

// MaskStack sets every cell whose center falls outside all features to
// NaN, across all layers of the stack. The stack is modified in place.
// Returns the number of cell positions masked.
func MaskStack(s *domain.Stack, fc *geojson.FeatureCollection, fcCRS domain.CRS) (int, error) {
	grid := s.Grid()
	if s.Len() == 0 {
		return 0, nil
	}
	if fcCRS != grid.CRS {
		return 0, fmt.Errorf("mask: polygons are %s, raster is %s: %w",
			fcCRS, grid.CRS, domain.ErrCRSMismatch)
	}

	masked := 0
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			x, y := grid.CellCenter(col, row)
			if insideAny(fc, orb.Point{x, y}) {
				continue
			}
			for _, l := range s.Layers() {
				l.Set(col, row, math.NaN())
			}
			masked++
		}
	}
	return masked, nil
}

// forEachCellInside visits each grid cell whose center lies inside the
// geometry, iterating only the cells under the geometry's bounding box.
func forEachCellInside(grid domain.Grid, g orb.Geometry, visit func(col, row int)) {
	if g == nil {
		return
	}
	b := g.Bound()

	// Clamp the geometry's bbox to the grid's index range.
	minCol := int(math.Floor((b.Min.X() - grid.MinX) / grid.CellSize))
	maxCol := int(math.Ceil((b.Max.X() - grid.MinX) / grid.CellSize))
	minRow := int(math.Floor((grid.MaxY() - b.Max.Y()) / grid.CellSize))
	maxRow := int(math.Ceil((grid.MaxY() - b.Min.Y()) / grid.CellSize))
	minCol = max(minCol, 0)
	minRow = max(minRow, 0)
	maxCol = min(maxCol, grid.Cols)
	maxRow = min(maxRow, grid.Rows)

	for row := minRow; row < maxRow; row++ {
		for col := minCol; col < maxCol; col++ {
			x, y := grid.CellCenter(col, row)
			if contains(g, orb.Point{x, y}) {
				visit(col, row)
			}
		}
	}
}

func insideAny(fc *geojson.FeatureCollection, p orb.Point) bool {
	for _, f := range fc.Features {
		if contains(f.Geometry, p) {
			return true
		}
	}
	return false
}

// contains dispatches planar point-in-polygon over the geometry types a
// boundary service realistically returns.
func contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Collection:
		for _, sub := range g {
			if contains(sub, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
