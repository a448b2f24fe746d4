package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/geo"
)

// ExtractAt samples every layer of the stack at each point feature and
// appends one attribute per layer, keyed by the layer name. Sampling is
// nearest cell with no interpolation: the value of the cell containing
// the point. Points outside the raster extent (including on its eastern
// or southern edge) get a null attribute, not an error.
//
// The point dataset must already be in the raster's CRS; extracting
// through a mismatched CRS would silently sample the wrong cells, so it
// fails instead. Attributes are appended to the dataset in place.
func ExtractAt(s *domain.Stack, points geo.PointDataset) error {
	grid := s.Grid()
	if points.CRS != grid.CRS {
		return fmt.Errorf("extract: points are %s, raster is %s: %w",
			points.CRS, grid.CRS, domain.ErrCRSMismatch)
	}

	for _, f := range points.FC.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			for _, l := range s.Layers() {
				f.Properties[l.Name] = nil
			}
			continue
		}

		col, row, inside := grid.CellAt(p.X(), p.Y())
		for _, l := range s.Layers() {
			v := math.NaN()
			if inside {
				v = l.At(col, row)
			}
			f.Properties[l.Name] = domain.FloatOrNull(v)
		}
	}
	return nil
}
