package zonal

import (
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// Rasterize burns each feature's named attribute onto the grid: every
// cell whose center lies inside a feature takes that feature's attribute
// value. Cells outside every feature, and features with a null
// attribute, stay NaN. When zones overlap, later features win, matching
// feature order.
func Rasterize(grid domain.Grid, fc *geojson.FeatureCollection, column string) *domain.Layer {
	out := domain.NewLayer(grid, column)
	for _, f := range fc.Features {
		v, ok := attrFloat(f.Properties[column])
		if !ok {
			continue
		}
		forEachCellInside(grid, f.Geometry, func(col, row int) {
			out.Set(col, row, v)
		})
	}
	return out
}

// attrFloat unwraps a numeric attribute value; JSON round-trips may
// deliver it as float64 or not at all.
func attrFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
