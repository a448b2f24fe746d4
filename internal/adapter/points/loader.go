// Package points loads observation-site point datasets from GeoJSON
// files addressed by a directory and layer name, the directory-plus-
// layer convention vector toolchains use.
package points

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/geo"
)

// Source addresses a point layer by directory and layer name and
// implements the pipeline's point-loading contract.
type Source struct {
	Dir   string
	Layer string
}

func (s Source) Load() (geo.PointDataset, error) {
	return Load(s.Dir, s.Layer)
}

// Load reads <dir>/<layer>.geojson into a point dataset. GeoJSON fixes
// coordinates to WGS-84 (RFC 7946), so the dataset is tagged EPSG:4326;
// reprojection into a raster's CRS is a separate explicit step.
func Load(dir, layer string) (geo.PointDataset, error) {
	path := filepath.Join(dir, layer+".geojson")
	data, err := os.ReadFile(path)
	if err != nil {
		return geo.PointDataset{}, fmt.Errorf("read point layer %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return geo.PointDataset{}, fmt.Errorf("decode point layer %s: %w", path, err)
	}

	for _, f := range fc.Features {
		if _, ok := f.Geometry.(orb.Point); !ok {
			return geo.PointDataset{}, fmt.Errorf("point layer %s: feature with non-point geometry %s",
				path, f.Geometry.GeoJSONType())
		}
	}

	return geo.PointDataset{FC: fc, CRS: domain.CRSWGS84}, nil
}
