// Package geo handles coordinate reference systems and point
// reprojection for the analysis pipeline.
//
// Only the two CRS that appear in this workflow are supported:
// geographic WGS-84 (EPSG:4326) and spherical web Mercator (EPSG:3857).
// The forward and inverse Mercator formulas use the WGS-84 semi-major
// axis on a sphere, the same convention web mapping stacks use.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// earthRadius is the WGS-84 semi-major axis in meters, used as the
// spherical radius for web Mercator.
const earthRadius = 6378137.0

// maxMercatorLat is the latitude at which web Mercator's square world
// cuts off; coordinates beyond it are clamped.
const maxMercatorLat = 85.05112878

// PointDataset is a point feature collection tagged with its CRS.
// GeoJSON itself carries no CRS (RFC 7946 fixes it to WGS-84), so the
// tag travels alongside the collection once points have been
// reprojected into a raster's coordinate system.
type PointDataset struct {
	FC  *geojson.FeatureCollection
	CRS domain.CRS
}

// Transform converts a single coordinate between supported CRS.
func Transform(p orb.Point, from, to domain.CRS) (orb.Point, error) {
	if from == to {
		return p, nil
	}
	switch {
	case from == domain.CRSWGS84 && to == domain.CRSWebMercator:
		return forwardMercator(p), nil
	case from == domain.CRSWebMercator && to == domain.CRSWGS84:
		return inverseMercator(p), nil
	default:
		return orb.Point{}, fmt.Errorf("unsupported transform %s to %s", from, to)
	}
}

// ReprojectPoints returns a new point dataset with every point geometry
// transformed into the target CRS. Attributes are copied; the input
// dataset is left untouched. Features whose geometry is not a point are
// carried through unchanged.
func ReprojectPoints(ds PointDataset, to domain.CRS) (PointDataset, error) {
	out := geojson.NewFeatureCollection()
	for _, f := range ds.FC.Features {
		nf := geojson.NewFeature(f.Geometry)
		nf.ID = f.ID
		nf.Properties = f.Properties.Clone()

		if p, ok := f.Geometry.(orb.Point); ok {
			tp, err := Transform(p, ds.CRS, to)
			if err != nil {
				return PointDataset{}, fmt.Errorf("reproject point: %w", err)
			}
			nf.Geometry = tp
		}
		out.Append(nf)
	}
	return PointDataset{FC: out, CRS: to}, nil
}

// forwardMercator maps lon/lat degrees to web Mercator meters.
func forwardMercator(p orb.Point) orb.Point {
	lat := p.Lat()
	if lat > maxMercatorLat {
		lat = maxMercatorLat
	} else if lat < -maxMercatorLat {
		lat = -maxMercatorLat
	}

	x := earthRadius * p.Lon() * math.Pi / 180.0
	y := earthRadius * math.Log(math.Tan(math.Pi/4.0+lat*math.Pi/360.0))
	return orb.Point{x, y}
}

// inverseMercator maps web Mercator meters back to lon/lat degrees.
func inverseMercator(p orb.Point) orb.Point {
	lon := p.X() / earthRadius * 180.0 / math.Pi
	latRad := 2.0*math.Atan(math.Exp(p.Y()/earthRadius)) - math.Pi/2.0
	return orb.Point{lon, latRad * 180.0 / math.Pi}
}
