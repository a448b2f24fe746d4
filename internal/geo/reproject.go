package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// ReprojectGeometry transforms every coordinate of a geometry between
// supported CRS, returning a new geometry.
func ReprojectGeometry(g orb.Geometry, from, to domain.CRS) (orb.Geometry, error) {
	if from == to {
		return orb.Clone(g), nil
	}

	switch g := g.(type) {
	case orb.Point:
		return Transform(g, from, to)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(g))
		for i, p := range g {
			tp, err := Transform(p, from, to)
			if err != nil {
				return nil, err
			}
			out[i] = tp
		}
		return out, nil
	case orb.LineString:
		out := make(orb.LineString, len(g))
		for i, p := range g {
			tp, err := Transform(p, from, to)
			if err != nil {
				return nil, err
			}
			out[i] = tp
		}
		return out, nil
	case orb.Ring:
		ls, err := ReprojectGeometry(orb.LineString(g), from, to)
		if err != nil {
			return nil, err
		}
		return orb.Ring(ls.(orb.LineString)), nil
	case orb.Polygon:
		out := make(orb.Polygon, len(g))
		for i, r := range g {
			tr, err := ReprojectGeometry(r, from, to)
			if err != nil {
				return nil, err
			}
			out[i] = tr.(orb.Ring)
		}
		return out, nil
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, poly := range g {
			tp, err := ReprojectGeometry(poly, from, to)
			if err != nil {
				return nil, err
			}
			out[i] = tp.(orb.Polygon)
		}
		return out, nil
	case orb.Collection:
		out := make(orb.Collection, len(g))
		for i, sub := range g {
			ts, err := ReprojectGeometry(sub, from, to)
			if err != nil {
				return nil, err
			}
			out[i] = ts
		}
		return out, nil
	default:
		return nil, fmt.Errorf("reproject: unsupported geometry type %s", g.GeoJSONType())
	}
}

// ReprojectCollection transforms every feature geometry in a collection,
// returning a new collection with copied attributes.
func ReprojectCollection(fc *geojson.FeatureCollection, from, to domain.CRS) (*geojson.FeatureCollection, error) {
	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		tg, err := ReprojectGeometry(f.Geometry, from, to)
		if err != nil {
			return nil, err
		}
		nf := geojson.NewFeature(tg)
		nf.ID = f.ID
		nf.Properties = f.Properties.Clone()
		out.Append(nf)
	}
	return out, nil
}
