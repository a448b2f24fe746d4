package geo_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/geo"
)

func TestReprojectGeometry_Polygon(t *testing.T) {
	poly := orb.Polygon{
		{{-100, 30}, {-99, 30}, {-99, 31}, {-100, 31}, {-100, 30}},
	}

	got, err := geo.ReprojectGeometry(poly, domain.CRSWGS84, domain.CRSWebMercator)
	require.NoError(t, err)

	merc, ok := got.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, merc, 1)
	require.Len(t, merc[0], 5)

	// Each vertex matches the single-point transform.
	for i, p := range poly[0] {
		want, err := geo.Transform(p, domain.CRSWGS84, domain.CRSWebMercator)
		require.NoError(t, err)
		assert.Equal(t, want, merc[0][i])
	}

	// Source geometry untouched.
	assert.Equal(t, -100.0, poly[0][0].X())
}

func TestReprojectGeometry_MultiPolygonRoundTrip(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{-100, 30}, {-99, 30}, {-99, 31}, {-100, 30}}},
		{{{-98, 32}, {-97, 32}, {-97, 33}, {-98, 32}}},
	}

	merc, err := geo.ReprojectGeometry(mp, domain.CRSWGS84, domain.CRSWebMercator)
	require.NoError(t, err)
	back, err := geo.ReprojectGeometry(merc, domain.CRSWebMercator, domain.CRSWGS84)
	require.NoError(t, err)

	gotMP, ok := back.(orb.MultiPolygon)
	require.True(t, ok)
	require.Len(t, gotMP, 2)
	for i := range mp {
		for j := range mp[i] {
			for k := range mp[i][j] {
				assert.InDelta(t, mp[i][j][k].X(), gotMP[i][j][k].X(), 1e-9)
				assert.InDelta(t, mp[i][j][k].Y(), gotMP[i][j][k].Y(), 1e-9)
			}
		}
	}
}

func TestReprojectGeometry_IdentityClones(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 1}}
	got, err := geo.ReprojectGeometry(ls, domain.CRSWGS84, domain.CRSWGS84)
	require.NoError(t, err)

	clone, ok := got.(orb.LineString)
	require.True(t, ok)
	clone[0] = orb.Point{9, 9}
	assert.Equal(t, orb.Point{0, 0}, ls[0], "identity reprojection must not alias the input")
}

func TestReprojectCollection(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Polygon{{{-100, 30}, {-99, 30}, {-99, 31}, {-100, 30}}})
	f.Properties["name"] = "west"
	fc.Append(f)

	out, err := geo.ReprojectCollection(fc, domain.CRSWGS84, domain.CRSWebMercator)
	require.NoError(t, err)
	require.Len(t, out.Features, 1)
	assert.Equal(t, "west", out.Features[0].Properties["name"])

	merc := out.Features[0].Geometry.(orb.Polygon)
	assert.Less(t, merc[0][0].X(), -1e6, "coordinates are in meters after reprojection")
}
