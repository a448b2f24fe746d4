package points

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

const sitesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-99.5, 30.5]}, "properties": {"name": "site-a"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-98.2, 31.1]}, "properties": {"name": "site-b"}}
  ]
}`

func writeLayer(t *testing.T, dir, layer, content string) {
	t.Helper()
	path := filepath.Join(dir, layer+".geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeLayer(t, dir, "sites", sitesGeoJSON)

	ds, err := Load(dir, "sites")
	require.NoError(t, err)

	assert.Equal(t, domain.CRSWGS84, ds.CRS)
	require.Len(t, ds.FC.Features, 2)
	assert.Equal(t, "site-a", ds.FC.Features[0].Properties["name"])

	p, ok := ds.FC.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{-99.5, 30.5}, p)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "sites")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sites.geojson")
}

func TestLoad_NonPointGeometry(t *testing.T) {
	dir := t.TempDir()
	writeLayer(t, dir, "sites", `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}, "properties": {}}
  ]
}`)

	_, err := Load(dir, "sites")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-point geometry")
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	writeLayer(t, dir, "sites", "not json")

	_, err := Load(dir, "sites")
	require.Error(t, err)
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeLayer(t, dir, "sites", sitesGeoJSON)

	ds, err := Source{Dir: dir, Layer: "sites"}.Load()
	require.NoError(t, err)
	assert.Len(t, ds.FC.Features, 2)
}
