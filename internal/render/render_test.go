package render

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

func testLayer() *domain.Layer {
	grid := domain.Grid{Cols: 4, Rows: 3, MinX: 0, MinY: 0, CellSize: 1, CRS: domain.CRSWGS84}
	l := domain.NewLayer(grid, "ppt")
	for i := range l.Values {
		l.Values[i] = float64(i * 10)
	}
	l.Set(3, 0, math.NaN())
	return l
}

func decodePNG(t *testing.T, path string) (width, height int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestWriteLayerPNG(t *testing.T) {
	dir := t.TempDir()
	r, err := New(filepath.Join(dir, "plots"))
	require.NoError(t, err)

	path, err := r.WriteLayerPNG(testLayer())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plots", "ppt.png"), path)

	w, h := decodePNG(t, path)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
}

func TestWriteLayerPNG_DownscalesWideRasters(t *testing.T) {
	grid := domain.Grid{Cols: 2048, Rows: 512, MinX: 0, MinY: 0, CellSize: 1, CRS: domain.CRSWGS84}
	l := domain.NewLayer(grid, "tmax")
	for i := range l.Values {
		l.Values[i] = float64(i % 97)
	}

	r, err := New(t.TempDir())
	require.NoError(t, err)
	path, err := r.WriteLayerPNG(l)
	require.NoError(t, err)

	w, h := decodePNG(t, path)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 256, h)
}

func TestWriteChoroplethPNG(t *testing.T) {
	grid := domain.Grid{Cols: 4, Rows: 4, MinX: 0, MinY: 0, CellSize: 1, CRS: domain.CRSWGS84}

	fc := geojson.NewFeatureCollection()
	zone := geojson.NewFeature(orb.Polygon{{{0, 0}, {2, 0}, {2, 4}, {0, 4}, {0, 0}}})
	zone.Properties["ppt"] = 120.0
	fc.Append(zone)

	r, err := New(t.TempDir())
	require.NoError(t, err)
	path, err := r.WriteChoroplethPNG(grid, fc, "ppt")
	require.NoError(t, err)
	assert.Equal(t, "ppt_zonal.png", filepath.Base(path))

	w, h := decodePNG(t, path)
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
}

func TestValueRange(t *testing.T) {
	l := testLayer()
	lo, hi := valueRange(l)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 110.0, hi)

	empty := domain.NewLayer(l.Grid, "empty")
	lo, hi = valueRange(empty)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}
