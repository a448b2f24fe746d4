package raster_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/raster"
)

const sampleASC = `ncols 3
nrows 2
xllcorner 10.0
yllcorner 20.0
cellsize 0.5
NODATA_value -9999
1.5 2.5 -9999
4 5 6
`

func TestReadASC(t *testing.T) {
	l, err := raster.ReadASC(strings.NewReader(sampleASC), "jan", domain.CRSWGS84)
	require.NoError(t, err)

	assert.Equal(t, "jan", l.Name)
	assert.Equal(t, domain.Grid{
		Cols: 3, Rows: 2, MinX: 10, MinY: 20, CellSize: 0.5, CRS: domain.CRSWGS84,
	}, l.Grid)

	// First body row is the northernmost.
	assert.Equal(t, 1.5, l.At(0, 0))
	assert.Equal(t, 2.5, l.At(1, 0))
	assert.True(t, math.IsNaN(l.At(2, 0)), "NODATA sentinel becomes NaN")
	assert.Equal(t, 6.0, l.At(2, 1))
}

func TestReadASC_DefaultNoData(t *testing.T) {
	in := `ncols 1
nrows 1
xllcorner 0
yllcorner 0
cellsize 1
-9999
`
	l, err := raster.ReadASC(strings.NewReader(in), "x", domain.CRSWGS84)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(l.At(0, 0)))
}

func TestReadASC_CenterOrigin(t *testing.T) {
	// The xllcenter/yllcenter header variant anchors the origin at the
	// center of the lower-left cell, half a cell in from the corner.
	in := `ncols 3
nrows 2
xllcenter 10.25
yllcenter 20.25
cellsize 0.5
1 2 3
4 5 6
`
	l, err := raster.ReadASC(strings.NewReader(in), "jan", domain.CRSWGS84)
	require.NoError(t, err)
	assert.Equal(t, domain.Grid{
		Cols: 3, Rows: 2, MinX: 10, MinY: 20, CellSize: 0.5, CRS: domain.CRSWGS84,
	}, l.Grid)
}

func TestReadASC_MissingHeaderKey(t *testing.T) {
	in := "ncols 2\nnrows 2\ncellsize 1\n1 2\n3 4\n"
	_, err := raster.ReadASC(strings.NewReader(in), "x", domain.CRSWGS84)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xllcorner")
}

func TestReadASC_CellCountMismatch(t *testing.T) {
	in := `ncols 2
nrows 2
xllcorner 0
yllcorner 0
cellsize 1
1 2 3
`
	_, err := raster.ReadASC(strings.NewReader(in), "x", domain.CRSWGS84)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 cells")
}

func TestReadASC_BadCellValue(t *testing.T) {
	in := `ncols 1
nrows 1
xllcorner 0
yllcorner 0
cellsize 1
banana
`
	_, err := raster.ReadASC(strings.NewReader(in), "x", domain.CRSWGS84)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "banana")
}

func TestWriteASC_RoundTrip(t *testing.T) {
	grid := domain.Grid{Cols: 3, Rows: 2, MinX: -1.5, MinY: 40, CellSize: 0.25, CRS: domain.CRSWebMercator}
	l := domain.NewLayer(grid, "ppt")
	l.Set(0, 0, 12.5)
	l.Set(2, 1, -3.75)

	var buf bytes.Buffer
	require.NoError(t, raster.WriteASC(&buf, l))

	got, err := raster.ReadASC(&buf, "ppt", domain.CRSWebMercator)
	require.NoError(t, err)

	assert.True(t, got.Grid.Equal(grid))
	if diff := cmp.Diff(l.Values, got.Values, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("cell values changed across round trip (-want +got):\n%s", diff)
	}
}
