// Package render writes PNG previews of analysis rasters and zonal
// results for human inspection.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	xdraw "golang.org/x/image/draw"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/zonal"
)

// maxPreviewWidth bounds the rendered image size; larger rasters are
// downscaled.
const maxPreviewWidth = 1024

// Renderer writes preview images into a directory.
type Renderer struct {
	dir string
}

// New creates a renderer writing into dir, creating it if needed.
func New(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plots dir: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// WriteLayerPNG renders a layer with a blue-to-red ramp over its valid
// value range. NoData cells are transparent. The file is named after the
// layer.
func (r *Renderer) WriteLayerPNG(l *domain.Layer) (string, error) {
	img := rasterImage(l)
	path := filepath.Join(r.dir, l.Name+".png")
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// WriteChoroplethPNG paints each grid cell with its zone's aggregate
// value, producing a polygon choropleth on the raster's grid. Cells
// outside every zone, and zones with a null aggregate, are transparent.
func (r *Renderer) WriteChoroplethPNG(grid domain.Grid, fc *geojson.FeatureCollection, column string) (string, error) {
	l := zonal.Rasterize(grid, fc, column)
	img := rasterImage(l)
	path := filepath.Join(r.dir, column+"_zonal.png")
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

func rasterImage(l *domain.Layer) image.Image {
	lo, hi := valueRange(l)
	img := image.NewNRGBA(image.Rect(0, 0, l.Grid.Cols, l.Grid.Rows))

	for row := 0; row < l.Grid.Rows; row++ {
		for col := 0; col < l.Grid.Cols; col++ {
			v := l.At(col, row)
			if math.IsNaN(v) {
				continue // transparent
			}
			img.Set(col, row, rampColor(v, lo, hi))
		}
	}

	if l.Grid.Cols <= maxPreviewWidth {
		return img
	}

	// Downscale wide rasters, preserving aspect ratio.
	scale := float64(maxPreviewWidth) / float64(l.Grid.Cols)
	h := int(math.Max(1, math.Round(float64(l.Grid.Rows)*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, maxPreviewWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// rampColor maps a value in [lo, hi] onto a blue-to-red ramp.
func rampColor(v, lo, hi float64) color.NRGBA {
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	return color.NRGBA{
		R: uint8(255 * t),
		G: uint8(64 * (1 - math.Abs(2*t-1))),
		B: uint8(255 * (1 - t)),
		A: 255,
	}
}

func valueRange(l *domain.Layer) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range l.Values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
