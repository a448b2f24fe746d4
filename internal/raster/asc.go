// Package raster implements the grid operations of the analysis
// pipeline: the ESRI ASCII grid codec, stack reduction, global
// statistics, and point extraction.
package raster

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// defaultNoData is the conventional ESRI ASCII sentinel, used on write
// and assumed on read when the header omits NODATA_value.
const defaultNoData = -9999.0

// ReadASC parses an ESRI ASCII grid into a layer. The six-line header
// (ncols, nrows, xllcorner, yllcorner, cellsize, NODATA_value) precedes
// row-major cell values listed north to south, which matches the layer's
// in-memory order directly. Cells equal to the NODATA sentinel become
// NaN. The xllcenter/yllcenter origin variant is accepted and converted
// to the corner form. The format carries no CRS, so the caller supplies
// it.
func ReadASC(r io.Reader, name string, crs domain.CRS) (*domain.Layer, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	header := map[string]float64{}
	noData := defaultNoData
	var values []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs with a non-numeric key.
		if len(fields) == 2 && !isNumeric(fields[0]) {
			key := strings.ToLower(fields[0])
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("asc header %s: %w", key, err)
			}
			if key == "nodata_value" {
				noData = v
			} else {
				header[key] = v
			}
			continue
		}

		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("asc cell value %q: %w", f, err)
			}
			if v == noData {
				v = math.NaN()
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read asc: %w", err)
	}

	grid, err := gridFromHeader(header, crs)
	if err != nil {
		return nil, err
	}
	if len(values) != grid.Cols*grid.Rows {
		return nil, fmt.Errorf("asc body has %d cells, header promises %d",
			len(values), grid.Cols*grid.Rows)
	}

	return &domain.Layer{Grid: grid, Name: name, Values: values}, nil
}

// WriteASC serializes a layer as an ESRI ASCII grid, mapping NaN cells
// to the NODATA sentinel.
func WriteASC(w io.Writer, l *domain.Layer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", l.Grid.Cols)
	fmt.Fprintf(bw, "nrows %d\n", l.Grid.Rows)
	fmt.Fprintf(bw, "xllcorner %g\n", l.Grid.MinX)
	fmt.Fprintf(bw, "yllcorner %g\n", l.Grid.MinY)
	fmt.Fprintf(bw, "cellsize %g\n", l.Grid.CellSize)
	fmt.Fprintf(bw, "NODATA_value %g\n", defaultNoData)

	for row := 0; row < l.Grid.Rows; row++ {
		for col := 0; col < l.Grid.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := l.At(col, row)
			if math.IsNaN(v) {
				fmt.Fprintf(bw, "%g", defaultNoData)
			} else {
				fmt.Fprintf(bw, "%g", v)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func gridFromHeader(h map[string]float64, crs domain.CRS) (domain.Grid, error) {
	for _, key := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := h[key]; !ok {
			return domain.Grid{}, fmt.Errorf("asc header missing %s", key)
		}
	}
	cols := int(h["ncols"])
	rows := int(h["nrows"])
	if cols <= 0 || rows <= 0 {
		return domain.Grid{}, fmt.Errorf("asc header has invalid dimensions %dx%d", cols, rows)
	}
	if h["cellsize"] <= 0 {
		return domain.Grid{}, fmt.Errorf("asc header has invalid cellsize %g", h["cellsize"])
	}

	// The origin may be given as the lower-left corner or, in the
	// center variant, the center of the lower-left cell.
	for _, axis := range []string{"x", "y"} {
		corner := axis + "llcorner"
		if _, ok := h[corner]; ok {
			continue
		}
		center, ok := h[axis+"llcenter"]
		if !ok {
			return domain.Grid{}, fmt.Errorf("asc header missing %s", corner)
		}
		h[corner] = center - h["cellsize"]/2
	}
	return domain.Grid{
		Cols:     cols,
		Rows:     rows,
		MinX:     h["xllcorner"],
		MinY:     h["yllcorner"],
		CellSize: h["cellsize"],
		CRS:      crs,
	}, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
