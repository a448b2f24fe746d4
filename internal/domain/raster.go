package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

var (
	// ErrGridMismatch is returned when layers with different grids are
	// combined into one stack.
	ErrGridMismatch = errors.New("raster layers have mismatched grids")

	// ErrCRSMismatch is returned when raster and vector operands use
	// different coordinate reference systems. Reconciling CRS is the
	// caller's job; see geo.ReprojectPoints.
	ErrCRSMismatch = errors.New("coordinate reference systems do not match")
)

// CRS identifies a coordinate reference system by EPSG code.
type CRS int

const (
	// CRSWGS84 is geographic latitude/longitude (EPSG:4326).
	CRSWGS84 CRS = 4326
	// CRSWebMercator is spherical web Mercator (EPSG:3857).
	CRSWebMercator CRS = 3857
)

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", int(c))
}

// Grid describes the geometry of a regular raster: cell counts, origin,
// cell size, and CRS. The extent is derived from these, never stored.
type Grid struct {
	Cols     int     `json:"cols"`
	Rows     int     `json:"rows"`
	MinX     float64 `json:"min_x"`
	MinY     float64 `json:"min_y"`
	CellSize float64 `json:"cell_size"`
	CRS      CRS     `json:"crs"`
}

// MaxX returns the eastern edge of the grid extent.
func (g Grid) MaxX() float64 { return g.MinX + float64(g.Cols)*g.CellSize }

// MaxY returns the northern edge of the grid extent.
func (g Grid) MaxY() float64 { return g.MinY + float64(g.Rows)*g.CellSize }

// Bound returns the grid extent as an orb bounding box.
func (g Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.MinX, g.MinY},
		Max: orb.Point{g.MaxX(), g.MaxY()},
	}
}

// CellAt maps a coordinate to the (col, row) of the cell containing it.
// ok is false when the coordinate falls outside the extent. Coordinates
// exactly on the eastern or southern edge belong to no cell, matching
// the half-open cell convention: a point at MaxX is beyond the last
// valid column.
func (g Grid) CellAt(x, y float64) (col, row int, ok bool) {
	col = int(math.Floor((x - g.MinX) / g.CellSize))
	row = int(math.Floor((g.MaxY() - y) / g.CellSize))
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return 0, 0, false
	}
	return col, row, true
}

// CellCenter returns the coordinate of the center of cell (col, row).
func (g Grid) CellCenter(col, row int) (x, y float64) {
	x = g.MinX + (float64(col)+0.5)*g.CellSize
	y = g.MaxY() - (float64(row)+0.5)*g.CellSize
	return x, y
}

// Equal reports whether two grids describe the same raster geometry.
// Origins and cell size are compared with a small tolerance since they
// round-trip through decimal text in the ASC format.
func (g Grid) Equal(other Grid) bool {
	const eps = 1e-9
	return g.Cols == other.Cols &&
		g.Rows == other.Rows &&
		g.CRS == other.CRS &&
		math.Abs(g.MinX-other.MinX) < eps &&
		math.Abs(g.MinY-other.MinY) < eps &&
		math.Abs(g.CellSize-other.CellSize) < eps
}

// Layer is a single named raster band: a grid plus one float64 value per
// cell, row major from the top-left (north-west) cell. Missing cells
// hold NaN.
type Layer struct {
	Grid   Grid
	Name   string
	Values []float64
}

// NewLayer allocates a layer for the given grid with every cell missing.
func NewLayer(grid Grid, name string) *Layer {
	values := make([]float64, grid.Cols*grid.Rows)
	for i := range values {
		values[i] = math.NaN()
	}
	return &Layer{Grid: grid, Name: name, Values: values}
}

// At returns the value of cell (col, row). No bounds checking beyond the
// slice's own; callers index via Grid.CellAt.
func (l *Layer) At(col, row int) float64 {
	return l.Values[row*l.Grid.Cols+col]
}

// Set assigns the value of cell (col, row).
func (l *Layer) Set(col, row int, v float64) {
	l.Values[row*l.Grid.Cols+col] = v
}

// Rename returns the same layer with a new semantic name. Reductions
// produce anonymous layers; the caller assigns meaning.
func (l *Layer) Rename(name string) *Layer {
	l.Name = name
	return l
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	values := make([]float64, len(l.Values))
	copy(values, l.Values)
	return &Layer{Grid: l.Grid, Name: l.Name, Values: values}
}

// Stack is an ordered sequence of spatially congruent layers treated as
// one multi-band raster.
type Stack struct {
	layers []*Layer
}

// NewStack creates a stack from zero or more layers. The first layer
// fixes the grid; any later layer with a different grid is rejected.
func NewStack(layers ...*Layer) (*Stack, error) {
	s := &Stack{}
	for _, l := range layers {
		if err := s.Add(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a layer, enforcing grid congruence with the layers already
// present.
func (s *Stack) Add(l *Layer) error {
	if len(s.layers) > 0 && !s.layers[0].Grid.Equal(l.Grid) {
		return fmt.Errorf("add layer %q: %w", l.Name, ErrGridMismatch)
	}
	s.layers = append(s.layers, l)
	return nil
}

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.layers) }

// Layers returns the layers in order. The slice is shared, not copied.
func (s *Stack) Layers() []*Layer { return s.layers }

// Layer returns the layer with the given name, or nil.
func (s *Stack) Layer(name string) *Layer {
	for _, l := range s.layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Grid returns the shared grid of the stack's layers. Zero value for an
// empty stack.
func (s *Stack) Grid() Grid {
	if len(s.layers) == 0 {
		return Grid{}
	}
	return s.layers[0].Grid
}
