package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// ErrEmptyStack is returned when a reduction is asked of a stack with no
// layers.
var ErrEmptyStack = errors.New("cannot reduce an empty stack")

// Reduce collapses a multi-layer stack into a single anonymous layer by
// applying the reduction per cell across all layers. Missing values are
// ignored: a result cell is NaN only when every layer is missing there,
// and a mean divides by the count of valid layers at that cell, not by
// the layer total. The caller names the result via Layer.Rename.
func Reduce(s *domain.Stack, kind domain.ReductionKind) (*domain.Layer, error) {
	layers := s.Layers()
	if len(layers) == 0 {
		return nil, ErrEmptyStack
	}
	if kind != domain.ReduceSum && kind != domain.ReduceMean {
		return nil, fmt.Errorf("unknown reduction %q", kind)
	}

	grid := s.Grid()
	out := domain.NewLayer(grid, "")

	for i := range out.Values {
		sum := 0.0
		valid := 0
		for _, l := range layers {
			v := l.Values[i]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			valid++
		}
		if valid == 0 {
			continue // stays NaN
		}
		if kind == domain.ReduceMean {
			out.Values[i] = sum / float64(valid)
		} else {
			out.Values[i] = sum
		}
	}
	return out, nil
}
