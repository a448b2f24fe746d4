package raster

import (
	"math"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// GlobalMean reduces a layer to the arithmetic mean of its valid cells,
// returning the mean and the valid-cell count. A layer with zero valid
// cells yields NaN and 0, not an error.
func GlobalMean(l *domain.Layer) (float64, int) {
	sum := 0.0
	valid := 0
	for _, v := range l.Values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		valid++
	}
	if valid == 0 {
		return math.NaN(), 0
	}
	return sum / float64(valid), valid
}
