package raster_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/raster"
)

func TestGlobalMean(t *testing.T) {
	l := domain.NewLayer(testGrid(), "ppt")
	l.Set(0, 0, 2)
	l.Set(1, 0, 4)
	l.Set(2, 1, 9)

	mean, valid := raster.GlobalMean(l)
	assert.Equal(t, 5.0, mean)
	assert.Equal(t, 3, valid, "only non-missing cells count")
}

func TestGlobalMean_AllMissing(t *testing.T) {
	mean, valid := raster.GlobalMean(domain.NewLayer(testGrid(), "empty"))
	assert.True(t, math.IsNaN(mean), "no valid cells yields missing, not an error")
	assert.Equal(t, 0, valid)
}

func TestGlobalMean_UniformLayer(t *testing.T) {
	mean, valid := raster.GlobalMean(uniformLayer(testGrid(), "u", 7.5))
	assert.Equal(t, 7.5, mean)
	assert.Equal(t, 6, valid)
}
