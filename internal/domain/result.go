package domain

import (
	"math"
	"time"

	"github.com/paulmach/orb/geojson"
)

// GlobalStat is the whole-raster mean of one variable's annual summary
// layer.
type GlobalStat struct {
	Variable   Variable      `json:"variable"`
	Reduction  ReductionKind `json:"reduction"`
	Unit       string        `json:"unit"`
	Mean       *float64      `json:"mean"` // null when the layer has no valid cells
	ValidCells int           `json:"valid_cells"`
}

// AnalysisResult is the complete output of one pipeline run: global
// means per variable, the AOI polygons with one zonal-mean attribute per
// variable, and the point dataset with one sampled attribute per
// variable.
type AnalysisResult struct {
	Regions    []string                   `json:"regions"`
	Variables  []Variable                 `json:"variables"`
	Grid       Grid                       `json:"grid"`
	Global     []GlobalStat               `json:"global"`
	Zonal      *geojson.FeatureCollection `json:"zonal"`
	Points     *geojson.FeatureCollection `json:"points"`
	ProducedAt time.Time                  `json:"produced_at"`
}

// NewAnalysisResult creates a result shell stamped with the current
// clock time. The pipeline fills the remaining fields stage by stage.
func NewAnalysisResult(regions []string, variables []Variable) *AnalysisResult {
	return &AnalysisResult{
		Regions:    regions,
		Variables:  variables,
		ProducedAt: clock.Now().UTC(),
	}
}

// FloatOrNull converts a raster value to a GeoJSON attribute value:
// NaN becomes null rather than erroring at JSON encoding time.
func FloatOrNull(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// MeanOrNull converts a scalar aggregate to the pointer form used in
// JSON output, preserving the missing/valid distinction.
func MeanOrNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
