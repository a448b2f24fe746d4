package domain

import "fmt"

// Variable identifies a climate-normal variable served by the normals
// service.
type Variable string

const (
	VarPrecip  Variable = "ppt"  // monthly precipitation, mm
	VarTempMin Variable = "tmin" // monthly minimum temperature, °C
	VarTempMax Variable = "tmax" // monthly maximum temperature, °C
)

// ReductionKind names a per-cell function collapsing a monthly stack
// into one annual summary layer.
type ReductionKind string

const (
	ReduceSum  ReductionKind = "sum"
	ReduceMean ReductionKind = "mean"
)

// DefaultVariables is the variable set analyzed when none is configured.
var DefaultVariables = []Variable{VarPrecip, VarTempMin, VarTempMax}

// ParseVariable validates a variable identifier from config or a request.
func ParseVariable(s string) (Variable, error) {
	switch Variable(s) {
	case VarPrecip, VarTempMin, VarTempMax:
		return Variable(s), nil
	default:
		return "", fmt.Errorf("unknown climate variable %q", s)
	}
}

// Reduction returns the annual reduction for the variable: precipitation
// totals accumulate, temperature extremes average.
func (v Variable) Reduction() ReductionKind {
	if v == VarPrecip {
		return ReduceSum
	}
	return ReduceMean
}

// Unit returns the measurement unit of the variable's annual summary.
func (v Variable) Unit() string {
	if v == VarPrecip {
		return "mm"
	}
	return "degC"
}
