// Command validate checks an analysis result JSON file (as served by
// the /result endpoint or captured from the sink topic summary plus
// feature messages) for internal consistency: grid geometry, attribute
// presence, and the missing-value contract.
//
// Usage:
//
//	go run ./cmd/validate -result result.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	resultPath := flag.String("result", "", "path to analysis result JSON")
	flag.Parse()

	if *resultPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*resultPath); code != 0 {
		os.Exit(code)
	}
}

func run(resultPath string) int {
	data, err := os.ReadFile(resultPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read result: %v\n", err)
		return 1
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode result: %v\n", err)
		return 1
	}

	fmt.Println("=== Analysis Result Validation ===")
	fmt.Println()

	phases := []*phase{
		validateGrid(&result),
		validateGlobal(&result),
		validateZonal(&result),
		validatePoints(&result),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Printf("       - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nall phases passed")
	return 0
}

func validateGrid(r *domain.AnalysisResult) *phase {
	p := &phase{name: "grid geometry"}
	g := r.Grid
	if g.Cols <= 0 || g.Rows <= 0 {
		p.errorf("grid has invalid dimensions %dx%d", g.Cols, g.Rows)
	}
	if g.CellSize <= 0 {
		p.errorf("grid has invalid cell size %g", g.CellSize)
	}
	if g.MaxX() <= g.MinX || g.MaxY() <= g.MinY {
		p.errorf("grid extent is degenerate: [%g,%g] x [%g,%g]", g.MinX, g.MaxX(), g.MinY, g.MaxY())
	}
	return p
}

func validateGlobal(r *domain.AnalysisResult) *phase {
	p := &phase{name: "global statistics"}
	if len(r.Global) != len(r.Variables) {
		p.errorf("expected %d global stats, got %d", len(r.Variables), len(r.Global))
	}
	for _, s := range r.Global {
		if s.Mean == nil && s.ValidCells > 0 {
			p.errorf("%s: null mean with %d valid cells", s.Variable, s.ValidCells)
		}
		if s.Mean != nil {
			if s.ValidCells == 0 {
				p.errorf("%s: mean %g with zero valid cells", s.Variable, *s.Mean)
			}
			if math.IsNaN(*s.Mean) || math.IsInf(*s.Mean, 0) {
				p.errorf("%s: non-finite mean", s.Variable)
			}
		}
		if s.Variable.Reduction() != s.Reduction {
			p.errorf("%s: reduction %q, expected %q", s.Variable, s.Reduction, s.Variable.Reduction())
		}
	}
	return p
}

func validateZonal(r *domain.AnalysisResult) *phase {
	p := &phase{name: "zonal attributes"}
	if r.Zonal == nil {
		p.errorf("missing zonal collection")
		return p
	}
	if len(r.Zonal.Features) == 0 {
		p.errorf("zonal collection has no features")
	}
	for i, f := range r.Zonal.Features {
		for _, v := range r.Variables {
			val, ok := f.Properties[string(v)]
			if !ok {
				p.errorf("zone %d: missing %s attribute", i, v)
				continue
			}
			if err := checkAttr(val); err != nil {
				p.errorf("zone %d: %s: %v", i, v, err)
			}
		}
	}
	return p
}

func validatePoints(r *domain.AnalysisResult) *phase {
	p := &phase{name: "point attributes"}
	if r.Points == nil {
		p.errorf("missing point collection")
		return p
	}
	for i, f := range r.Points.Features {
		for _, v := range r.Variables {
			val, ok := f.Properties[string(v)]
			if !ok {
				p.errorf("point %d: missing %s attribute", i, v)
				continue
			}
			if err := checkAttr(val); err != nil {
				p.errorf("point %d: %s: %v", i, v, err)
			}
		}
	}
	return p
}

// checkAttr accepts a finite number or an explicit null; anything else
// violates the missing-value contract.
func checkAttr(v any) error {
	switch v := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value %g", v)
		}
		return nil
	default:
		return fmt.Errorf("unexpected attribute type %T", v)
	}
}
