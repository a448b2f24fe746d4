// Command gengrid generates synthetic climate-normal fixtures: twelve
// monthly ESRI ASCII grids per variable, an AOI polygon collection, and
// an observation-site point layer. The output tree matches what the
// normals and boundary services serve, so a plain file server over it
// stands in for both during development and testing.
//
// Usage:
//
//	go run ./cmd/gengrid -out data/fixtures -cols 40 -rows 30
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/raster"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixture files")
	cols := flag.Int("cols", 40, "grid columns")
	rows := flag.Int("rows", 30, "grid rows")
	seed := flag.Int64("seed", 1, "random seed for reproducible noise")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	grid := domain.Grid{
		Cols:     *cols,
		Rows:     *rows,
		MinX:     -100.0,
		MinY:     30.0,
		CellSize: 0.05,
		CRS:      domain.CRSWGS84,
	}
	rng := rand.New(rand.NewSource(*seed))

	for _, v := range domain.DefaultVariables {
		dir := filepath.Join(*outDir, "normals", string(v))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for month := 1; month <= 12; month++ {
			layer := monthlyLayer(grid, v, month, rng)
			path := filepath.Join(dir, fmt.Sprintf("%02d.asc", month))
			if err := writeLayer(path, layer); err != nil {
				return err
			}
		}
		log.Printf("%s: 12 monthly grids", v)
	}

	if err := writeRegions(*outDir, grid); err != nil {
		return err
	}
	if err := writeSites(*outDir, grid, rng); err != nil {
		return err
	}

	log.Printf("fixtures written to %s", *outDir)
	return nil
}

// monthlyLayer builds a plausible climate field: a north-south gradient,
// a seasonal cycle, and a little noise. A diagonal corner of the grid is
// NoData so reductions and aggregates exercise the missing-value paths.
func monthlyLayer(grid domain.Grid, v domain.Variable, month int, rng *rand.Rand) *domain.Layer {
	season := math.Sin(2 * math.Pi * float64(month-1) / 12.0)

	l := domain.NewLayer(grid, fmt.Sprintf("%s_%02d", v, month))
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			if col+row < grid.Rows/4 {
				continue // NoData corner
			}
			latFrac := float64(row) / float64(grid.Rows) // 0 north, 1 south
			noise := rng.Float64()

			var val float64
			switch v {
			case domain.VarPrecip:
				val = 60 + 40*season + 30*latFrac + 5*noise
			case domain.VarTempMin:
				val = 2 + 10*season + 8*latFrac + noise
			case domain.VarTempMax:
				val = 14 + 12*season + 8*latFrac + noise
			}
			l.Set(col, row, math.Round(val*100)/100)
		}
	}
	return l
}

func writeLayer(path string, l *domain.Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return raster.WriteASC(f, l)
}

// writeRegions splits the grid extent into two side-by-side polygons, a
// minimal AOI with more than one zone.
func writeRegions(outDir string, grid domain.Grid) error {
	midX := (grid.MinX + grid.MaxX()) / 2

	fc := geojson.NewFeatureCollection()
	west := geojson.NewFeature(rectangle(grid.MinX, grid.MinY, midX, grid.MaxY()))
	west.Properties["name"] = "west"
	east := geojson.NewFeature(rectangle(midX, grid.MinY, grid.MaxX(), grid.MaxY()))
	east.Properties["name"] = "east"
	fc.Append(west)
	fc.Append(east)

	return writeGeoJSON(filepath.Join(outDir, "regions.geojson"), fc)
}

// writeSites scatters point features inside the extent, plus one outside
// it to exercise the missing-sample path.
func writeSites(outDir string, grid domain.Grid, rng *rand.Rand) error {
	fc := geojson.NewFeatureCollection()
	for i := 0; i < 10; i++ {
		x := grid.MinX + rng.Float64()*(grid.MaxX()-grid.MinX)
		y := grid.MinY + rng.Float64()*(grid.MaxY()-grid.MinY)
		f := geojson.NewFeature(orb.Point{x, y})
		f.Properties["name"] = fmt.Sprintf("site-%02d", i+1)
		fc.Append(f)
	}
	outside := geojson.NewFeature(orb.Point{grid.MaxX() + 1, grid.MaxY() + 1})
	outside.Properties["name"] = "site-outside"
	fc.Append(outside)

	return writeGeoJSON(filepath.Join(outDir, "sites.geojson"), fc)
}

func rectangle(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func writeGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
