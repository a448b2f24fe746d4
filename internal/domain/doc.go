// Package domain models gridded climate-normal data and the analysis
// artifacts derived from it.
//
// # Data Source
//
// Climate normals are multi-decadal averages of a climate variable for a
// given calendar period, published as regular raster grids. The normals
// service consumed by this pipeline serves one grid per variable per
// calendar month in ESRI ASCII grid format, the same text format PRISM
// uses to distribute its 30-year normals. Each grid carries its own
// extent, cell size, and NODATA sentinel in a six-line header.
//
// # Variables
//
// Three variables are analyzed, each a 12-layer monthly stack:
//
//	ppt   monthly precipitation normal, millimeters
//	tmin  monthly minimum temperature normal, degrees Celsius
//	tmax  monthly maximum temperature normal, degrees Celsius
//
// Annual summaries reduce the 12 monthly layers with a variable-specific
// function: precipitation accumulates (annual total = sum of monthly
// normals), while temperature extremes average (an annual "total" tmin
// would be meaningless). See [Variable.Reduction].
//
// # Missing Data
//
// In memory a missing cell is NaN. The ASC codec translates the file's
// NODATA_value sentinel to NaN on read and back on write. Reductions and
// aggregations ignore NaN cells: a reduced cell is NaN only when every
// input layer is NaN there, and a mean divides by the count of valid
// layers, not the layer total. Missing data is never an error; it
// surfaces as NaN in layers and as null attributes in GeoJSON output.
//
// # Grids and Coordinate Systems
//
// A [Grid] is north-up and row major: index 0 is the top-left
// (north-west) cell and rows advance southward. The grid's extent is
// derived, never stored: MaxX = MinX + Cols*CellSize and likewise for Y.
// Layers stacked together must share one grid exactly; [Stack.Add]
// rejects anything else.
//
// Coordinate reference systems are identified by EPSG code. Boundary and
// point data arrive in geographic coordinates (EPSG:4326); rasters may
// use EPSG:4326 or Web Mercator (EPSG:3857). Operations that combine
// raster and vector operands require the caller to reconcile CRS first
// and fail with [ErrCRSMismatch] otherwise; reprojection is an explicit
// pipeline step, not an implicit convenience.
package domain
