// Package grid discretizes the globe into a longitude-wrapping cylinder of
// cells, each classified once as land or sea.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/ngmaloney/rotation-map/internal/models"
)

// ErrInvalidResolution is returned when a resolution does not tile the globe
var ErrInvalidResolution = errors.New("invalid grid resolution")

const divisibilityEpsilon = 1e-9

// Cell addresses one grid cell. Row 0 is the north pole row.
type Cell struct {
	Row int
	Col int
}

// WorldGrid is an immutable land/sea raster of the globe.
// Columns wrap modulo Width; rows do not wrap.
// A WorldGrid is safe for concurrent use once constructed.
type WorldGrid struct {
	resolution float64
	width      int
	height     int
	land       []bool
}

// ValidateResolution checks that res evenly divides both 180 and 360
func ValidateResolution(res float64) error {
	if math.IsNaN(res) || math.IsInf(res, 0) || res <= 0 {
		return fmt.Errorf("%w: %v must be a positive number of degrees", ErrInvalidResolution, res)
	}
	if res > 180 {
		return fmt.Errorf("%w: %v exceeds 180 degrees", ErrInvalidResolution, res)
	}
	for _, span := range []float64{180, 360} {
		n := span / res
		if math.Abs(n-math.Round(n)) > divisibilityEpsilon {
			return fmt.Errorf("%w: %v does not evenly divide %v", ErrInvalidResolution, res, span)
		}
	}
	return nil
}

// New builds a grid at the given resolution, classifying every cell's
// representative point (lat = 90 - row*res, lng = -180 + col*res).
func New(resolution float64, classifier LandClassifier) (*WorldGrid, error) {
	if err := ValidateResolution(resolution); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("land classifier is required")
	}

	g := newEmpty(resolution)
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			pos := g.CellToCoord(Cell{Row: row, Col: col})
			g.land[g.index(row, col)] = classifier.IsLand(pos.Lat, pos.Lng)
		}
	}
	return g, nil
}

// NewFromMask builds a grid from a precomputed row-major land mask
func NewFromMask(resolution float64, mask []bool) (*WorldGrid, error) {
	if err := ValidateResolution(resolution); err != nil {
		return nil, err
	}
	g := newEmpty(resolution)
	if len(mask) != len(g.land) {
		return nil, fmt.Errorf("mask has %d cells, grid needs %d", len(mask), len(g.land))
	}
	copy(g.land, mask)
	return g, nil
}

func newEmpty(resolution float64) *WorldGrid {
	width := int(math.Round(360 / resolution))
	height := int(math.Round(180 / resolution))
	return &WorldGrid{
		resolution: resolution,
		width:      width,
		height:     height,
		land:       make([]bool, width*height),
	}
}

// Resolution returns the cell size in degrees
func (g *WorldGrid) Resolution() float64 { return g.resolution }

// Width returns the number of columns
func (g *WorldGrid) Width() int { return g.width }

// Height returns the number of rows
func (g *WorldGrid) Height() int { return g.height }

func (g *WorldGrid) index(row, col int) int {
	return row*g.width + col
}

// Wrap folds any column index into [0, Width)
func (g *WorldGrid) Wrap(col int) int {
	col %= g.width
	if col < 0 {
		col += g.width
	}
	return col
}

// InBounds reports whether the row exists. Columns always exist after wrapping.
func (g *WorldGrid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.height
}

// IsLand reports the classification of a cell. Out-of-range rows count as land.
func (g *WorldGrid) IsLand(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.land[g.index(c.Row, g.Wrap(c.Col))]
}

// CoordToCell quantizes a coordinate to its nearest representative cell.
// Rows clamp at the poles; columns wrap. The column is rounded like the row,
// not truncated, so lng 2.6 at 5 degrees lands in column 37 rather than 36.
func (g *WorldGrid) CoordToCell(pos models.Coordinate) Cell {
	row := int(math.Round((90 - pos.Lat) / g.resolution))
	if row < 0 {
		row = 0
	}
	if row > g.height-1 {
		row = g.height - 1
	}
	col := int(math.Round((models.NormalizeLongitude(pos.Lng) + 180) / g.resolution))
	return Cell{Row: row, Col: g.Wrap(col)}
}

// CellToCoord returns a cell's representative point, not the original query point
func (g *WorldGrid) CellToCoord(c Cell) models.Coordinate {
	return models.Coordinate{
		Lat: 90 - float64(c.Row)*g.resolution,
		Lng: -180 + float64(g.Wrap(c.Col))*g.resolution,
	}
}

// Neighbors returns the in-bounds 4-connected neighbours in north, south,
// east, west order, land cells included.
func (g *WorldGrid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, 4)
	if c.Row > 0 {
		out = append(out, Cell{Row: c.Row - 1, Col: c.Col})
	}
	if c.Row < g.height-1 {
		out = append(out, Cell{Row: c.Row + 1, Col: c.Col})
	}
	out = append(out,
		Cell{Row: c.Row, Col: g.Wrap(c.Col + 1)},
		Cell{Row: c.Row, Col: g.Wrap(c.Col - 1)},
	)
	return out
}

// SeaNeighbors returns the neighbours a vessel may move into
func (g *WorldGrid) SeaNeighbors(c Cell) []Cell {
	all := g.Neighbors(c)
	out := all[:0]
	for _, n := range all {
		if !g.IsLand(n) {
			out = append(out, n)
		}
	}
	return out
}

// LandCount returns the number of land cells
func (g *WorldGrid) LandCount() int {
	n := 0
	for _, l := range g.land {
		if l {
			n++
		}
	}
	return n
}

// Mask returns a row-major copy of the land classification
func (g *WorldGrid) Mask() []bool {
	out := make([]bool, len(g.land))
	copy(out, g.land)
	return out
}
