package world

import (
	"math"

	"github.com/pthm-cable/herd/host"
)

// MaxQueryResults caps the number of candidates a spatial query considers.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// SpatialGrid buckets entities by horizontal (X/Z) cell for bounded
// neighbour lookups. The grid is a coarse index: callers re-check the exact
// position of every candidate.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]host.Entity
}

// NewSpatialGrid creates a grid covering [0,width) x [0,depth).
func NewSpatialGrid(width, depth, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(depth/cellSize) + 1

	cells := make([][]host.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]host.Entity, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity at the given horizontal position.
func (g *SpatialGrid) Insert(e host.Entity, x, z float64) {
	col, row := g.cell(x, z)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], e)
}

// QueryInto appends to dst every entity in cells overlapping the square of
// half-size radius around (x, z), up to MaxQueryResults in total.
func (g *SpatialGrid) QueryInto(dst []host.Entity, x, z, radius float64, exclude host.Entity) []host.Entity {
	minCol, minRow := g.cell(x-radius, z-radius)
	maxCol, maxRow := g.cell(x+radius, z+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, e := range g.cells[row*g.cols+col] {
				if e == exclude {
					continue
				}
				dst = append(dst, e)
				if len(dst) >= MaxQueryResults {
					return dst
				}
			}
		}
	}
	return dst
}

// cell returns the clamped column and row for a position.
func (g *SpatialGrid) cell(x, z float64) (col, row int) {
	col = clampInt(int(math.Floor(x/g.cellSize)), 0, g.cols-1)
	row = clampInt(int(math.Floor(z/g.cellSize)), 0, g.rows-1)
	return col, row
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
