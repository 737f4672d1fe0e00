// Package table computes the grid a batch of structures is drawn into.
//
// The policy is deterministic and always rounds up, so an auto-derived grid
// never has fewer cells than structures:
//
//   - no structures: a degenerate 0x0 grid
//   - rows and columns both given: used as-is, even if too small or too large
//   - nothing given and one structure: 1x1
//   - nothing given: columns = ceil(sqrt(n)), rows = ceil(n / columns)
//   - only rows given: columns = ceil(n / rows)
//   - only columns given: rows = ceil(n / columns)
package table

import (
	"fmt"
	"math"
)

// Constraints are the caller's requested table dimensions. Zero means unset.
type Constraints struct {
	Rows int
	Cols int
}

// Both reports whether rows and columns are both fixed.
func (c Constraints) Both() bool { return c.Rows > 0 && c.Cols > 0 }

// Capacity returns rows*cols when both are fixed, else 0.
func (c Constraints) Capacity() int {
	if !c.Both() {
		return 0
	}
	return c.Rows * c.Cols
}

// Grid is a resolved table layout.
type Grid struct {
	Rows int
	Cols int
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int { return g.Rows * g.Cols }

// Empty reports whether the grid is degenerate.
func (g Grid) Empty() bool { return g.Rows == 0 || g.Cols == 0 }

// Cell maps a 1-based index to its zero-based row and column, filling rows
// first. Indices past the last cell wrap onto earlier rows.
func (g Grid) Cell(index int) (row, col int) {
	if g.Empty() || index < 1 {
		return 0, 0
	}
	i := (index - 1) % g.Cells()
	return i / g.Cols, i % g.Cols
}

func (g Grid) String() string { return fmt.Sprintf("%dx%d", g.Rows, g.Cols) }

// Resolve computes the grid for count structures.
func Resolve(count int, c Constraints) Grid {
	rows, cols := max(c.Rows, 0), max(c.Cols, 0)
	switch {
	case count <= 0:
		return Grid{}
	case rows > 0 && cols > 0:
		return Grid{Rows: rows, Cols: cols}
	case rows == 0 && cols == 0 && count == 1:
		return Grid{Rows: 1, Cols: 1}
	case rows > 0:
		return Grid{Rows: rows, Cols: ceilDiv(count, rows)}
	case cols > 0:
		return Grid{Rows: ceilDiv(count, cols), Cols: cols}
	}
	cols = int(math.Ceil(math.Sqrt(float64(count))))
	return Grid{Rows: ceilDiv(count, cols), Cols: cols}
}

func ceilDiv(n, d int) int { return (n-1)/d + 1 }
