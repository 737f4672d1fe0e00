package table

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		count int
		c     Constraints
		want  Grid
	}{
		{"empty", 0, Constraints{}, Grid{}},
		{"empty with constraints", 0, Constraints{Rows: 2, Cols: 3}, Grid{}},
		{"single", 1, Constraints{}, Grid{1, 1}},
		{"two", 2, Constraints{}, Grid{1, 2}},
		{"square", 9, Constraints{}, Grid{3, 3}},
		{"ten", 10, Constraints{}, Grid{3, 4}},
		{"rows only", 7, Constraints{Rows: 2}, Grid{2, 4}},
		{"cols only", 7, Constraints{Cols: 3}, Grid{3, 3}},
		{"single with rows", 1, Constraints{Rows: 3}, Grid{3, 1}},
		{"both given", 4, Constraints{Rows: 2, Cols: 3}, Grid{2, 3}},
		// explicit geometry is never corrected
		{"both given too small", 5, Constraints{Rows: 1, Cols: 1}, Grid{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.count, tt.c); got != tt.want {
				t.Errorf("Resolve(%d, %+v) = %v, want %v", tt.count, tt.c, got, tt.want)
			}
		})
	}
}

func TestGridCell(t *testing.T) {
	g := Grid{Rows: 2, Cols: 3}
	want := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	for i, w := range want {
		r, c := g.Cell(i + 1)
		if r != w[0] || c != w[1] {
			t.Errorf("Cell(%d) = (%d, %d), want (%d, %d)", i+1, r, c, w[0], w[1])
		}
	}
	if r, c := (Grid{}).Cell(1); r != 0 || c != 0 {
		t.Errorf("empty grid Cell(1) = (%d, %d), want (0, 0)", r, c)
	}
}

func TestConstraintsCapacity(t *testing.T) {
	if got := (Constraints{Rows: 2, Cols: 3}).Capacity(); got != 6 {
		t.Errorf("Capacity() = %d, want 6", got)
	}
	if got := (Constraints{Rows: 2}).Capacity(); got != 0 {
		t.Errorf("Capacity() = %d, want 0", got)
	}
}

func isqrtCeil(n int) int {
	c := 0
	for c*c < n {
		c++
	}
	return c
}

func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("unconstrained grid is the rounded-up square", prop.ForAll(
		func(n int) bool {
			g := Resolve(n, Constraints{})
			return g.Cols == isqrtCeil(n) && g.Rows == (n+g.Cols-1)/g.Cols
		},
		gen.IntRange(2, 5000),
	))

	properties.Property("rows only derives columns by ceiling division", prop.ForAll(
		func(n, rows int) bool {
			g := Resolve(n, Constraints{Rows: rows})
			return g.Rows == rows && g.Cols == (n+rows-1)/rows
		},
		gen.IntRange(1, 5000),
		gen.IntRange(1, 100),
	))

	properties.Property("cols only derives rows by ceiling division", prop.ForAll(
		func(n, cols int) bool {
			g := Resolve(n, Constraints{Cols: cols})
			return g.Cols == cols && g.Rows == (n+cols-1)/cols
		},
		gen.IntRange(1, 5000),
		gen.IntRange(1, 100),
	))

	properties.Property("auto-derived grids hold every structure", prop.ForAll(
		func(n, rows, cols int) bool {
			return Resolve(n, Constraints{Rows: rows}).Cells() >= n &&
				Resolve(n, Constraints{Cols: cols}).Cells() >= n &&
				Resolve(n, Constraints{}).Cells() >= n
		},
		gen.IntRange(1, 5000),
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
	))

	properties.Property("no structures means no grid", prop.ForAll(
		func(rows, cols int) bool {
			return Resolve(0, Constraints{Rows: rows, Cols: cols}) == Grid{}
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
