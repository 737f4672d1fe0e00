// Package coords generates 2D depiction coordinates for structures that
// have none.
//
// [Graphviz] lays the bond graph out with the neato spring model, which
// gives acceptable drawings for small, mostly acyclic structures.
package coords

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/mol"
)

// pointsPerUnit converts Graphviz points to bond-length units.
const pointsPerUnit = 72.0

// Graphviz generates coordinates with the Graphviz neato layout.
type Graphviz struct {
	Logger *log.Logger
}

// NewGraphviz creates a Graphviz generator.
func NewGraphviz(logger *log.Logger) *Graphviz {
	if logger == nil {
		logger = log.Default()
	}
	return &Graphviz{Logger: logger}
}

// Generate assigns x/y coordinates to every atom of m, in place.
// Structures with fewer than two atoms need no layout and are left as is.
func (g *Graphviz) Generate(ctx context.Context, m *mol.Molecule) error {
	if m.NumAtoms() < 2 {
		return nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	graph, err := graphviz.ParseBytes([]byte(ToDOT(m)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "neato layout")
	}

	pos, err := parsePositions(buf.Bytes(), m.NumAtoms())
	if err != nil {
		return err
	}
	for i := range m.Atoms {
		m.Atoms[i].X = pos[i][0] / pointsPerUnit
		m.Atoms[i].Y = pos[i][1] / pointsPerUnit
		m.Atoms[i].Z = 0
	}
	g.Logger.Debug("generated coordinates", "title", m.Title, "atoms", m.NumAtoms())
	return nil
}

// ToDOT converts the bond graph of m to an undirected Graphviz graph with
// one node per atom, named a0, a1, ...
func ToDOT(m *mol.Molecule) string {
	var buf strings.Builder
	buf.WriteString("graph M {\n")
	buf.WriteString("  node [shape=circle, width=0.2, fixedsize=true, label=\"\"];\n")
	buf.WriteString("  edge [len=1.0];\n")
	buf.WriteString("  start=1;\n")
	buf.WriteString("  overlap=false;\n")
	for i := range m.Atoms {
		fmt.Fprintf(&buf, "  a%d;\n", i)
	}
	for _, b := range m.Bonds {
		fmt.Fprintf(&buf, "  a%d -- a%d;\n", b.Begin, b.End)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// nodeRe matches a node group in Graphviz SVG output: its title followed by
// the ellipse drawn for it.
var nodeRe = regexp.MustCompile(`<title>a(\d+)</title>\s*<ellipse[^>]*\bcx="(-?[0-9.]+)"[^>]*\bcy="(-?[0-9.]+)"`)

// parsePositions extracts node centres from SVG. SVG y grows downwards, so
// it is negated.
func parsePositions(svg []byte, n int) ([][2]float64, error) {
	pos := make([][2]float64, n)
	seen := make([]bool, n)
	for _, match := range nodeRe.FindAllSubmatch(svg, -1) {
		i, err := strconv.Atoi(string(match[1]))
		if err != nil || i >= n {
			continue
		}
		x, err := strconv.ParseFloat(string(match[2]), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "layout position of atom %d", i)
		}
		y, err := strconv.ParseFloat(string(match[3]), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "layout position of atom %d", i)
		}
		pos[i] = [2]float64{x, -y}
		seen[i] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, errors.New(errors.ErrCodeRender, "layout has no position for atom %d", i)
		}
	}
	return pos, nil
}
