// Package rendertest provides in-memory collaborators for testing code that
// drives a render.Renderer.
package rendertest

import (
	"context"
	"fmt"
	"io"

	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/render"
)

// Call is one recorded painter call.
type Call struct {
	Method string
	Args   []any
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Method, c.Args) }

// Painter records every call made to it. WriteImage writes Image to the
// output; DrawErr, if set, is returned from Draw.
type Painter struct {
	Calls   []Call
	Image   []byte
	DrawErr error
}

func (p *Painter) record(method string, args ...any) {
	p.Calls = append(p.Calls, Call{Method: method, Args: args})
}

func (p *Painter) SetWidth(px int)             { p.record("SetWidth", px) }
func (p *Painter) SetHeight(px int)            { p.record("SetHeight", px) }
func (p *Painter) SetTableSize(rows, cols int) { p.record("SetTableSize", rows, cols) }
func (p *Painter) SetIndex(index int)          { p.record("SetIndex", index) }
func (p *Painter) SetTitle(title string)       { p.record("SetTitle", title) }
func (p *Painter) SetPenWidth(width float64)   { p.record("SetPenWidth", width) }

func (p *Painter) Draw(m *mol.Molecule, flags render.Flags) error {
	p.record("Draw", m.Title, flags)
	return p.DrawErr
}

func (p *Painter) WriteImage(w io.Writer) error {
	p.record("WriteImage")
	_, err := w.Write(p.Image)
	return err
}

// Count returns how many times method was called.
func (p *Painter) Count(method string) int {
	n := 0
	for _, c := range p.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Filter returns the calls to method, in order.
func (p *Painter) Filter(method string) []Call {
	var out []Call
	for _, c := range p.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Coords is a coordinate generator that lays atoms out on a line, failing
// for titles listed in Fail.
type Coords struct {
	Fail  map[string]error
	Calls int
}

func (g *Coords) Generate(_ context.Context, m *mol.Molecule) error {
	g.Calls++
	if err, ok := g.Fail[m.Title]; ok {
		return err
	}
	for i := range m.Atoms {
		m.Atoms[i].X = float64(i)
		m.Atoms[i].Y = 0.5
	}
	return nil
}

// Flat returns a structure without coordinates.
func Flat(title string, atoms int) *mol.Molecule {
	m := &mol.Molecule{Title: title}
	for i := 0; i < atoms; i++ {
		m.Atoms = append(m.Atoms, mol.Atom{Symbol: "C"})
		if i > 0 {
			m.Bonds = append(m.Bonds, mol.Bond{Begin: i - 1, End: i, Order: 1})
		}
	}
	return m
}

// Laid returns a structure that already has 2D coordinates.
func Laid(title string, atoms int) *mol.Molecule {
	m := Flat(title, atoms)
	for i := range m.Atoms {
		m.Atoms[i].X = float64(i) + 1
	}
	return m
}
