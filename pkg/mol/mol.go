// Package mol provides the minimal chemical structure model depicted by molgrid.
//
// A [Molecule] is a titled set of atoms with coordinates and the bonds
// between them. It knows nothing about chemistry beyond what a 2D depiction
// needs: element symbols, charges, aliases and bond orders.
//
// Records handed to a format writer are [Object] values. An Object may or
// may not be a depictable structure; writers ask via [Object.Molecule]
// instead of type-switching on concrete types.
package mol

import "slices"

// Atom is a single atom of a molecule.
type Atom struct {
	Symbol string  `json:"symbol"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Z      float64 `json:"z,omitempty"`
	Charge int     `json:"charge,omitempty"`
	HCount int     `json:"h,omitempty"`

	// Alias is a short label (e.g. "COOH") standing for this atom together
	// with the atoms listed in Expanded.
	Alias    string `json:"alias,omitempty"`
	Expanded []int  `json:"expanded,omitempty"`

	// Color is an internally specified colour ("#rrggbb"), e.g. read from CML.
	Color string `json:"color,omitempty"`
}

// Bond connects two atoms by index.
type Bond struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
	Order int `json:"order,omitempty"` // 0 is treated as 1
}

// Molecule is a depictable chemical structure.
type Molecule struct {
	Title string `json:"title,omitempty"`
	Atoms []Atom `json:"atoms"`
	Bonds []Bond `json:"bonds,omitempty"`

	released bool
}

// NumAtoms returns the number of atoms.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// Has2D reports whether the molecule carries a 2D layout, i.e. at least one
// atom sits off the origin. A lone atom at the origin has no layout.
func (m *Molecule) Has2D() bool {
	for _, a := range m.Atoms {
		if a.X != 0 || a.Y != 0 {
			return true
		}
	}
	return false
}

// Degree returns the number of bonds incident to atom i.
func (m *Molecule) Degree(i int) int {
	n := 0
	for _, b := range m.Bonds {
		if b.Begin == i || b.End == i {
			n++
		}
	}
	return n
}

// Clone returns a deep copy. The copy is never marked released.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		Title: m.Title,
		Atoms: make([]Atom, len(m.Atoms)),
		Bonds: slices.Clone(m.Bonds),
	}
	for i, a := range m.Atoms {
		a.Expanded = slices.Clone(a.Expanded)
		c.Atoms[i] = a
	}
	return c
}

// RemoveAtoms deletes the atoms at the given indices together with every
// bond touching them, renumbering the remaining atoms.
func (m *Molecule) RemoveAtoms(drop map[int]bool) {
	if len(drop) == 0 {
		return
	}
	remap := make([]int, len(m.Atoms))
	kept := m.Atoms[:0:0]
	for i, a := range m.Atoms {
		if drop[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, a)
	}
	for i := range kept {
		kept[i].Expanded = remapIndices(kept[i].Expanded, remap)
	}

	bonds := m.Bonds[:0:0]
	for _, b := range m.Bonds {
		if remap[b.Begin] < 0 || remap[b.End] < 0 {
			continue
		}
		bonds = append(bonds, Bond{Begin: remap[b.Begin], End: remap[b.End], Order: b.Order})
	}
	m.Atoms, m.Bonds = kept, bonds
}

func remapIndices(idx []int, remap []int) []int {
	var out []int
	for _, i := range idx {
		if i >= 0 && i < len(remap) && remap[i] >= 0 {
			out = append(out, remap[i])
		}
	}
	return out
}

// Molecule implements Object.
func (m *Molecule) Molecule() (*Molecule, bool) { return m, true }

// Release implements Object. Releasing twice is a no-op.
func (m *Molecule) Release() { m.released = true }

// Released reports whether Release has been called.
func (m *Molecule) Released() bool { return m.released }

// Ensure Molecule implements Object.
var _ Object = (*Molecule)(nil)
