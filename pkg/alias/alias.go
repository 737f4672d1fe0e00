// Package alias collapses expanded functional groups back to their alias
// labels ("COOH", "Ph", "OMe") for display.
package alias

import "github.com/matzehuels/molgrid/pkg/mol"

// Converter implements render.AliasConverter.
type Converter struct{}

// RevertToAliasForm removes the atoms each alias stands for, leaving only
// the aliased atom, which is then drawn with its alias label. Atoms without
// an alias, and aliases with nothing expanded, are left untouched.
func (Converter) RevertToAliasForm(m *mol.Molecule) {
	drop := map[int]bool{}
	for i, a := range m.Atoms {
		if a.Alias == "" {
			continue
		}
		for _, j := range a.Expanded {
			if j != i && j >= 0 && j < len(m.Atoms) {
				drop[j] = true
			}
		}
	}
	if len(drop) == 0 {
		return
	}

	for i := range m.Atoms {
		if m.Atoms[i].Alias != "" && !drop[i] {
			m.Atoms[i].Expanded = nil
			m.Atoms[i].HCount = 0
		}
	}
	m.RemoveAtoms(drop)
}
