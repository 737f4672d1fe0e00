package mol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ethanol() *Molecule {
	return &Molecule{
		Title: "ethanol",
		Atoms: []Atom{{Symbol: "C"}, {Symbol: "C", X: 1}, {Symbol: "O", X: 1.5, Y: 0.87}},
		Bonds: []Bond{{Begin: 0, End: 1, Order: 1}, {Begin: 1, End: 2, Order: 1}},
	}
}

func TestHas2D(t *testing.T) {
	assert.True(t, ethanol().Has2D())
	assert.False(t, (&Molecule{Atoms: []Atom{{Symbol: "C"}, {Symbol: "O"}}}).Has2D())
	assert.False(t, (&Molecule{Atoms: []Atom{{Symbol: "Na"}}}).Has2D())
	assert.False(t, (&Molecule{}).Has2D())
}

func TestCloneIsIndependent(t *testing.T) {
	orig := ethanol()
	orig.Atoms[0].Expanded = []int{1}
	orig.Release()

	c := orig.Clone()
	c.Atoms[0].X = 42
	c.Atoms[0].Expanded[0] = 2
	c.Bonds[0].Order = 2

	assert.Equal(t, 0.0, orig.Atoms[0].X)
	assert.Equal(t, []int{1}, orig.Atoms[0].Expanded)
	assert.Equal(t, 1, orig.Bonds[0].Order)
	assert.False(t, c.Released(), "clone must not inherit release state")
}

func TestDegree(t *testing.T) {
	m := ethanol()
	assert.Equal(t, 1, m.Degree(0))
	assert.Equal(t, 2, m.Degree(1))
	assert.Equal(t, 1, m.Degree(2))
}

func TestRemoveAtoms(t *testing.T) {
	m := ethanol()
	m.Atoms[0].Expanded = []int{2}
	m.RemoveAtoms(map[int]bool{1: true})

	require.Len(t, m.Atoms, 2)
	assert.Equal(t, "C", m.Atoms[0].Symbol)
	assert.Equal(t, "O", m.Atoms[1].Symbol)
	assert.Empty(t, m.Bonds)
	assert.Equal(t, []int{1}, m.Atoms[0].Expanded)
}

func TestObjectCapability(t *testing.T) {
	var obj Object = ethanol()
	m, ok := obj.Molecule()
	require.True(t, ok)
	assert.Equal(t, "ethanol", m.Title)

	obj = &Unsupported{Kind: "reaction"}
	_, ok = obj.Molecule()
	assert.False(t, ok)
}

func TestReleaseIdempotent(t *testing.T) {
	m := ethanol()
	m.Release()
	m.Release()
	assert.True(t, m.Released())
}
