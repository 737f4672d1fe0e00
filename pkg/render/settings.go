package render

import (
	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/options"
)

// Flags select depiction features.
type Flags uint

const (
	// DrawTerminalC draws terminal carbons (and their hydrogens) explicitly.
	DrawTerminalC Flags = 1 << iota
	// DrawAllC draws every carbon atom.
	DrawAllC
	// Monochrome disables element-specific atom colouring.
	Monochrome
	// InternalColor honours colours carried by the atoms themselves.
	InternalColor
	// AsymmetricDoubleBond draws the second line of a double bond on one side.
	AsymmetricDoubleBond
	// AliasMode draws alias labels instead of expanded groups.
	AliasMode
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Pen widths for the t option.
const (
	ThinPen  = 1.0
	ThickPen = 4.0
)

// Settings are the per-structure render settings derived from a job's options.
type Settings struct {
	Width    int
	Height   int
	Title    string
	Flags    Flags
	PenWidth float64
}

// ResolveSettings derives the settings for one structure.
//
// The d option is accepted but does not hide the title: the title is the
// structure's own in both cases.
func ResolveSettings(opts *options.Set, m *mol.Molecule) Settings {
	size := opts.IntOr(options.Size, options.DefaultSize)
	s := Settings{
		Width:    opts.IntOr(options.Width, size),
		Height:   opts.IntOr(options.Height, size),
		Title:    m.Title, // shown whether or not d is set
		PenWidth: ThinPen,
	}

	if !opts.Has(options.NoTerminalC) {
		s.Flags |= DrawTerminalC
	}
	if opts.Has(options.AllCarbons) {
		s.Flags |= DrawAllC
	}
	if opts.Has(options.ShowAliases) {
		s.Flags |= AliasMode
	}
	if opts.Has(options.ThickPen) {
		s.PenWidth = ThickPen
	}
	if opts.Has(options.Monochrome) {
		s.Flags |= Monochrome
	}
	if !opts.Has(options.NoInternal) {
		s.Flags |= InternalColor
	}
	if opts.Has(options.Asymmetric) {
		s.Flags |= AsymmetricDoubleBond
	}
	return s
}
