package raster

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/render"
)

// elementColors are the label colours of common elements, darkened where
// the usual CPK colour is unreadable on white.
var elementColors = map[string]string{
	"H":  "#808080",
	"C":  "#000000",
	"N":  "#3050f8",
	"O":  "#e00d0d",
	"F":  "#50a040",
	"Cl": "#1fa01f",
	"Br": "#a62929",
	"I":  "#940094",
	"S":  "#b09000",
	"P":  "#ff8000",
	"B":  "#d08080",
	"Si": "#a08060",
	"Na": "#ab5cf2",
	"K":  "#8f40d4",
	"Mg": "#5aa000",
	"Ca": "#3dae00",
	"Fe": "#e06633",
	"Cu": "#c88033",
	"Zn": "#7d80b0",
}

var (
	black = colorful.Color{}
	white = colorful.Color{R: 1, G: 1, B: 1}
)

// atomColor picks the label colour for a.
func atomColor(a mol.Atom, flags render.Flags) color.Color {
	if flags.Has(render.Monochrome) {
		return black
	}
	if flags.Has(render.InternalColor) && a.Color != "" {
		if c, err := colorful.Hex(a.Color); err == nil {
			return readable(c)
		}
	}
	if hex, ok := elementColors[a.Symbol]; ok {
		c, _ := colorful.Hex(hex)
		return c
	}
	return black
}

// readable darkens colours too pale to read on a white background.
func readable(c colorful.Color) colorful.Color {
	l, _, _ := c.Lab()
	if l <= 0.8 {
		return c
	}
	return c.BlendLab(black, 0.4).Clamped()
}
