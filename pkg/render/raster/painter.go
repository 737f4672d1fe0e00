// Package raster draws structures with fogleman/gg and encodes the result
// with disintegration/imaging.
//
// A [Painter] holds one canvas per table image. The canvas is allocated on
// the first Draw after the table size is known and is discarded by
// WriteImage, so a painter can be reused for any number of batches.
//
// Each cell is Width×Height pixels; an r×c table produces an image of
// c·Width × r·Height pixels.
package raster

import (
	"image"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/render"
	"github.com/matzehuels/molgrid/pkg/table"
)

const (
	margin      = 12.0
	titleHeight = 20.0
)

// MaxCanvasPixels bounds the area of one table image.
const MaxCanvasPixels = 64 << 20

// Option configures a Painter.
type Option func(*Painter)

// WithFormat sets the image format written by WriteImage (default PNG).
func WithFormat(f imaging.Format) Option {
	return func(p *Painter) { p.format = f }
}

// WithFontFace sets the face used for atom labels and titles.
func WithFontFace(face font.Face) Option {
	return func(p *Painter) { p.face = face }
}

// WithBackground sets the canvas colour.
func WithBackground(c color.Color) Option {
	return func(p *Painter) { p.background = c }
}

// Painter implements render.Painter on an in-memory raster canvas.
type Painter struct {
	cellW, cellH int
	rows, cols   int
	index        int
	title        string
	pen          float64

	format     imaging.Format
	face       font.Face
	background color.Color

	dc *gg.Context
}

// New creates a painter with a single default-sized cell.
func New(opts ...Option) *Painter {
	p := &Painter{
		cellW:      options.DefaultSize,
		cellH:      options.DefaultSize,
		rows:       1,
		cols:       1,
		index:      1,
		pen:        render.ThinPen,
		format:     imaging.PNG,
		face:       basicfont.Face7x13,
		background: white,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Painter) SetWidth(px int)  { p.cellW = px }
func (p *Painter) SetHeight(px int) { p.cellH = px }

func (p *Painter) SetTableSize(rows, cols int) {
	p.rows, p.cols = rows, cols
	p.dc = nil
}

func (p *Painter) SetIndex(index int)        { p.index = index }
func (p *Painter) SetTitle(title string)     { p.title = title }
func (p *Painter) SetPenWidth(width float64) { p.pen = width }

// Size returns the pixel size of the whole image.
func (p *Painter) Size() (width, height int) {
	return max(p.cols, 1) * p.cellW, max(p.rows, 1) * p.cellH
}

// checkSize rejects cell and table sizes whose image would be empty or
// larger than MaxCanvasPixels, without overflowing on the way.
func (p *Painter) checkSize() error {
	if p.cellW <= 0 || p.cellH <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "image size must be positive, got %dx%d", p.cellW, p.cellH)
	}
	cols, rows := max(p.cols, 1), max(p.rows, 1)
	tooBig := p.cellW > MaxCanvasPixels/p.cellH ||
		cols > MaxCanvasPixels/(p.cellW*p.cellH) ||
		rows > MaxCanvasPixels/(p.cellW*p.cellH*cols)
	if tooBig {
		return errors.New(errors.ErrCodeInvalidOption,
			"image of %dx%d cells of %dx%d pixels exceeds %d pixels", rows, cols, p.cellW, p.cellH, MaxCanvasPixels)
	}
	return nil
}

func (p *Painter) canvas() *gg.Context {
	w, h := p.Size()
	if p.dc == nil || p.dc.Width() != w || p.dc.Height() != h {
		p.dc = gg.NewContext(w, h)
		p.dc.SetColor(p.background)
		p.dc.Clear()
	}
	return p.dc
}

// Draw depicts m in the cell selected by the current index.
func (p *Painter) Draw(m *mol.Molecule, flags render.Flags) error {
	if err := p.checkSize(); err != nil {
		return err
	}
	dc := p.canvas()
	grid := table.Grid{Rows: max(p.rows, 1), Cols: max(p.cols, 1)}
	row, col := grid.Cell(p.index)
	cell := cellBox{
		x: float64(col * p.cellW),
		y: float64(row * p.cellH),
		w: float64(p.cellW),
		h: float64(p.cellH),
	}

	dc.Push()
	defer dc.Pop()
	dc.DrawRectangle(cell.x, cell.y, cell.w, cell.h)
	dc.Clip()
	dc.SetFontFace(p.face)
	dc.SetLineWidth(p.pen)
	dc.SetLineCap(gg.LineCapRound)

	pts := fit(m, cell)
	labels := make([]string, len(m.Atoms))
	for i, a := range m.Atoms {
		labels[i] = atomLabel(a, m.Degree(i), flags)
	}

	p.drawBonds(dc, m, pts, labels, flags)
	p.drawLabels(dc, m, pts, labels, flags)
	p.drawTitle(dc, cell)
	return nil
}

func (p *Painter) drawBonds(dc *gg.Context, m *mol.Molecule, pts []point, labels []string, flags render.Flags) {
	gap := max(3.0, p.pen*2.5)
	shrink := float64(p.face.Metrics().Height.Ceil()) * 0.6

	dc.SetColor(black)
	for _, b := range m.Bonds {
		if b.Begin < 0 || b.End < 0 || b.Begin >= len(pts) || b.End >= len(pts) {
			continue
		}
		a, z := pts[b.Begin], pts[b.End]
		if labels[b.Begin] != "" {
			a = a.toward(z, shrink)
		}
		if labels[b.End] != "" {
			z = z.toward(a, shrink)
		}
		nx, ny := a.normal(z)

		switch b.Order {
		case 2:
			if flags.Has(render.AsymmetricDoubleBond) {
				line(dc, a, z)
				ia, iz := a.offset(nx, ny, gap).shorten(z.offset(nx, ny, gap), 0.15)
				line(dc, ia, iz)
			} else {
				line(dc, a.offset(nx, ny, gap/2), z.offset(nx, ny, gap/2))
				line(dc, a.offset(nx, ny, -gap/2), z.offset(nx, ny, -gap/2))
			}
		case 3:
			line(dc, a, z)
			line(dc, a.offset(nx, ny, gap), z.offset(nx, ny, gap))
			line(dc, a.offset(nx, ny, -gap), z.offset(nx, ny, -gap))
		default:
			line(dc, a, z)
		}
	}
}

func (p *Painter) drawLabels(dc *gg.Context, m *mol.Molecule, pts []point, labels []string, flags render.Flags) {
	for i, text := range labels {
		if text == "" {
			continue
		}
		w, h := dc.MeasureString(text)
		pt := pts[i]
		dc.SetColor(p.background)
		dc.DrawRectangle(pt.x-w/2-1, pt.y-h/2-1, w+2, h+2)
		dc.Fill()
		dc.SetColor(atomColor(m.Atoms[i], flags))
		dc.DrawStringAnchored(text, pt.x, pt.y, 0.5, 0.35)
	}
}

func (p *Painter) drawTitle(dc *gg.Context, cell cellBox) {
	if p.title == "" {
		return
	}
	dc.SetColor(black)
	dc.DrawStringAnchored(p.title, cell.x+cell.w/2, cell.y+cell.h-titleHeight/2, 0.5, 0.35)
}

// WriteImage encodes the canvas to w and discards it.
func (p *Painter) WriteImage(w io.Writer) error {
	if p.dc == nil {
		return errors.New(errors.ErrCodeInternal, "no structure drawn")
	}
	img := p.dc.Image()
	p.dc = nil
	return Encode(w, img, p.format)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f imaging.Format) error {
	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(92)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", f)
	}
	return nil
}

// ParseFormat maps a format name or file extension ("png", ".jpg") to an
// image format.
func ParseFormat(name string) (imaging.Format, error) {
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unsupported image format %q", name)
	}
	return f, nil
}

// ContentType returns the MIME type of images in format f.
func ContentType(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	}
	return "image/png"
}

// atomLabel returns the text drawn at an atom, or "" for a bare vertex.
func atomLabel(a mol.Atom, degree int, flags render.Flags) string {
	if flags.Has(render.AliasMode) && a.Alias != "" {
		return a.Alias
	}
	show := a.Symbol != "C" ||
		a.Charge != 0 ||
		degree == 0 ||
		flags.Has(render.DrawAllC) ||
		(degree == 1 && flags.Has(render.DrawTerminalC))
	if !show {
		return ""
	}

	text := a.Symbol
	if a.HCount > 0 {
		text += "H"
		if a.HCount > 1 {
			text += strconv.Itoa(a.HCount)
		}
	}
	switch {
	case a.Charge == 1:
		text += "+"
	case a.Charge == -1:
		text += "-"
	case a.Charge > 1:
		text += strconv.Itoa(a.Charge) + "+"
	case a.Charge < -1:
		text += strconv.Itoa(-a.Charge) + "-"
	}
	return text
}

type cellBox struct{ x, y, w, h float64 }

type point struct{ x, y float64 }

func (p point) offset(nx, ny, d float64) point { return point{p.x + nx*d, p.y + ny*d} }

// normal returns the unit normal of the segment p→q.
func (p point) normal(q point) (float64, float64) {
	dx, dy := q.x-p.x, q.y-p.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return 0, 0
	}
	return -dy / l, dx / l
}

// toward moves p by d in the direction of q, never past the midpoint.
func (p point) toward(q point, d float64) point {
	dx, dy := q.x-p.x, q.y-p.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return p
	}
	d = math.Min(d, l/2)
	return point{p.x + dx/l*d, p.y + dy/l*d}
}

// shorten trims a fraction f of the segment p→q from both ends.
func (p point) shorten(q point, f float64) (point, point) {
	dx, dy := (q.x-p.x)*f, (q.y-p.y)*f
	return point{p.x + dx, p.y + dy}, point{q.x - dx, q.y - dy}
}

func line(dc *gg.Context, a, b point) {
	dc.DrawLine(a.x, a.y, b.x, b.y)
	dc.Stroke()
}

// fit maps atom coordinates into the drawing area of cell, keeping the
// aspect ratio and flipping y so that up is up.
func fit(m *mol.Molecule, cell cellBox) []point {
	pts := make([]point, len(m.Atoms))
	if len(m.Atoms) == 0 {
		return pts
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, a := range m.Atoms {
		minX, maxX = math.Min(minX, a.X), math.Max(maxX, a.X)
		minY, maxY = math.Min(minY, a.Y), math.Max(maxY, a.Y)
	}

	areaW := math.Max(cell.w-2*margin, 1)
	areaH := math.Max(cell.h-2*margin-titleHeight, 1)
	maxBond := math.Min(areaW, areaH) / 3

	scale := maxBond
	if dx := maxX - minX; dx > 0 {
		scale = math.Min(scale, areaW/dx)
	}
	if dy := maxY - minY; dy > 0 {
		scale = math.Min(scale, areaH/dy)
	}

	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	ox := cell.x + cell.w/2
	oy := cell.y + margin + areaH/2
	for i, a := range m.Atoms {
		pts[i] = point{ox + (a.X-cx)*scale, oy - (a.Y-cy)*scale}
	}
	return pts
}

var _ render.Painter = (*Painter)(nil)
