package render

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/table"
)

// Painter is the drawing surface shared by all structures of a batch.
type Painter interface {
	SetWidth(px int)
	SetHeight(px int)
	SetTableSize(rows, cols int)
	SetIndex(index int)
	SetTitle(title string)
	SetPenWidth(width float64)
	Draw(m *mol.Molecule, flags Flags) error
	WriteImage(w io.Writer) error
}

// CoordGenerator computes 2D coordinates in place.
type CoordGenerator interface {
	Generate(ctx context.Context, m *mol.Molecule) error
}

// AliasConverter rewrites a structure so aliased groups appear as their alias.
type AliasConverter interface {
	RevertToAliasForm(m *mol.Molecule)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCoordGenerator sets the 2D coordinate generator. Without one, any
// structure lacking coordinates fails with a configuration error.
func WithCoordGenerator(g CoordGenerator) Option {
	return func(r *Renderer) { r.coords = g }
}

// WithAliasConverter sets the converter used for the A option.
func WithAliasConverter(a AliasConverter) Option {
	return func(r *Renderer) { r.alias = a }
}

// WithLogger sets the logger used for render failures.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// Renderer draws batches of structures onto one painter.
// It is not safe for concurrent use.
type Renderer struct {
	painter Painter
	out     io.Writer
	coords  CoordGenerator
	alias   AliasConverter
	logger  *log.Logger
	logged  map[string]bool
}

// New creates a renderer drawing on p and writing finished images to out.
func New(p Painter, out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{painter: p, out: out, logged: map[string]bool{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// SetOutput redirects subsequent images to w.
func (r *Renderer) SetOutput(w io.Writer) { r.out = w }

// RenderAll draws mols into grid, in order, and writes the image after the
// last one. The first failure aborts the batch; nothing is written then.
func (r *Renderer) RenderAll(ctx context.Context, mols []*mol.Molecule, grid table.Grid, opts *options.Set) error {
	if len(mols) == 0 || grid.Empty() {
		return nil
	}
	for i, m := range mols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderOne(ctx, m, i+1, len(mols), grid, opts); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderOne(ctx context.Context, m *mol.Molecule, index, total int, grid table.Grid, opts *options.Set) error {
	work := m.Clone()

	if !work.Has2D() {
		if r.coords == nil {
			r.logOnce("coordinate generator not found")
			return errors.New(errors.ErrCodeConfiguration, "coordinate generator not found")
		}
		if err := r.coords.Generate(ctx, work); err != nil {
			r.logger.Error("coordinate generation unsuccessful", "title", work.Title, "index", index, "err", err)
			return structureError(work.Title, index, err, "coordinate generation unsuccessful")
		}
	}
	if !work.Has2D() && work.NumAtoms() > 1 {
		r.logger.Error("structure needs 2D coordinates", "title", work.Title, "index", index)
		return structureError(work.Title, index, nil, "needs 2D coordinates")
	}

	s := ResolveSettings(opts, work)
	r.painter.SetTitle(s.Title)
	if index == 1 {
		r.painter.SetWidth(s.Width)
		r.painter.SetHeight(s.Height)
		r.painter.SetTableSize(grid.Rows, grid.Cols)
	}
	r.painter.SetIndex(index)

	if s.Flags.Has(AliasMode) && r.alias != nil {
		r.alias.RevertToAliasForm(work)
	}
	r.painter.SetPenWidth(s.PenWidth)

	if err := r.painter.Draw(work, s.Flags); err != nil {
		if errors.Is(err, errors.ErrCodeInvalidOption) {
			return err
		}
		return structureError(work.Title, index, err, "draw failed")
	}
	r.logger.Debug("drew structure", "index", index, "title", work.Title)

	if index == total {
		if err := r.painter.WriteImage(r.out); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write image")
		}
	}
	return nil
}

func structureError(title string, index int, cause error, msg string) error {
	return errors.Structure(errors.ErrCodeRender, title, cause, "%s", msg).At(index)
}

// logOnce logs msg the first time it is seen by this renderer.
func (r *Renderer) logOnce(msg string) {
	if r.logged[msg] {
		return
	}
	r.logged[msg] = true
	r.logger.Error(msg)
}
