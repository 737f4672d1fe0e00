// Package batch buffers the structures of a conversion until the image they
// share can be laid out.
//
// The grid of a table image depends on how many structures it holds, so the
// writer cannot draw anything until it has seen the last record of a batch.
// An [Accumulator] is handed one record at a time by the streaming
// controller and answers with an [Outcome]:
//
//   - [Pending]: the structure was buffered, keep going.
//   - [BatchComplete]: the controller flagged the record as last; the image
//     has been written.
//   - [EarlyStop]: the batch reached its maximum size (r×c, or N) before the
//     input ended. The image has been written and the controller should stop
//     reading. This is not an error.
//
// Every buffered record is owned by the accumulator and released exactly
// once, whether the batch is rendered or aborted.
package batch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/observability"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/table"
)

// Outcome tells the streaming controller how to proceed after a record.
type Outcome int

const (
	Pending Outcome = iota
	BatchComplete
	EarlyStop
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case BatchComplete:
		return "complete"
	case EarlyStop:
		return "early-stop"
	}
	return "unknown"
}

// Record describes where a submitted object sits in the upstream sequence.
type Record struct {
	Index   int          // 1-based position in the controller's output
	Last    bool         // the controller has no further records
	Options *options.Set // read only when a batch starts
}

// Renderer draws a complete batch into one image.
type Renderer interface {
	RenderAll(ctx context.Context, mols []*mol.Molecule, grid table.Grid, opts *options.Set) error
}

// Batch is the state of one table image under construction.
type Batch struct {
	ID          string
	Constraints table.Constraints
	MaxCount    int // 0 means unbounded
	Options     *options.Set
	Started     time.Time

	objects []mol.Object
	mols    []*mol.Molecule
}

// Len returns the number of buffered structures.
func (b *Batch) Len() int { return len(b.mols) }

// full reports whether the batch reached its maximum size.
func (b *Batch) full() bool { return b.MaxCount > 0 && len(b.mols) >= b.MaxCount }

// release frees every buffered object.
func (b *Batch) release() {
	for _, o := range b.objects {
		o.Release()
	}
	b.objects = nil
	b.mols = nil
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithLogger sets the accumulator's logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Accumulator) { a.logger = l }
}

// Accumulator collects structures into batches and hands complete batches
// to a Renderer. It holds at most one open batch and is not safe for
// concurrent use; each conversion job creates its own.
type Accumulator struct {
	renderer Renderer
	logger   *log.Logger
	batch    *Batch
}

// NewAccumulator creates an accumulator rendering through r.
func NewAccumulator(r Renderer, opts ...Option) *Accumulator {
	a := &Accumulator{renderer: r}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	return a
}

// Submit buffers obj and renders the batch once it is complete.
//
// A record with Index <= 1 starts a new batch and reads the r, c and N
// options. A record that is not a structure aborts the batch with an
// INVALID_INPUT error; obj and everything buffered so far are released and
// no image is written. A render failure is returned as is, after the batch
// has been released.
func (a *Accumulator) Submit(ctx context.Context, obj mol.Object, rec Record) (Outcome, error) {
	if rec.Index <= 1 {
		a.begin(ctx, rec.Options, true)
	} else if a.batch == nil {
		// Records that follow a finished batch without the index being
		// reset form an unconstrained batch of their own.
		a.begin(ctx, rec.Options, false)
	}

	m, ok := obj.Molecule()
	if !ok {
		obj.Release()
		err := errors.New(errors.ErrCodeInvalidInput, "record %d is not a structure", rec.Index)
		a.abort(ctx, err)
		return Pending, err
	}

	b := a.batch
	b.objects = append(b.objects, obj)
	b.mols = append(b.mols, m)

	count, full := b.Len(), b.full()
	if !rec.Last && !full {
		return Pending, nil
	}

	if err := a.flush(ctx); err != nil {
		return Pending, err
	}
	if full && !rec.Last {
		observability.Batch().OnEarlyStop(ctx, b.ID, count)
		a.logger.Debug("batch full, stopping early", "batch", b.ID, "count", count)
		return EarlyStop, nil
	}
	return BatchComplete, nil
}

// WriteOne renders obj on its own as a 1x1 table, independent of any
// buffered batch. obj is released before returning.
func (a *Accumulator) WriteOne(ctx context.Context, obj mol.Object, opts *options.Set) error {
	defer obj.Release()

	m, ok := obj.Molecule()
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "record is not a structure")
	}
	return a.renderer.RenderAll(ctx, []*mol.Molecule{m}, table.Grid{Rows: 1, Cols: 1}, opts)
}

// Pending returns the number of structures waiting in the open batch.
func (a *Accumulator) Pending() int {
	if a.batch == nil {
		return 0
	}
	return a.batch.Len()
}

// Close discards the open batch, if any, releasing its structures.
func (a *Accumulator) Close() {
	if a.batch == nil {
		return
	}
	a.logger.Debug("discarding open batch", "batch", a.batch.ID, "count", a.batch.Len())
	a.batch.release()
	a.batch = nil
}

func (a *Accumulator) begin(ctx context.Context, opts *options.Set, constrained bool) {
	if a.batch != nil {
		a.batch.release()
	}

	b := &Batch{
		ID:      uuid.NewString(),
		Options: opts,
		Started: time.Now(),
	}
	if constrained {
		b.Constraints.Rows, _ = opts.Int(options.Rows)
		b.Constraints.Cols, _ = opts.Int(options.Cols)
		if b.Constraints.Both() {
			b.MaxCount = b.Constraints.Capacity()
		} else if n, ok := opts.Int(options.MaxCount); ok {
			b.MaxCount = n
		}
	}
	a.batch = b

	observability.Batch().OnBatchStart(ctx, b.ID)
	a.logger.Debug("batch started",
		"batch", b.ID,
		"rows", b.Constraints.Rows,
		"cols", b.Constraints.Cols,
		"max", b.MaxCount)
}

func (a *Accumulator) flush(ctx context.Context) error {
	b := a.batch
	a.batch = nil
	defer b.release()

	count := b.Len()
	grid := table.Resolve(count, b.Constraints)
	a.logger.Debug("rendering batch", "batch", b.ID, "count", count, "grid", grid.String())

	err := a.renderer.RenderAll(ctx, b.mols, grid, b.Options)
	observability.Batch().OnBatchComplete(ctx, b.ID, count, time.Since(b.Started), err)
	if err != nil {
		a.logger.Error("batch failed", "batch", b.ID, "err", err)
		return err
	}
	a.logger.Info("wrote table image", "batch", b.ID, "count", count, "rows", grid.Rows, "cols", grid.Cols)
	return nil
}

func (a *Accumulator) abort(ctx context.Context, err error) {
	b := a.batch
	a.batch = nil
	observability.Batch().OnAbort(ctx, b.ID, b.Len(), err)
	a.logger.Error("batch aborted", "batch", b.ID, "count", b.Len(), "err", err)
	b.release()
}
