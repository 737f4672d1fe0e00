// Package convert drives a record source through a batch writer.
//
// The [Controller] reads one record ahead so it can tell the writer which
// record is the last, numbers records from 1, and reacts to the writer's
// outcome: it keeps going while the writer is pending, and stops as soon as
// the writer reports an early stop. Records read but never handed to the
// writer are released.
package convert

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/molgrid/pkg/batch"
	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/options"
)

// Source yields records until it returns io.EOF.
type Source interface {
	Next() (mol.Object, error)
}

// Writer consumes records one at a time.
type Writer interface {
	Submit(ctx context.Context, obj mol.Object, rec batch.Record) (batch.Outcome, error)
}

// Stats summarises one conversion.
type Stats struct {
	Read    int  // records taken from the source
	Written int  // records accepted by the writer
	Batches int  // images emitted
	Stopped bool // the writer stopped the conversion early
}

// Controller runs conversions with a fixed option set.
type Controller struct {
	Options *options.Set
	Logger  *log.Logger
}

// NewController creates a controller passing opts to every record.
func NewController(opts *options.Set, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{Options: opts, Logger: logger}
}

// Convert feeds every record of src to w.
func (c *Controller) Convert(ctx context.Context, src Source, w Writer) (Stats, error) {
	var stats Stats

	cur, err := src.Next()
	if err == io.EOF {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	stats.Read++

	for index := 1; ; index++ {
		if err := ctx.Err(); err != nil {
			cur.Release()
			return stats, err
		}

		next, err := src.Next()
		last := err == io.EOF
		if err != nil && !last {
			cur.Release()
			return stats, err
		}
		if !last {
			stats.Read++
		}

		outcome, err := w.Submit(ctx, cur, batch.Record{Index: index, Last: last, Options: c.Options})
		if err != nil {
			release(next)
			return stats, err
		}
		stats.Written++

		switch outcome {
		case batch.BatchComplete:
			stats.Batches++
		case batch.EarlyStop:
			stats.Batches++
			stats.Stopped = true
			release(next)
			c.Logger.Info("output limit reached, stopping", "written", stats.Written)
			return stats, nil
		}

		if last {
			return stats, nil
		}
		cur = next
	}
}

// ConvertEach hands every structure of src to write individually, numbering
// them from 1. write takes ownership of obj. Non-structure records fail
// with INVALID_INPUT.
func (c *Controller) ConvertEach(ctx context.Context, src Source, write func(ctx context.Context, index int, obj mol.Object) error) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		obj, err := src.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		stats.Read++

		if _, ok := obj.Molecule(); !ok {
			obj.Release()
			return stats, errors.New(errors.ErrCodeInvalidInput, "record %d is not a structure", stats.Read)
		}
		if err := write(ctx, stats.Read, obj); err != nil {
			return stats, err
		}
		stats.Written++
		stats.Batches++
	}
}

func release(obj mol.Object) {
	if obj != nil {
		obj.Release()
	}
}
