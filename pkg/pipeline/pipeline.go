// Package pipeline provides the conversion pipeline shared by the CLI and
// the HTTP API: JSON records in, table images out.
//
// By centralizing the wiring of source, accumulator, renderer, painter and
// controller here, every entry point behaves the same.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	set, _ := options.Parse([]string{"c=3", "t"})
//	opts := pipeline.Options{Options: set, Format: "png"}
//	result, err := runner.Execute(ctx, input, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Images[0]
//
// With Split set, every structure is written to its own 1x1 image instead
// of one table.
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/molgrid/pkg/cache"
	"github.com/matzehuels/molgrid/pkg/convert"
	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/render/raster"
)

// DefaultFormat is the image format used when none is given.
const DefaultFormat = "png"

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"tif":  true,
	"tiff": true,
	"bmp":  true,
}

// ValidateFormat checks if a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be png, jpg, gif, tiff or bmp)", format)
	}
	return nil
}

// Options configures one pipeline run.
type Options struct {
	Options *options.Set // write options
	Format  string       // image format, DefaultFormat if empty
	Split   bool         // one image per structure
	Refresh bool         // ignore cached images

	Logger *log.Logger
}

// ValidateAndSetDefaults fills in defaults and validates the options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Options == nil {
		o.Options = options.New()
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	return ValidateFormat(o.Format)
}

// ImageFormat returns the encoder format for o.Format.
func (o *Options) ImageFormat() imaging.Format {
	f, err := raster.ParseFormat(o.Format)
	if err != nil {
		return imaging.PNG
	}
	return f
}

// ImageKeyOpts returns the cache key options for this run.
func (o *Options) ImageKeyOpts() cache.ImageKeyOpts {
	return cache.ImageKeyOpts{
		Options: o.Options.String(),
		Format:  o.ImageFormat().String(),
		Split:   o.Split,
	}
}

// Stats describes a pipeline run.
type Stats struct {
	convert.Stats
	Duration time.Duration
}

// Result is the output of a pipeline run.
type Result struct {
	Images      [][]byte
	ContentType string
	Stats       Stats
	CacheHit    bool
}
