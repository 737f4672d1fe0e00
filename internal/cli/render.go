package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file path (base path with --split)
	extra   []string // raw -x key[=value] write options
	format  string   // image format, from the output extension if empty
	size    int      // p: cell size in pixels
	width   int      // w: cell width
	height  int      // h: cell height
	cols    int      // c: table columns
	rows    int      // r: table rows
	max     int      // N: structures per image
	split   bool     // one image per structure
	noCache bool     // bypass the image cache
	refresh bool     // re-render and overwrite cached images
}

// renderCommand creates the render command for drawing structures.
//
// Options come from three layers, later ones winning: the config file, the
// convenience flags (--cols, --size, ...) and the raw -x pairs.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Draw structures from a JSON file into an image",
		Long: `Draw the structures of a JSON file (an array or JSON Lines, "-" for stdin)
into a raster image.

Without table options every structure goes into one image. With -x c=N or
-x r=N the structures are arranged in a table and drawing stops once the
table is full; -x N=<n> caps the number of structures. --split writes one
image per structure instead.`,
		Example: `  molgrid render drugs.json -o drugs.png -x c=4 -x r=3
  molgrid render drugs.json --cols 4 --size 250 -x t -x s
  molgrid render drugs.json --split -o out/drug.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringArrayVarP(&opts.extra, "option", "x", nil, "write option key[=value], repeatable (e.g. -x c=3 -x t)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "image format: png (default), jpg, gif, tiff, bmp")
	cmd.Flags().IntVarP(&opts.size, "size", "p", 0, "cell size in pixels (default 300)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "cell width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "cell height in pixels")
	cmd.Flags().IntVarP(&opts.cols, "cols", "c", 0, "table columns")
	cmd.Flags().IntVarP(&opts.rows, "rows", "r", 0, "table rows")
	cmd.Flags().IntVarP(&opts.max, "max", "N", 0, "maximum structures per image")
	cmd.Flags().BoolVar(&opts.split, "split", false, "write one image per structure")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached images")

	return cmd
}

// runRender draws the structures in path and writes the image files.
func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	set, err := c.buildOptionSet(opts)
	if err != nil {
		return err
	}
	format, err := c.resolveFormat(opts)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = defaultOutput(path, format)
	}
	if err := errors.ValidateOutputPath(output); err != nil {
		return err
	}

	input, err := readInput(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	logger.Debug("rendering", "input", path, "options", set.String(), "format", format, "split", opts.split)
	result, err := runner.Execute(ctx, input, pipeline.Options{
		Options: set,
		Format:  format,
		Split:   opts.split,
		Refresh: opts.refresh,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	prog.done("Rendered structures", "structures", result.Stats.Written, "cached", result.CacheHit)

	paths := outputPaths(output, len(result.Images))
	if err := writeImages(paths, result.Images); err != nil {
		return err
	}

	printSuccess("Wrote %d image(s)", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.Written, result.Stats.Batches, result.CacheHit)
	if result.Stats.Stopped {
		printWarning("Table full after %d structures, remaining input skipped", result.Stats.Written)
	}
	return nil
}

// buildOptionSet layers the convenience flags and -x pairs over the config
// defaults.
func (c *CLI) buildOptionSet(opts renderOpts) (*options.Set, error) {
	defaults, err := c.defaultOptions()
	if err != nil {
		return nil, err
	}

	var pairs []string
	add := func(key string, v int) {
		if v != 0 {
			pairs = append(pairs, key+"="+strconv.Itoa(v))
		}
	}
	add(options.Size, opts.size)
	add(options.Width, opts.width)
	add(options.Height, opts.height)
	add(options.Cols, opts.cols)
	add(options.Rows, opts.rows)
	add(options.MaxCount, opts.max)
	pairs = append(pairs, opts.extra...)

	flags, err := options.Parse(pairs)
	if err != nil {
		return nil, err
	}
	return defaults.Merge(flags), nil
}

// resolveFormat picks the image format: --format, then the output file's
// extension, then the config file, then png.
func (c *CLI) resolveFormat(opts renderOpts) (string, error) {
	format := strings.ToLower(opts.format)
	if format == "" && opts.output != "" {
		if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.output)), "."); pipeline.ValidFormats[ext] {
			format = ext
		}
	}
	if format == "" {
		format = c.settings().Render.Format
	}
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

// defaultOutput derives an output path from the input path.
func defaultOutput(input, format string) string {
	if input == "-" {
		return "molgrid." + format
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return base + "." + format
}

// outputPaths returns n file names for output. A single image uses output
// as is; several are numbered from 1: out_1.png, out_2.png, ...
func outputPaths(output string, n int) []string {
	if n == 1 {
		return []string{output}
	}
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s_%d%s", base, i+1, ext)
	}
	return paths
}

// writeImages writes each image to the matching path, creating parent
// directories as needed.
func writeImages(paths []string, images [][]byte) error {
	for i, p := range paths {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
			}
		}
		if err := os.WriteFile(p, images[i], 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", p)
		}
	}
	return nil
}

// readInput reads the input file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return data, nil
}
