package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/molgrid/pkg/alias"
	"github.com/matzehuels/molgrid/pkg/batch"
	"github.com/matzehuels/molgrid/pkg/cache"
	"github.com/matzehuels/molgrid/pkg/convert"
	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/render"
	"github.com/matzehuels/molgrid/pkg/render/raster"
)

// Runner turns a JSON record stream into images, memoising whole results in
// a cache. The CLI and the HTTP server share it.
//
// Execute keeps no state on the Runner itself, so one Runner may serve
// concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Coords render.CoordGenerator // nil makes structures without coordinates fail with CONFIGURATION
	Logger *log.Logger
}

// NewRunner returns a Runner. Nil arguments fall back to a NullCache, the
// default keyer and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	r := &Runner{Cache: c, Keyer: keyer, Logger: logger}
	if r.Cache == nil {
		r.Cache = cache.NewNullCache()
	}
	if r.Keyer == nil {
		r.Keyer = cache.NewDefaultKeyer()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// cachedResult is what the cache holds for one Execute.
type cachedResult struct {
	Images [][]byte      `json:"images"`
	Stats  convert.Stats `json:"stats"`
}

// Execute renders input, or returns the cached images of an identical
// earlier call unless opts.Refresh is set. Cache failures are logged and
// never fail the call.
func (r *Runner) Execute(ctx context.Context, input []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	key := r.Keyer.ImageKey(cache.Hash(input), opts.ImageKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, key); ok {
			opts.Logger.Debug("served from cache", "images", len(cached.Images))
			return &Result{
				Images:      cached.Images,
				ContentType: raster.ContentType(opts.ImageFormat()),
				Stats:       Stats{Stats: cached.Stats, Duration: time.Since(start)},
				CacheHit:    true,
			}, nil
		}
	}

	result, err := r.Render(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.Duration = time.Since(start)
	r.store(ctx, key, result)

	opts.Logger.Info("rendered images",
		"images", len(result.Images),
		"structures", result.Stats.Written,
		"stopped", result.Stats.Stopped,
		"duration", result.Stats.Duration)
	return result, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (cachedResult, bool) {
	var cached cachedResult
	data, hit, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil:
		r.Logger.Warn("cache lookup failed", "key", key, "err", err)
		return cached, false
	case !hit:
		return cached, false
	}
	if err := json.Unmarshal(data, &cached); err != nil {
		r.Logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		return cached, false
	}
	return cached, true
}

func (r *Runner) store(ctx context.Context, key string, result *Result) {
	data, err := json.Marshal(cachedResult{Images: result.Images, Stats: result.Stats.Stats})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		r.Logger.Warn("cache store failed", "key", key, "err", err)
	}
}

// Render converts input without consulting the cache.
func (r *Runner) Render(ctx context.Context, input []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	format := opts.ImageFormat()
	painter := raster.New(raster.WithFormat(format))

	var out bytes.Buffer
	renderOpts := []render.Option{
		render.WithAliasConverter(alias.Converter{}),
		render.WithLogger(opts.Logger),
	}
	if r.Coords != nil {
		renderOpts = append(renderOpts, render.WithCoordGenerator(r.Coords))
	}
	renderer := render.New(painter, &out, renderOpts...)
	acc := batch.NewAccumulator(renderer, batch.WithLogger(opts.Logger))
	defer acc.Close()

	ctrl := convert.NewController(opts.Options, opts.Logger)
	src := mol.NewJSONSource(bytes.NewReader(input))
	result := &Result{ContentType: raster.ContentType(format)}

	var (
		stats convert.Stats
		err   error
	)
	if opts.Split {
		stats, err = ctrl.ConvertEach(ctx, src, func(ctx context.Context, _ int, obj mol.Object) error {
			var img bytes.Buffer
			renderer.SetOutput(&img)
			if err := acc.WriteOne(ctx, obj, opts.Options); err != nil {
				return err
			}
			result.Images = append(result.Images, img.Bytes())
			return nil
		})
	} else {
		stats, err = ctrl.Convert(ctx, src, acc)
		if out.Len() > 0 {
			result.Images = append(result.Images, out.Bytes())
		}
	}
	if err != nil {
		return nil, err
	}
	if stats.Read == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input contains no records")
	}

	result.Stats.Stats = stats
	return result, nil
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache == nil {
		return nil
	}
	return r.Cache.Close()
}

// applyLogger gives opts the runner's logger unless it carries its own.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
