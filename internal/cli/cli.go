package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/molgrid/pkg/cache"
	"github.com/matzehuels/molgrid/pkg/config"
	"github.com/matzehuels/molgrid/pkg/coords"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// cacheKeyType labels cache metrics for rendered images.
	cacheKeyType = "image"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config holds the defaults file, loaded before each command runs.
	Config     *config.Config
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: &config.Config{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the file named by --config, or the default config file.
// A level from the file only applies while the logger is at its default.
func (c *CLI) loadConfig() error {
	var (
		cfg  *config.Config
		path = c.configPath
		err  error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	c.Config = cfg
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}

	if lvl := cfg.Log.Level; lvl != "" && c.Logger.GetLevel() == LogInfo {
		if parsed, err := log.ParseLevel(lvl); err == nil {
			c.SetLogLevel(parsed)
		}
	}
	return nil
}

// settings returns the loaded configuration, never nil.
func (c *CLI) settings() *config.Config {
	if c.Config == nil {
		c.Config = &config.Config{}
	}
	return c.Config
}

// defaultOptions returns the write options of the config file.
func (c *CLI) defaultOptions() (*options.Set, error) {
	return c.settings().Render.OptionSet()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cache.Instrument(cc, cacheKeyType), nil, c.Logger)
	if !c.settings().Render.NoCoordinates {
		runner.Coords = coords.NewGraphviz(c.Logger)
	}
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	location := c.settings().Cache.Location
	if location != "" {
		return cache.Open(ctx, location, "")
	}
	dir, err := c.fileCacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, "", dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/molgrid/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// fileCacheDir returns the directory of the local file cache.
func (c *CLI) fileCacheDir() (string, error) {
	if dir := c.settings().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cacheDir()
}
