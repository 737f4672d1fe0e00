// Package config loads molgrid's defaults file.
//
// The file is TOML (config.toml) or YAML (config.yaml / config.yml) and is
// looked up in the user config directory, e.g. ~/.config/molgrid/. Every
// setting is optional; values given on the command line win over the file.
//
// Example config.toml:
//
//	[render]
//	size = 400
//	cols = 4
//	format = "png"
//	options = ["t", "s"]
//
//	[cache]
//	location = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/options"
)

// AppName names the config and cache directories.
const AppName = "molgrid"

// Config is the content of the defaults file.
type Config struct {
	Render RenderConfig `toml:"render" yaml:"render"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// RenderConfig holds default write options.
type RenderConfig struct {
	Size    int      `toml:"size" yaml:"size" validate:"omitempty,min=16,max=10000"`
	Width   int      `toml:"width" yaml:"width" validate:"omitempty,min=16,max=10000"`
	Height  int      `toml:"height" yaml:"height" validate:"omitempty,min=16,max=10000"`
	Cols    int      `toml:"cols" yaml:"cols" validate:"omitempty,min=1"`
	Rows    int      `toml:"rows" yaml:"rows" validate:"omitempty,min=1"`
	Max     int      `toml:"max" yaml:"max" validate:"omitempty,min=1"`
	Format  string   `toml:"format" yaml:"format" validate:"omitempty,oneof=png jpg jpeg gif tif tiff bmp"`
	Options []string `toml:"options" yaml:"options" validate:"omitempty,dive,min=1"`

	// NoCoordinates disables 2D coordinate generation.
	NoCoordinates bool `toml:"no_coordinates" yaml:"no_coordinates"`
}

// CacheConfig selects the image cache backend.
type CacheConfig struct {
	// Location is "" (file cache), "none", a redis:// URL or a mongodb:// URI.
	Location string `toml:"location" yaml:"location"`
	Dir      string `toml:"dir" yaml:"dir"`
}

// ServerConfig configures "molgrid serve".
type ServerConfig struct {
	Addr         string `toml:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
	MaxBodyBytes int64  `toml:"max_body_bytes" yaml:"max_body_bytes" validate:"omitempty,min=1"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New()

// Validate checks the configuration's field constraints and option pairs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if _, err := c.Render.OptionSet(); err != nil {
		return err
	}
	return nil
}

// OptionPairs converts the render defaults to "key=value" option pairs.
func (r RenderConfig) OptionPairs() []string {
	var pairs []string
	add := func(key string, v int) {
		if v > 0 {
			pairs = append(pairs, key+"="+strconv.Itoa(v))
		}
	}
	add(options.Size, r.Size)
	add(options.Width, r.Width)
	add(options.Height, r.Height)
	add(options.Cols, r.Cols)
	add(options.Rows, r.Rows)
	add(options.MaxCount, r.Max)
	return append(pairs, r.Options...)
}

// OptionSet parses OptionPairs.
func (r RenderConfig) OptionSet() (*options.Set, error) {
	return options.Parse(r.OptionPairs())
}

// Dir returns the user's molgrid config directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// Load reads the config file at path. The format follows the extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config")
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a config in the format named by ext (".toml", ".yaml",
// ".yml") and validates it.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse TOML config")
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse YAML config")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault loads the first config file found in Dir(). A missing file
// yields an empty configuration.
func LoadDefault() (*Config, string, error) {
	dir, err := Dir()
	if err != nil {
		return &Config{}, "", nil
	}
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		return cfg, path, err
	}
	return &Config{}, "", nil
}

// formatValidationError converts validator errors to an INVALID_OPTION error
// naming the first failing field.
func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "invalid config")
	}

	e := verrs[0]
	field := e.Namespace()
	switch e.Tag() {
	case "min":
		return errors.New(errors.ErrCodeInvalidOption, "%s: must be at least %s", field, e.Param())
	case "max":
		return errors.New(errors.ErrCodeInvalidOption, "%s: must not exceed %s", field, e.Param())
	case "oneof":
		return errors.New(errors.ErrCodeInvalidOption, "%s: must be one of %s", field, e.Param())
	default:
		return errors.New(errors.ErrCodeInvalidOption, "%s: validation failed (%s)", field, e.Tag())
	}
}
