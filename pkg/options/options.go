// Package options holds the write options of a conversion job.
//
// Options are the single-letter switches of the depiction writer, with an
// optional value: "-x p=500", "-x C", "-x c=3". A [Set] is filled once per
// job by the streaming controller and read by the writer; it is never
// modified while a batch is being accumulated.
//
// Recognised keys:
//
//	p <pixels>  image size, default 300
//	w <pixels>  image width, default is the size
//	h <pixels>  image height, default is the size
//	c <n>       number of columns in the table
//	r <n>       number of rows in the table
//	N <n>       maximum number of structures in one image
//	u           no element-specific atom colouring
//	U           do not use internally-specified colours
//	C           do not draw terminal carbons explicitly
//	a           draw all carbon atoms
//	d           do not display the title (accepted, currently has no effect)
//	s           use asymmetric double bonds
//	t           use thicker lines
//	A           display aliases, if present
package options

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/molgrid/pkg/errors"
)

// Option keys.
const (
	Size        = "p"
	Width       = "w"
	Height      = "h"
	Cols        = "c"
	Rows        = "r"
	MaxCount    = "N"
	Monochrome  = "u"
	NoInternal  = "U"
	NoTerminalC = "C"
	AllCarbons  = "a"
	HideTitle   = "d"
	Asymmetric  = "s"
	ThickPen    = "t"
	ShowAliases = "A"
)

// DefaultSize is the image size used when neither p, w nor h is given.
const DefaultSize = 300

// intKeys take a positive integer value.
var intKeys = map[string]bool{Size: true, Width: true, Height: true, Cols: true, Rows: true, MaxCount: true}

// pixelKeys are the intKeys measured in pixels.
var pixelKeys = map[string]bool{Size: true, Width: true, Height: true}

// flagKeys take no value.
var flagKeys = map[string]bool{
	Monochrome: true, NoInternal: true, NoTerminalC: true, AllCarbons: true,
	HideTitle: true, Asymmetric: true, ThickPen: true, ShowAliases: true,
}

// Known reports whether key is a recognised option.
func Known(key string) bool { return intKeys[key] || flagKeys[key] }

// Set is a collection of write options.
type Set struct {
	values map[string]string
	ints   map[string]int
}

// New creates an empty option set.
func New() *Set {
	return &Set{values: map[string]string{}, ints: map[string]int{}}
}

// Parse builds a set from "key" or "key=value" pairs.
func Parse(pairs []string) (*Set, error) {
	s := New()
	for _, p := range pairs {
		key, value, _ := strings.Cut(strings.TrimSpace(p), "=")
		if err := s.Add(key, value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add stores an option, replacing any previous value.
// Integer options are validated here so readers never see a bad value.
func (s *Set) Add(key, value string) error {
	if err := errors.ValidateOptionKey(key); err != nil {
		return err
	}
	if !Known(key) {
		return errors.New(errors.ErrCodeInvalidOption, "unknown option %q", key)
	}
	if intKeys[key] {
		validate := errors.ValidatePositiveInt
		if pixelKeys[key] {
			validate = errors.ValidatePixelSize
		}
		n, err := validate(key, value)
		if err != nil {
			return err
		}
		s.ints[key] = n
		value = strconv.Itoa(n)
	} else if value != "" {
		return errors.New(errors.ErrCodeInvalidOption, "option %s takes no value, got %q", key, value)
	}
	s.values[key] = value
	return nil
}

// Has reports whether the option is present.
func (s *Set) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.values[key]
	return ok
}

// Int returns the value of an integer option and whether it was given.
func (s *Set) Int(key string) (int, bool) {
	if s == nil {
		return 0, false
	}
	n, ok := s.ints[key]
	return n, ok
}

// IntOr returns the value of an integer option, or def if absent.
func (s *Set) IntOr(key string, def int) int {
	if n, ok := s.Int(key); ok {
		return n
	}
	return def
}

// Merge returns a new set with the options of other layered over s.
func (s *Set) Merge(other *Set) *Set {
	out := s.Clone()
	if other == nil {
		return out
	}
	maps.Copy(out.values, other.values)
	maps.Copy(out.ints, other.ints)
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	if s == nil {
		return New()
	}
	return &Set{values: maps.Clone(s.values), ints: maps.Clone(s.ints)}
}

// Len returns the number of options.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Pairs returns the options as sorted "key" / "key=value" strings.
func (s *Set) Pairs() []string {
	if s == nil {
		return nil
	}
	keys := slices.Sorted(maps.Keys(s.values))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := s.values[k]; v != "" {
			out = append(out, k+"="+v)
		} else {
			out = append(out, k)
		}
	}
	return out
}

// String returns the canonical form of the set, suitable for cache keys.
func (s *Set) String() string { return strings.Join(s.Pairs(), ",") }
