package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// keyVersion is bumped whenever the rendered output for the same input and
// options changes, so stale images are not served after an upgrade.
const keyVersion = "v1"

// ImageKeyOpts are the render parameters that change the produced image.
type ImageKeyOpts struct {
	Options string // canonical option string, see options.Set.String
	Format  string
	Split   bool
}

// Keyer derives cache keys.
type Keyer interface {
	// ImageKey returns the key of the images rendered from the input with
	// the given content hash.
	ImageKey(inputHash string, opts ImageKeyOpts) string
}

// DefaultKeyer builds "image:v1:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ImageKey implements Keyer. The fields are NUL-separated, which cannot occur
// in an option string or a format name.
func (DefaultKeyer) ImageKey(inputHash string, opts ImageKeyOpts) string {
	canonical := strings.Join([]string{
		inputHash,
		opts.Options,
		strings.ToLower(opts.Format),
		strconv.FormatBool(opts.Split),
	}, "\x00")
	return "image:" + keyVersion + ":" + Hash([]byte(canonical))
}

// PrefixKeyer namespaces another keyer, letting several deployments share
// one Redis or Mongo backend.
type PrefixKeyer struct {
	Inner  Keyer
	Prefix string
}

// ImageKey implements Keyer.
func (k PrefixKeyer) ImageKey(inputHash string, opts ImageKeyOpts) string {
	inner := k.Inner
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return k.Prefix + inner.ImageKey(inputHash, opts)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
