package errors

import (
	"strconv"
	"strings"
	"unicode"
)

// ValidateOptionKey validates a write-option key such as "p" or "N".
// Keys are single ASCII letters; anything else is rejected so a typo never
// silently turns into an unknown option.
func ValidateOptionKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidOption, "option key cannot be empty")
	}
	if len(key) != 1 {
		return New(ErrCodeInvalidOption, "option key must be a single letter: %q", key)
	}
	r := rune(key[0])
	if r > unicode.MaxASCII || !unicode.IsLetter(r) {
		return New(ErrCodeInvalidOption, "option key must be a letter: %q", key)
	}
	return nil
}

// ValidatePositiveInt parses value as a positive integer for option key.
func ValidatePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, Wrap(ErrCodeInvalidOption, err, "option %s expects an integer, got %q", key, value)
	}
	if n <= 0 {
		return 0, New(ErrCodeInvalidOption, "option %s must be positive, got %d", key, n)
	}
	return n, nil
}

// MaxPixels bounds the p, w and h options.
const MaxPixels = 8192

// ValidatePixelSize parses value as a pixel count in 1..MaxPixels.
func ValidatePixelSize(key, value string) (int, error) {
	n, err := ValidatePositiveInt(key, value)
	if err != nil {
		return 0, err
	}
	if n > MaxPixels {
		return 0, New(ErrCodeInvalidOption, "option %s must be at most %d pixels, got %d", key, MaxPixels, n)
	}
	return n, nil
}

// ValidateOutputPath validates an output file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
