package errors

import (
	"strings"
	"testing"
)

func TestValidateOptionKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"lower", "p", false},
		{"upper", "N", false},

		{"empty", "", true},
		{"two letters", "pp", true},
		{"digit", "1", true},
		{"dash", "-", true},
		{"non-ascii", "é", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOptionKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOptionKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidOption) {
				t.Errorf("ValidateOptionKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidOption)
			}
		})
	}
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"plain", "300", 300, false},
		{"padded", " 4 ", 4, false},

		{"zero", "0", 0, true},
		{"negative", "-2", 0, true},
		{"text", "wide", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePositiveInt("p", tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePositiveInt(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidatePositiveInt(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePixelSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"8192", MaxPixels, false},
		{"8193", 0, true},
		{"4611686018427387904", 0, true},
		{"0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidatePixelSize("p", tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePixelSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidOption) {
				t.Errorf("ValidatePixelSize(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidOption)
			}
			if got != tt.want {
				t.Errorf("ValidatePixelSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out.png", false},
		{"absolute", "/tmp/grid.png", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "out\x00.png", true},
		{"newline", "out\n.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
