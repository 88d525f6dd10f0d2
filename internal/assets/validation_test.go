package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		// Valid names
		{"simple name", "light", nil},
		{"name with hyphen", "high-contrast", nil},
		{"name with underscore", "brand_blue", nil},
		{"name with numbers", "theme2", nil},
		{"mixed case", "Corporate", nil},

		// Invalid names
		{"empty name", "", ErrInvalidAssetName},
		{"forward slash", "themes/light", ErrInvalidAssetName},
		{"backslash", "themes\\light", ErrInvalidAssetName},
		{"parent traversal", "..", ErrInvalidAssetName},
		{"extension", "light.css", ErrInvalidAssetName},
		{"space", "dark mode", ErrInvalidAssetName},
		{"null byte", "light\x00", ErrInvalidAssetName},
		{"non-ascii", "thème", ErrInvalidAssetName},
		{"too long", strings.Repeat("a", maxAssetNameLength+1), ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAssetName(%q) unexpected error: %v", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAssetName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
