package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"print", false},
		{"my-style", false},
		{"my_style", false},
		{"Export2", false},
		{"", true},
		{"../secret", true},
		{`..\secret`, true},
		{"style.css", true},
		{"/etc/passwd", true},
		{"with space", true},
		{"tab\tname", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if tt.wantErr && !errors.Is(err, ErrInvalidAssetName) {
				t.Errorf("ValidateAssetName(%q) error = %v, want ErrInvalidAssetName", tt.input, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAssetName(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestValidateAssetName_ErrorMessages(t *testing.T) {
	t.Parallel()

	if err := ValidateAssetName(""); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("empty name error = %v, want mention of empty", err)
	}
	if err := ValidateAssetName("a/b"); err == nil || !strings.Contains(err.Error(), `"a/b"`) {
		t.Errorf("invalid name error = %v, want the quoted name", err)
	}
}
