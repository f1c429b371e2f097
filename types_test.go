package mdpreview

import (
	"errors"
	"math"
	"testing"
)

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    *PageSettings
		wantErr error
	}{
		{"nil settings", nil, nil},
		{"defaults", DefaultPageSettings(), nil},
		{"letter landscape", &PageSettings{Size: "letter", Orientation: "landscape", Margin: 10}, nil},
		{"mixed case", &PageSettings{Size: "A4", Orientation: "Portrait", Margin: 20}, nil},
		{"unknown size", &PageSettings{Size: "a3", Orientation: "portrait", Margin: 20}, ErrInvalidPageSize},
		{"empty size", &PageSettings{Orientation: "portrait", Margin: 20}, ErrInvalidPageSize},
		{"unknown orientation", &PageSettings{Size: "a4", Orientation: "diagonal", Margin: 20}, ErrInvalidOrientation},
		{"margin too small", &PageSettings{Size: "a4", Orientation: "portrait", Margin: 1}, ErrInvalidMargin},
		{"margin too large", &PageSettings{Size: "a4", Orientation: "portrait", Margin: 100}, ErrInvalidMargin},
		{"margin at minimum", &PageSettings{Size: "a4", Orientation: "portrait", Margin: MinMargin}, nil},
		{"margin at maximum", &PageSettings{Size: "a4", Orientation: "portrait", Margin: MaxMargin}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.page.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageSettings_Dimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                 string
		page                 PageSettings
		wantW, wantH, wantMg float64
	}{
		{"a4 portrait", PageSettings{Size: "a4", Orientation: "portrait", Margin: 20}, 8.27, 11.69, 0.787},
		{"a4 landscape", PageSettings{Size: "A4", Orientation: "LANDSCAPE", Margin: 20}, 11.69, 8.27, 0.787},
		{"letter", PageSettings{Size: "letter", Orientation: "portrait", Margin: 25.4}, 8.5, 11, 1},
		{"legal", PageSettings{Size: "legal", Orientation: "portrait", Margin: 12.7}, 8.5, 14, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, h, m := tt.page.dimensions()
			if !approx(w, tt.wantW) || !approx(h, tt.wantH) || !approx(m, tt.wantMg) {
				t.Errorf("dimensions() = %.3f, %.3f, %.3f; want %.3f, %.3f, %.3f", w, h, m, tt.wantW, tt.wantH, tt.wantMg)
			}
		})
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}
