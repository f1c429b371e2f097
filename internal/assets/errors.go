package assets

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNotFound         = errors.New("asset not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidDir       = errors.New("invalid asset directory")
	ErrRead             = errors.New("failed to read asset")
)

func notFound(kind Kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, name)
}
