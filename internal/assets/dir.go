package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirLoader reads asset overrides from a directory laid out like the
// embedded tree (styles/print.css, templates/export.html). Reads go through
// an os.Root, so neither ".." nor a symlink can leave the directory.
type DirLoader struct {
	root *os.Root
}

// OpenDir opens path for reading overrides.
// Returns ErrInvalidDir if path is empty or not a readable directory.
func OpenDir(path string) (*DirLoader, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidDir)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidDir, path)
	}
	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDir, err)
	}
	return &DirLoader{root: root}, nil
}

// Load reads {dir}/{kind.Dir}/{name}{kind.Ext}.
func (d *DirLoader) Load(kind Kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	data, err := d.root.ReadFile(filepath.Join(kind.Dir, name+kind.Ext))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound(kind, name)
		}
		return "", fmt.Errorf("%w: %s %q: %v", ErrRead, kind, name, err)
	}
	return string(data), nil
}

// Close releases the directory handle.
func (d *DirLoader) Close() error {
	return d.root.Close()
}

// Layered tries each loader in turn and moves to the next one only when the
// asset is missing. Any other error ends the lookup.
func Layered(loaders ...Loader) Loader {
	return layers(loaders)
}

type layers []Loader

func (ls layers) Load(kind Kind, name string) (string, error) {
	for _, l := range ls {
		content, err := l.Load(kind, name)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", notFound(kind, name)
}
