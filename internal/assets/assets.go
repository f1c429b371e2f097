package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

//go:embed styles templates web
var files embed.FS

// Built-in asset names.
const (
	PrintStyleName     = "print"  // stylesheet applied to exported pages
	ExportTemplateName = "export" // page wrapping an exported document
)

// Kind is a category of overridable asset.
type Kind struct {
	Name string // used in error messages
	Dir  string
	Ext  string
}

// Asset kinds that can be overridden from a directory.
var (
	Style    = Kind{Name: "style", Dir: "styles", Ext: ".css"}
	Template = Kind{Name: "template", Dir: "templates", Ext: ".html"}
)

func (k Kind) file(name string) string {
	return path.Join(k.Dir, name+k.Ext)
}

func (k Kind) String() string { return k.Name }

// Loader reads a named asset of one kind.
type Loader interface {
	// Load returns ErrNotFound when the asset does not exist and
	// ErrInvalidAssetName when name is not a plain file stem.
	Load(kind Kind, name string) (string, error)
}

type embedded struct{}

// Embedded returns the loader for the assets compiled into the binary.
func Embedded() Loader { return embedded{} }

func (embedded) Load(kind Kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	data, err := files.ReadFile(kind.file(name))
	if err != nil {
		return "", notFound(kind, name)
	}
	return string(data), nil
}

// ExportFiles are the assets composing an exported page.
type ExportFiles struct {
	PrintCSS string
	Template string
}

// LoadExportFiles reads the print stylesheet and the export template. When
// dir is set, files found there replace the embedded ones.
func LoadExportFiles(dir string) (*ExportFiles, error) {
	loader := Embedded()
	if dir != "" {
		custom, err := OpenDir(dir)
		if err != nil {
			return nil, err
		}
		defer func() { _ = custom.Close() }()
		loader = Layered(custom, loader)
	}

	css, err := loader.Load(Style, PrintStyleName)
	if err != nil {
		return nil, fmt.Errorf("loading print style: %w", err)
	}
	tmpl, err := loader.Load(Template, ExportTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading export template: %w", err)
	}
	return &ExportFiles{PrintCSS: css, Template: tmpl}, nil
}

// Web returns the browser UI rooted at its top directory, so "index.html"
// and "client.js" resolve directly.
func Web() fs.FS {
	sub, err := fs.Sub(files, "web")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
