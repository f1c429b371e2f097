// Package assets holds the embedded browser UI and the files used to build
// exported pages.
//
// The UI (viewer, editor, scripts, stylesheet) is served as is from Web. The
// print stylesheet and the export template can be replaced per file from a
// directory with the same layout:
//
//	{dir}/
//	├── styles/print.css
//	└── templates/export.html
//
// Asset names are plain file stems. Override lookups are confined to the
// directory, symlinks included.
package assets
