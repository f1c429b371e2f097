// Package config loads the YAML configuration file for mdpreview.
//
// Files are decoded strictly: unknown keys are an error so that typos do not
// silently fall back to defaults. Keys absent from the file keep the values
// from DefaultConfig.
package config
