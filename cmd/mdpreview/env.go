package main

import (
	"io"
	"os"

	"github.com/go-rod/rod/lib/launcher"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer

	// OpenBrowser opens url in the user's browser.
	OpenBrowser func(url string)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		OpenBrowser: launcher.Open,
	}
}
