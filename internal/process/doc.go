// Package process cleans up browser process trees left behind by an export.
package process
