package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mdpreview/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// DefaultName is the config name searched when no --config flag is given.
const DefaultName = "mdpreview"

// Field length limits.
const (
	MaxHostLength        = 253 // DNS name
	MaxTOCTitleLength    = 100
	MaxStyleNameLength   = 50
	MaxPageSizeLength    = 10 // "letter", "a4", "legal"
	MaxOrientationLength = 10 // "portrait", "landscape"
	MaxPathLength        = 4096
)

// Range limits.
const (
	MaxQuietPeriod     = 10 * time.Second
	MinPollInterval    = 10 * time.Millisecond
	MaxExportTimeout   = 10 * time.Minute
	MaxExportInstances = 32
)

// Config holds all configuration for the preview server.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Watch  WatchConfig  `yaml:"watch"`
	Render RenderConfig `yaml:"render"`
	Export ExportConfig `yaml:"export"`
	Assets AssetsConfig `yaml:"assets"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Open bool   `yaml:"open"` // Open the default browser on start
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WatchConfig defines how the document is monitored for changes.
type WatchConfig struct {
	Poll         bool              `yaml:"poll"`         // Stat polling instead of fsnotify
	QuietPeriod  yamlutil.Duration `yaml:"quietPeriod"`  // Debounce window
	PollInterval yamlutil.Duration `yaml:"pollInterval"` // Only used when Poll is true
}

// RenderConfig defines render pipeline options.
type RenderConfig struct {
	TOCTitle       string `yaml:"tocTitle"`
	RawHTML        bool   `yaml:"rawHTML"`
	HighlightStyle string `yaml:"highlightStyle"` // chroma style name
}

// ExportConfig defines PDF export options.
type ExportConfig struct {
	Timeout       yamlutil.Duration `yaml:"timeout"`
	SettleDelay   yamlutil.Duration `yaml:"settleDelay"`
	MaxConcurrent int               `yaml:"maxConcurrent"` // 0 = auto
	Page          PageConfig        `yaml:"page"`
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "a4", "letter", "legal" (default: "a4")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // millimeters (default: 20)
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "localhost", Port: 3000, Open: true},
		Watch: WatchConfig{
			QuietPeriod:  yamlutil.Duration(100 * time.Millisecond),
			PollInterval: yamlutil.Duration(100 * time.Millisecond),
		},
		Render: RenderConfig{TOCTitle: "Contents", RawHTML: true, HighlightStyle: "github"},
		Export: ExportConfig{
			Timeout:     yamlutil.Duration(60 * time.Second),
			SettleDelay: yamlutil.Duration(time.Second),
			Page:        PageConfig{Size: "a4", Orientation: "portrait", Margin: 20},
		},
	}
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for callers that build
// or override a Config in code.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.host", c.Server.Host, MaxHostLength); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 0 and 65535, got %d", ErrInvalidValue, c.Server.Port)
	}

	if q := c.Watch.QuietPeriod.Std(); q < 0 || q > MaxQuietPeriod {
		return fmt.Errorf("%w: watch.quietPeriod must be between 0 and %v, got %v", ErrInvalidValue, MaxQuietPeriod, q)
	}
	if c.Watch.Poll && c.Watch.PollInterval.Std() < MinPollInterval {
		return fmt.Errorf("%w: watch.pollInterval must be at least %v, got %v", ErrInvalidValue, MinPollInterval, c.Watch.PollInterval.Std())
	}

	if err := validateFieldLength("render.tocTitle", c.Render.TOCTitle, MaxTOCTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.highlightStyle", c.Render.HighlightStyle, MaxStyleNameLength); err != nil {
		return err
	}

	timeout := c.Export.Timeout.Std()
	if timeout <= 0 || timeout > MaxExportTimeout {
		return fmt.Errorf("%w: export.timeout must be between 0 and %v, got %v", ErrInvalidValue, MaxExportTimeout, timeout)
	}
	if settle := c.Export.SettleDelay.Std(); settle < 0 || settle >= timeout {
		return fmt.Errorf("%w: export.settleDelay must be non-negative and below export.timeout, got %v", ErrInvalidValue, settle)
	}
	if c.Export.MaxConcurrent < 0 || c.Export.MaxConcurrent > MaxExportInstances {
		return fmt.Errorf("%w: export.maxConcurrent must be between 0 and %d, got %d", ErrInvalidValue, MaxExportInstances, c.Export.MaxConcurrent)
	}
	if err := validateFieldLength("export.page.size", c.Export.Page.Size, MaxPageSizeLength); err != nil {
		return err
	}
	if err := validateFieldLength("export.page.orientation", c.Export.Page.Orientation, MaxOrientationLength); err != nil {
		return err
	}

	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// NotFoundError reports the locations searched for a named config.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (tried %s)", ErrConfigNotFound, e.Name, strings.Join(e.Tried, ", "))
}

// Unwrap lets errors.Is match ErrConfigNotFound.
func (e *NotFoundError) Unwrap() error { return ErrConfigNotFound }

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their defaults.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists the candidate files for a config name, in lookup order:
// current directory, then the user config directory, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, DefaultName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing candidate from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", &NotFoundError{Name: name, Tried: tried}
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
