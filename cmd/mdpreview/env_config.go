package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/yamlutil"
)

const envPrefix = "MDPREVIEW_"

// envConfig holds configuration from environment variables.
// Unset or unparsable values are left zero and ignored.
type envConfig struct {
	ConfigPath    string         // MDPREVIEW_CONFIG: config file name or path
	Host          string         // MDPREVIEW_HOST: listen interface
	Port          int            // MDPREVIEW_PORT: listen port
	ExportTimeout time.Duration  // MDPREVIEW_EXPORT_TIMEOUT: PDF export timeout
	SettleDelay   *time.Duration // MDPREVIEW_SETTLE_DELAY: wait before printing
	Poll          *bool          // MDPREVIEW_POLL: polling watcher
	LogFormat     string         // MDPREVIEW_LOG_FORMAT: "text" or "json"
	LogLevel      string         // MDPREVIEW_LOG_LEVEL: debug, info, warn or error
}

// knownEnvVars lists valid MDPREVIEW_* environment variables.
// Used to warn about typos.
var knownEnvVars = map[string]bool{
	"MDPREVIEW_CONFIG":         true,
	"MDPREVIEW_HOST":           true,
	"MDPREVIEW_PORT":           true,
	"MDPREVIEW_EXPORT_TIMEOUT": true,
	"MDPREVIEW_SETTLE_DELAY":   true,
	"MDPREVIEW_POLL":           true,
	"MDPREVIEW_LOG_FORMAT":     true,
	"MDPREVIEW_LOG_LEVEL":      true,
	"MDPREVIEW_CONTAINER":      true, // read by doctor
}

// loadEnvConfig reads the MDPREVIEW_* variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MDPREVIEW_CONFIG"),
		Host:       os.Getenv("MDPREVIEW_HOST"),
		LogFormat:  strings.ToLower(os.Getenv("MDPREVIEW_LOG_FORMAT")),
		LogLevel:   os.Getenv("MDPREVIEW_LOG_LEVEL"),
	}

	if port := os.Getenv("MDPREVIEW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p <= 65535 {
			cfg.Port = p
		}
	}
	if timeout := os.Getenv("MDPREVIEW_EXPORT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.ExportTimeout = d
		}
	}
	if settle := os.Getenv("MDPREVIEW_SETTLE_DELAY"); settle != "" {
		if d, err := time.ParseDuration(settle); err == nil && d >= 0 {
			cfg.SettleDelay = &d
		}
	}
	if poll := os.Getenv("MDPREVIEW_POLL"); poll != "" {
		if b, err := strconv.ParseBool(poll); err == nil {
			cfg.Poll = &b
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized MDPREVIEW_*
// variable, e.g. MDPREVIEW_PROT.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config file values with environment values.
// Precedence: CLI flags > env vars > config file > defaults; flags are
// applied afterwards by mergeFlags.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Host != "" {
		cfg.Server.Host = env.Host
	}
	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}
	if env.ExportTimeout != 0 {
		cfg.Export.Timeout = yamlutil.Duration(env.ExportTimeout)
	}
	if env.SettleDelay != nil {
		cfg.Export.SettleDelay = yamlutil.Duration(*env.SettleDelay)
	}
	if env.Poll != nil {
		cfg.Watch.Poll = *env.Poll
	}
}
