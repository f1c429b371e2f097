package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/server"
)

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI flags take precedence
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("explicit flags override", func(t *testing.T) {
		t.Parallel()

		f, _, err := parseFlags([]string{"--host", "0.0.0.0", "--port", "0", "--no-open", "--poll"})
		if err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.Server.Port = 4000
		mergeFlags(f, cfg)

		if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 0 || cfg.Server.Open {
			t.Errorf("server = %+v", cfg.Server)
		}
		if !cfg.Watch.Poll {
			t.Error("Watch.Poll should be true")
		}
	})

	t.Run("unset flags keep config", func(t *testing.T) {
		t.Parallel()

		f, _, err := parseFlags(nil)
		if err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.Server.Port = 4000
		mergeFlags(f, cfg)

		if cfg.Server.Port != 4000 || cfg.Server.Host != "localhost" || !cfg.Server.Open {
			t.Errorf("server = %+v", cfg.Server)
		}
	})
}

// ---------------------------------------------------------------------------
// TestResolveConfig - Config lookup order
// ---------------------------------------------------------------------------

func TestResolveConfig(t *testing.T) {
	t.Run("no config falls back to defaults", func(t *testing.T) {
		isolateConfig(t)

		cfg, err := resolveConfig("", &envConfig{})
		if err != nil {
			t.Fatalf("resolveConfig() error = %v", err)
		}
		if cfg.Server != config.DefaultConfig().Server {
			t.Errorf("server = %+v, want defaults", cfg.Server)
		}
	})

	t.Run("default name is picked up", func(t *testing.T) {
		dir := isolateConfig(t)
		writeFile(t, dir, "mdpreview.yaml", "server:\n  port: 4100\n")

		cfg, err := resolveConfig("", &envConfig{})
		if err != nil {
			t.Fatalf("resolveConfig() error = %v", err)
		}
		if cfg.Server.Port != 4100 {
			t.Errorf("port = %d, want 4100", cfg.Server.Port)
		}
	})

	t.Run("flag wins over env", func(t *testing.T) {
		dir := isolateConfig(t)
		flagPath := writeFile(t, dir, "flag.yaml", "server:\n  port: 4200\n")
		envPath := writeFile(t, dir, "env.yaml", "server:\n  port: 4300\n")

		cfg, err := resolveConfig(flagPath, &envConfig{ConfigPath: envPath})
		if err != nil {
			t.Fatalf("resolveConfig() error = %v", err)
		}
		if cfg.Server.Port != 4200 {
			t.Errorf("port = %d, want 4200", cfg.Server.Port)
		}
	})

	t.Run("env config is used", func(t *testing.T) {
		dir := isolateConfig(t)
		envPath := writeFile(t, dir, "env.yaml", "server:\n  port: 4300\n")

		cfg, err := resolveConfig("", &envConfig{ConfigPath: envPath})
		if err != nil {
			t.Fatalf("resolveConfig() error = %v", err)
		}
		if cfg.Server.Port != 4300 {
			t.Errorf("port = %d, want 4300", cfg.Server.Port)
		}
	})

	t.Run("explicit missing config fails", func(t *testing.T) {
		isolateConfig(t)

		if _, err := resolveConfig("missing", &envConfig{}); !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("broken default config fails", func(t *testing.T) {
		dir := isolateConfig(t)
		writeFile(t, dir, "mdpreview.yaml", "server: [")

		if _, err := resolveConfig("", &envConfig{}); !errors.Is(err, config.ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWithHint - Actionable hints
// ---------------------------------------------------------------------------

func TestWithHint(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	tests := []struct {
		name     string
		err      error
		cfg      *config.Config
		wantHint string
	}{
		{"file not found", fmt.Errorf("%w: a.md", fileutil.ErrFileNotFound), cfg, "check the path"},
		{"not markdown", fileutil.ErrNotMarkdown, cfg, ".markdown"},
		{"config search", &config.NotFoundError{Name: "x", Tried: []string{"x.yaml"}}, nil, "--config"},
		{"config path", fmt.Errorf("%w: /a.yaml", config.ErrConfigNotFound), nil, "--config"},
		{"unknown style", mdpreview.ErrUnknownStyle, cfg, "available:"},
		{"port busy", fmt.Errorf("%w on localhost:3000: in use", server.ErrListen), cfg, "--port 3001"},
		{"no hint", errors.New("boom"), cfg, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := withHint(tt.err, tt.cfg)
			if !errors.Is(got, tt.err) {
				t.Errorf("withHint() lost the original error: %v", got)
			}
			if tt.wantHint == "" {
				if strings.Contains(got.Error(), "hint:") {
					t.Errorf("withHint() = %q, want no hint", got)
				}
				return
			}
			if !strings.Contains(got.Error(), "hint:") || !strings.Contains(got.Error(), tt.wantHint) {
				t.Errorf("withHint() = %q, want hint with %q", got, tt.wantHint)
			}
		})
	}

	if withHint(nil, cfg) != nil {
		t.Error("withHint(nil) should be nil")
	}
}

// ---------------------------------------------------------------------------
// TestOptions - Config to component options
// ---------------------------------------------------------------------------

func TestExportOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	base := len(exportOptions(cfg, ""))

	if got := len(exportOptions(cfg, filepath.Join("docs", "a.md"))); got != base+1 {
		t.Errorf("with file: %d options, want %d", got, base+1)
	}

	cfg.Assets.BasePath = "/assets"
	if got := len(exportOptions(cfg, "")); got != base+1 {
		t.Errorf("with asset path: %d options, want %d", got, base+1)
	}

	cfg = config.DefaultConfig()
	cfg.Export.MaxConcurrent = 2
	exp, err := mdpreview.NewExporter(exportOptions(cfg, "")...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	if exp.Slots() != 2 {
		t.Errorf("Slots() = %d, want 2", exp.Slots())
	}
}

func TestWatchOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if got := len(watchOptions(cfg, nil)); got != 2 {
		t.Errorf("fsnotify: %d options, want 2", got)
	}
	cfg.Watch.Poll = true
	if got := len(watchOptions(cfg, nil)); got != 3 {
		t.Errorf("polling: %d options, want 3", got)
	}
}

func TestAnnounce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		quiet bool
		path  string
		want  string
	}{
		{"file", false, "/docs/notes.md", "Previewing notes.md at http://localhost:3000"},
		{"editor", false, "", "Editor running at http://localhost:3000"},
		{"quiet", true, "/docs/notes.md", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			announce(&buf, tt.quiet, tt.path, "http://localhost:3000")
			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("output = %q, want none", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		format    string
		level     string
		wantDebug bool
		wantInfo  bool
		wantJSON  bool
	}{
		{"default", nil, "", "", false, true, false},
		{"verbose", []string{"-v"}, "", "", true, true, false},
		{"quiet", []string{"-q"}, "", "", false, false, false},
		{"json", nil, "json", "", false, true, true},
		{"env debug", nil, "", "DEBUG", true, true, false},
		{"env error", nil, "", "error", false, false, false},
		{"env unknown keeps info", nil, "", "chatty", false, true, false},
		{"quiet flag beats env debug", []string{"-q"}, "", "debug", false, false, false},
		{"verbose flag beats env error", []string{"-v"}, "", "error", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, _, err := parseFlags(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			log := newLogger(f, &envConfig{LogFormat: tt.format, LogLevel: tt.level}, &buf)
			log.Debug("debug-line")
			log.Info("info-line", "n", 1)

			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v: %q", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info-line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v: %q", got, tt.wantInfo, out)
			}
			if got := strings.HasPrefix(strings.TrimSpace(out), "{"); tt.wantInfo && got != tt.wantJSON {
				t.Errorf("json = %v, want %v: %q", got, tt.wantJSON, out)
			}
		})
	}
}
