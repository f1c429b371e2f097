package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/hints"
	"github.com/alnah/go-mdpreview/internal/logger"
	"github.com/alnah/go-mdpreview/internal/server"
	"github.com/alnah/go-mdpreview/internal/watch"
)

// runPreview resolves the configuration, validates the input file and
// serves until ctx is done. With no file it serves the editor.
func runPreview(ctx context.Context, args []string, flags *cliFlags, env *Environment) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: expected at most one file, got %d", ErrUsage, len(args))
	}

	envCfg := loadEnvConfig()
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	cfg, err := resolveConfig(flags.common.config, envCfg)
	if err != nil {
		return withHint(err, nil)
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(flags, envCfg, env.Stderr)

	var path string
	if len(args) == 1 {
		path, err = fileutil.ValidateMarkdownPath(args[0])
		if err != nil {
			return withHint(err, cfg)
		}
	}

	renderer, err := mdpreview.NewRenderer(
		mdpreview.WithTOCTitle(cfg.Render.TOCTitle),
		mdpreview.WithRawHTML(cfg.Render.RawHTML),
		mdpreview.WithHighlightStyle(cfg.Render.HighlightStyle),
	)
	if err != nil {
		return withHint(err, cfg)
	}

	exporter, err := mdpreview.NewExporter(exportOptions(cfg, path)...)
	if err != nil {
		return withHint(err, cfg)
	}
	log.Debug("exporter ready", "slots", exporter.Slots())

	opts := []server.Option{
		server.WithAddr(cfg.Server.Addr()),
		server.WithLogger(log),
		server.WithReadyHook(func(url string) {
			announce(env.Stdout, flags.common.quiet, path, url)
			if cfg.Server.Open && env.OpenBrowser != nil {
				env.OpenBrowser(url)
			}
		}),
	}

	var notifier *watch.Notifier
	if path != "" {
		notifier, err = watch.New(path, renderer.Render, watchOptions(cfg, log)...)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithFile(path), server.WithUpdates(notifier))
	}

	srv, err := server.New(renderer, exporter, opts...)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if notifier != nil {
		g.Go(func() error { return notifier.Run(ctx) })
	}
	g.Go(func() error { return srv.Run(ctx) })

	return withHint(g.Wait(), cfg)
}

// resolveConfig loads the config named by the flag, then MDPREVIEW_CONFIG.
// Without either, the default config name is optional.
func resolveConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}
	if name != "" {
		return config.LoadConfig(name)
	}

	cfg, err := config.LoadConfig(config.DefaultName)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

// mergeFlags applies explicitly set CLI flags over cfg.
func mergeFlags(f *cliFlags, cfg *config.Config) {
	if f.changed("host") {
		cfg.Server.Host = f.host
	}
	if f.changed("port") {
		cfg.Server.Port = f.port
	}
	if f.noOpen {
		cfg.Server.Open = false
	}
	if f.poll {
		cfg.Watch.Poll = true
	}
}

func newLogger(f *cliFlags, env *envConfig, w io.Writer) logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Output = w
	if level, ok := logger.ParseLevel(env.LogLevel); ok {
		cfg.Level = level
	}
	// Flags win over MDPREVIEW_LOG_LEVEL.
	switch {
	case f.common.verbose:
		cfg.Level = logger.DebugLevel
	case f.common.quiet:
		cfg.Level = logger.ErrorLevel
	}
	cfg.JSON = env.LogFormat == "json"
	return logger.New(cfg)
}

func exportOptions(cfg *config.Config, path string) []mdpreview.ExportOption {
	opts := []mdpreview.ExportOption{
		mdpreview.WithExportTimeout(cfg.Export.Timeout.Std()),
		mdpreview.WithSettleDelay(cfg.Export.SettleDelay.Std()),
		mdpreview.WithMaxConcurrent(cfg.Export.MaxConcurrent),
		mdpreview.WithPageSettings(&mdpreview.PageSettings{
			Size:        cfg.Export.Page.Size,
			Orientation: cfg.Export.Page.Orientation,
			Margin:      cfg.Export.Page.Margin,
		}),
		mdpreview.WithExportHighlightStyle(cfg.Render.HighlightStyle),
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdpreview.WithAssetPath(cfg.Assets.BasePath))
	}
	if path != "" {
		opts = append(opts, mdpreview.WithSourceDir(filepath.Dir(path)))
	}
	return opts
}

func watchOptions(cfg *config.Config, log logger.Logger) []watch.Option {
	opts := []watch.Option{
		watch.WithQuietPeriod(cfg.Watch.QuietPeriod.Std()),
		watch.WithLogger(log),
	}
	if cfg.Watch.Poll {
		opts = append(opts, watch.WithPolling(cfg.Watch.PollInterval.Std()))
	}
	return opts
}

func announce(w io.Writer, quiet bool, path, url string) {
	if quiet {
		return
	}
	if path == "" {
		fmt.Fprintf(w, "Editor running at %s\n", url)
	} else {
		fmt.Fprintf(w, "Previewing %s at %s\n", filepath.Base(path), url)
	}
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}

// withHint appends an actionable hint to err when one applies.
// cfg may be nil before the configuration is resolved.
func withHint(err error, cfg *config.Config) error {
	if err == nil {
		return nil
	}

	var hint string
	var notFound *config.NotFoundError
	switch {
	case errors.As(err, &notFound):
		hint = hints.ForConfigNotFound(notFound.Tried)
	case errors.Is(err, config.ErrConfigNotFound):
		hint = hints.ForConfigNotFound(nil)
	case errors.Is(err, fileutil.ErrFileNotFound):
		hint = hints.ForFileNotFound()
	case errors.Is(err, fileutil.ErrNotMarkdown):
		hint = hints.ForNotMarkdown()
	case errors.Is(err, mdpreview.ErrUnknownStyle):
		hint = hints.ForStyleNotFound(styles.Names())
	case errors.Is(err, server.ErrListen) && cfg != nil && cfg.Server.Port != 0:
		hint = hints.ForPortInUse(cfg.Server.Port)
	}

	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}
