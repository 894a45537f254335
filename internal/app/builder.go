package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"spreader/internal/catalog"
	"spreader/internal/config"
	"spreader/internal/logger"
	"spreader/internal/metrics"
	"spreader/internal/resolve"
	"spreader/internal/store"
)

type AppBuilder struct {
	cfg *config.Config

	catalogFn  func(config.CatalogConfig) (*catalog.Catalog, error)
	archiveFn  func(config.StoreConfig) (Archive, error)
	prompterFn func(in io.Reader, out io.Writer) resolve.Prompter

	in        io.Reader
	out       io.Writer
	logOutput io.Writer
	lookupEnv func(string) (string, bool)
}

type AppBuilderOption func(*AppBuilder)

// WithIO replaces stdin/stdout for prompts and the summary table.
func WithIO(in io.Reader, out io.Writer) AppBuilderOption {
	return func(b *AppBuilder) {
		b.in = in
		b.out = out
	}
}

// WithLogOutput sends console logs to w instead of stderr.
func WithLogOutput(w io.Writer) AppBuilderOption {
	return func(b *AppBuilder) { b.logOutput = w }
}

// WithEnvLookup replaces os.LookupEnv for connector credentials.
func WithEnvLookup(fn func(string) (string, bool)) AppBuilderOption {
	return func(b *AppBuilder) { b.lookupEnv = fn }
}

// WithArchive replaces the gorm archive.
func WithArchive(a Archive) AppBuilderOption {
	return func(b *AppBuilder) {
		b.archiveFn = func(config.StoreConfig) (Archive, error) { return a, nil }
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		catalogFn:  loadCatalog,
		archiveFn:  openArchive,
		prompterFn: newLinePrompter,
		in:         os.Stdin,
		out:        os.Stdout,
		logOutput:  os.Stderr,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Watch {
		if err := cat.Watch(); err != nil {
			return nil, err
		}
		cat.OnChange(func(s catalog.Snapshot) {
			logger.InfoBlock(catalogBlock(s))
		})
	}
	return cat, nil
}

func openArchive(cfg config.StoreConfig) (Archive, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	a, err := store.NewGormArchive(cfg.Path)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newLinePrompter(in io.Reader, out io.Writer) resolve.Prompter {
	return NewLinePrompter(in, out)
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	app := &App{
		cfg:        cfg,
		metrics:    metrics.NewPrometheus(),
		out:        b.out,
		transcript: b.setupLogging(cfg.App),
	}
	if err := b.open(app); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (b *AppBuilder) open(app *App) error {
	cfg := b.cfg
	if err := catalog.LoadEnvFile(cfg.EnvFile); err != nil {
		return err
	}
	cat, err := b.catalogFn(cfg.Catalog)
	if err != nil {
		return err
	}
	app.catalog = cat
	logger.InfoBlock(catalogBlock(cat.Snapshot()))

	var factoryOpts []catalog.EnvOption
	if b.lookupEnv != nil {
		factoryOpts = append(factoryOpts, catalog.WithLookup(b.lookupEnv))
	}
	app.factory = catalog.NewEnvFactory(cat, factoryOpts...)

	archive, err := b.archiveFn(cfg.Store)
	if err != nil {
		return fmt.Errorf("open pass archive: %w", err)
	}
	if archive != nil {
		app.archive = archive
		logger.Infof("✓ pass archive at %s", cfg.Store.Path)
	}
	if cfg.Input.Mode == config.InputInteractive && strings.TrimSpace(cfg.Input.Replay) == "" {
		app.prompter = b.prompterFn(b.in, b.out)
	}
	return nil
}

// setupLogging configures the logger and returns the transcript file, if one
// was opened.
func (b *AppBuilder) setupLogging(cfg config.AppConfig) io.Closer {
	logger.SetFileOutput(b.logOutput, logger.FileOptions{
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	})
	logger.SetLevel(cfg.LogLevel)
	if path := strings.TrimSpace(cfg.TranscriptPath); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warnf("transcript disabled: %v", err)
			return nil
		}
		logger.SetTranscriptWriter(f)
		return f
	}
	return nil
}
