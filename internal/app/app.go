package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"spreader/internal/binding"
	"spreader/internal/catalog"
	"spreader/internal/config"
	"spreader/internal/field"
	"spreader/internal/logger"
	"spreader/internal/metrics"
	"spreader/internal/resolve"
	"spreader/internal/spreader"
	"spreader/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Archive keeps finished passes.
type Archive interface {
	SaveRecord(ctx context.Context, rec binding.Record) error
	SaveFailure(ctx context.Context, passID, stage string, cause error) error
	LoadRecord(ctx context.Context, passID string) (binding.Record, error)
	List(ctx context.Context, status string, limit int) ([]store.Entry, error)
	Close() error
}

// ReplayLatest as input.replay replays the newest assembled pass.
const ReplayLatest = "latest"

var _ Archive = (*store.GormArchive)(nil)

// App runs one resolution pass: load input, resolve, assemble, then hand the
// outcome to the archive, the record file and the metrics textfile.
type App struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	factory  catalog.Factory
	archive  Archive
	metrics  *metrics.Prometheus
	prompter resolve.Prompter
	out      io.Writer
	// transcript is the prompt transcript file, closed with the app.
	transcript io.Closer
}

// NewApp builds the application without running it.
func NewApp(cfg *config.Config, opts ...AppBuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return buildAppWithWire(context.Background(), cfg, opts)
}

// Run executes one pass. The outcome is returned even when a post-assembly
// sink fails.
func (a *App) Run(ctx context.Context) (spreader.Outcome, error) {
	if a == nil || a.cfg == nil {
		return spreader.Outcome{}, fmt.Errorf("app not initialized")
	}
	opts, err := a.passOptions()
	if err != nil {
		return spreader.Outcome{}, err
	}
	snap := a.catalog.Snapshot()
	reg, err := spreader.NewRegistry(opts.Variant, snap)
	if err != nil {
		return spreader.Outcome{}, err
	}
	logger.Infof("pass %s: catalog v%d with %d connectors, variant %s, input %s",
		opts.PassID, snap.Version, len(snap.Names()), opts.Variant, a.inputLabel())

	out, runErr := a.resolve(ctx, reg, opts)
	if runErr != nil {
		logger.S().Warnw("pass failed", "pass_id", opts.PassID, "stage", failedStage(runErr), "error", runErr)
		if err := a.publishFailure(ctx, opts.PassID, runErr); err != nil {
			logger.Errorf("pass %s: %v", opts.PassID, err)
		}
		return spreader.Outcome{}, runErr
	}
	logger.S().Infow("pass assembled",
		"pass_id", out.PassID,
		"exchanges", out.Binding.RequiredExchanges(),
		"assets", out.Binding.RequiredAssets(),
	)
	if a.out != nil {
		RenderBinding(a.out, out.PassID, out.Binding, snap)
	}
	return out, a.publish(ctx, out)
}

func (a *App) passOptions() (spreader.Options, error) {
	sc := a.cfg.Strategy
	variant, err := spreader.ParseVariant(sc.Variant)
	if err != nil {
		return spreader.Options{}, err
	}
	flags, err := binding.ParseLoggingFlags(sc.LoggingOptions)
	if err != nil {
		return spreader.Options{}, err
	}
	dup, err := binding.ParseDuplicatePolicy(sc.DuplicateRoles)
	if err != nil {
		return spreader.Options{}, err
	}
	opts := spreader.Options{
		Variant: variant,
		Params: binding.Params{
			StatusReportInterval: sc.StatusReportInterval,
			LoggingFlags:         flags,
			Notify:               sc.Notify,
			Duplicates:           dup,
		},
		WalletTokens: sc.WalletTokens,
		PassID:       uuid.NewString(),
	}
	if a.metrics != nil {
		opts.Observer = a.metrics
	}
	return opts, nil
}

func (a *App) inputLabel() string {
	in := a.cfg.Input
	switch {
	case strings.TrimSpace(in.Replay) != "":
		return "replay " + in.Replay
	case in.Mode == config.InputBatch:
		return "file " + in.File
	default:
		return "interactive"
	}
}

func (a *App) resolve(ctx context.Context, reg *field.Registry, opts spreader.Options) (spreader.Outcome, error) {
	in := a.cfg.Input
	if id := strings.TrimSpace(in.Replay); id != "" {
		rec, err := a.replayRecord(ctx, id)
		if err != nil {
			return spreader.Outcome{}, err
		}
		return spreader.Replay(reg, a.factory, opts, rec)
	}
	pass := spreader.NewPass(reg, a.factory, opts)
	if in.Mode == config.InputBatch {
		inputs, err := LoadInputs(in.File)
		if err != nil {
			return spreader.Outcome{}, err
		}
		return pass.Apply(inputs)
	}
	if a.prompter == nil {
		return spreader.Outcome{}, fmt.Errorf("interactive input requires a prompter")
	}
	return pass.Run(ctx, a.prompter)
}

// replayRecord loads the record of pass id, or of the newest assembled pass
// when id is ReplayLatest.
func (a *App) replayRecord(ctx context.Context, id string) (binding.Record, error) {
	if a.archive == nil {
		return binding.Record{}, fmt.Errorf("replay %s: pass archive is disabled", id)
	}
	if strings.EqualFold(id, ReplayLatest) {
		entries, err := a.archive.List(ctx, store.StatusAssembled, 1)
		if err != nil {
			return binding.Record{}, err
		}
		if len(entries) == 0 {
			return binding.Record{}, fmt.Errorf("replay %s: %w", id, store.ErrNotFound)
		}
		logger.Infof("replaying latest assembled pass %s", entries[0].PassID)
		id = entries[0].PassID
	}
	return a.archive.LoadRecord(ctx, id)
}

func (a *App) publish(ctx context.Context, out spreader.Outcome) error {
	group, ctx := errgroup.WithContext(ctx)
	if a.archive != nil {
		group.Go(func() error {
			if err := a.archive.SaveRecord(ctx, out.Record); err != nil {
				return fmt.Errorf("archive pass %s: %w", out.PassID, err)
			}
			return nil
		})
	}
	if path := strings.TrimSpace(a.cfg.Output.RecordPath); path != "" {
		group.Go(func() error {
			return writeRecord(path, a.cfg.Output.RecordFormat, out.Record)
		})
	}
	group.Go(a.writeMetrics)
	return group.Wait()
}

func (a *App) publishFailure(ctx context.Context, passID string, cause error) error {
	group, ctx := errgroup.WithContext(ctx)
	if a.archive != nil {
		group.Go(func() error {
			return a.archive.SaveFailure(ctx, passID, failedStage(cause), cause)
		})
	}
	group.Go(a.writeMetrics)
	return group.Wait()
}

func (a *App) writeMetrics() error {
	if a.metrics == nil {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Close stops the catalog watcher and releases the archive and the
// transcript file.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.catalog != nil {
		errs = append(errs, a.catalog.Close())
	}
	if a.archive != nil {
		errs = append(errs, a.archive.Close())
		a.archive = nil
	}
	if a.transcript != nil {
		logger.SetTranscriptWriter(nil)
		errs = append(errs, a.transcript.Close())
		a.transcript = nil
	}
	return errors.Join(errs...)
}

// failedStage names where cause stopped the run; errors raised before a
// pass started are reported as "input".
func failedStage(cause error) string {
	var fe *spreader.FailedError
	if errors.As(cause, &fe) {
		return string(fe.Stage)
	}
	return "input"
}

func writeRecord(path, format string, rec binding.Record) error {
	f, err := binding.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := binding.EncodeRecord(f, rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record %s: %w", path, err)
	}
	logger.Infof("record written to %s (%s)", path, f)
	return nil
}
