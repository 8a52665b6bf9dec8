package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"sfmbundle/internal/ccdwidth"
	"sfmbundle/internal/config"
	"sfmbundle/internal/focal"
	"sfmbundle/internal/ledger"
	"sfmbundle/internal/logging"
	"sfmbundle/internal/preflight"
	"sfmbundle/internal/services"
	"sfmbundle/internal/services/bundler"
	"sfmbundle/internal/services/keymatch"
	"sfmbundle/internal/services/sift"
)

// Recorder persists run history. *ledger.Store satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, id, workDir string, mode ledger.Mode) (*ledger.Run, error)
	RecordFocal(ctx context.Context, runID string, results focal.Results) error
	RecordFeatures(ctx context.Context, runID, image string, features int) error
	FinishRun(ctx context.Context, runID string, runErr error) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder attaches a run ledger.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithExecutor replaces the command executor used for every external tool.
func WithExecutor(exec services.Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithToolOutput forwards extractor and matcher output to w. Without it the
// output is discarded.
func WithToolOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.output = w
	}
}

// WithVerbose asks the extractor for verbose output.
func WithVerbose(verbose bool) Option {
	return func(r *Runner) {
		r.verbose = verbose
	}
}

// WithImageList makes the bundle stage read an existing image list, a file
// name inside the working directory, instead of one generated from the
// focal estimates of the current run.
func WithImageList(name string) Option {
	return func(r *Runner) {
		r.imageList = name
	}
}

// WithIDGenerator overrides run identifier generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Runner executes the pipeline for one working directory.
type Runner struct {
	cfg       *config.Config
	workDir   string
	table     *ccdwidth.Table
	tools     config.Tools
	logger    *slog.Logger
	recorder  Recorder
	exec      services.Executor
	output    io.Writer
	verbose   bool
	imageList string
	newID     func() string

	sift     *sift.Client
	keymatch *keymatch.Client
	bundler  *bundler.Client
}

// New constructs a runner. workDir must be an existing directory; table may
// be nil, in which case sensor widths come from EXIF alone.
func New(cfg *config.Config, workDir string, table *ccdwidth.Table, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "working directory", abs, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "working directory", abs+" is not a directory", nil)
	}

	r := &Runner{
		cfg:     cfg,
		workDir: abs,
		table:   table,
		tools:   config.ResolveTools(cfg),
		exec:    services.CommandExecutor{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.buildClients(r.logger); err != nil {
		return nil, err
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	return r, nil
}

func (r *Runner) buildClients(logger *slog.Logger) error {
	var err error
	r.sift, err = sift.New(r.tools.Sift, r.tools.LibDir,
		sift.WithExecutor(r.exec),
		sift.WithVerbose(r.verbose),
		sift.WithOutput(r.output),
		sift.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("sift client: %w", err)
	}
	r.keymatch, err = keymatch.New(r.tools.KeyMatch, r.tools.LibDir,
		keymatch.WithExecutor(r.exec),
		keymatch.WithOutput(r.output),
		keymatch.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("keymatch client: %w", err)
	}
	r.bundler, err = bundler.New(r.tools.Bundler, r.tools.LibDir,
		bundler.WithExecutor(r.exec),
		bundler.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("bundler client: %w", err)
	}
	return nil
}

// WorkDir returns the absolute working directory.
func (r *Runner) WorkDir() string {
	return r.workDir
}

// Run performs the full pipeline: discovery, focal estimation, feature
// extraction, matching and bundle adjustment. The returned report is
// non-nil whenever a run was started, including failed runs.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	return r.execute(ctx, ledger.ModeFull, r.runFull)
}

// ExtractFocal estimates focal lengths and writes the image list file
// without running any external tool.
func (r *Runner) ExtractFocal(ctx context.Context) (*Report, error) {
	return r.execute(ctx, ledger.ModeExtractFocal, r.runExtractFocal)
}

func (r *Runner) execute(ctx context.Context, mode ledger.Mode, body func(context.Context, *Report) error) (*Report, error) {
	lock, err := acquireLock(r.workDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(r.logger, "failed to release working directory lock", "lock_release_failed",
				logging.String("lock", lock.Path()),
				logging.Error(err),
				logging.Impact("a later run in this directory may report it as busy"),
			)
		}
	}()

	report := &Report{RunID: r.newID(), Mode: mode, WorkDir: r.workDir}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	start := time.Now()
	r.startRun(ctx, report)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("work_dir", r.workDir),
		logging.String("mode", string(mode)),
	)

	runErr := body(ctx, report)
	report.Duration = time.Since(start)
	r.finishRun(ctx, report.RunID, runErr)
	if runErr != nil {
		logger.Error("run failed",
			logging.String(logging.FieldEventType, "run_failed"),
			logging.String("error_kind", services.Kind(runErr)),
			logging.Error(runErr),
			logging.Duration("run_duration", report.Duration),
		)
		return report, runErr
	}
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("images", len(report.Images)),
		logging.Int("focal_known", report.Focal.Known()),
		logging.Int("features", report.Features()),
		logging.Duration("run_duration", report.Duration),
	)
	return report, nil
}

func (r *Runner) runFull(ctx context.Context, report *Report) error {
	if err := r.discover(report); err != nil {
		return err
	}
	if err := preflight.Err(preflight.CheckTools(r.tools)); err != nil {
		return err
	}
	if err := r.stage(ctx, "focal", func(ctx context.Context, logger *slog.Logger) error {
		return r.estimateFocal(ctx, logger, report)
	}); err != nil {
		return err
	}
	if err := r.stage(ctx, "extract", func(ctx context.Context, logger *slog.Logger) error {
		keys, err := r.extractFeatures(ctx, logger, report.Images)
		report.Keys = keys
		return err
	}); err != nil {
		return err
	}
	if err := r.stage(ctx, "match", func(ctx context.Context, _ *slog.Logger) error {
		report.MatchesFile = r.cfg.Matching.MatchesFile
		return r.keymatch.Match(ctx, r.workDir, report.KeyFiles(), report.MatchesFile)
	}); err != nil {
		return err
	}
	return r.stage(ctx, "bundle", func(ctx context.Context, logger *slog.Logger) error {
		return r.bundle(ctx, logger, report)
	})
}

func (r *Runner) runExtractFocal(ctx context.Context, report *Report) error {
	if err := r.discover(report); err != nil {
		return err
	}
	if err := r.stage(ctx, "focal", func(ctx context.Context, logger *slog.Logger) error {
		return r.estimateFocal(ctx, logger, report)
	}); err != nil {
		return err
	}
	path := filepath.Join(r.workDir, r.cfg.Extraction.ListFile)
	if err := focal.WriteListFile(path, report.Focal); err != nil {
		return services.Wrap(services.ErrConfiguration, "focal", "write image list", r.cfg.Extraction.ListFile, err)
	}
	report.ListFile = r.cfg.Extraction.ListFile
	return nil
}

func (r *Runner) discover(report *Report) error {
	images, err := Discover(r.workDir, r.cfg.Extraction.ImageExtensions)
	if err != nil {
		return err
	}
	report.Images = images
	r.logger.Info("images discovered", logging.Int("images", len(images)))
	return nil
}

func (r *Runner) estimateFocal(ctx context.Context, logger *slog.Logger, report *Report) error {
	results, err := focal.Extract(ctx, r.workDir, report.Images, r.table, r.cfg.Extraction.FocalScale, logger)
	if err != nil {
		return err
	}
	report.Focal = results
	if results.Known() < results.Len() {
		logging.WarnWithContext(logger, "focal length undetermined for some images", "focal_undetermined",
			logging.Int("undetermined", results.Len()-results.Known()),
			logging.Int("images", results.Len()),
			logging.Impact("bundler initializes those cameras without a focal estimate"),
		)
	}
	r.recordFocal(ctx, report.RunID, results)
	return nil
}

func (r *Runner) bundle(ctx context.Context, logger *slog.Logger, report *Report) error {
	opts := bundler.OptionsFromConfig(r.cfg.Bundler, report.MatchesFile)
	report.OutputDir = opts.OutputDir
	if r.imageList != "" {
		logger.Debug("using existing image list", logging.String("list", r.imageList))
		report.ListFile = r.imageList
		return r.bundler.RunWithList(ctx, r.workDir, r.imageList, opts, r.cfg.Bundler.OptionsFile)
	}
	return r.bundler.RunWithResults(ctx, r.workDir, report.Focal, opts, r.cfg.Bundler.OptionsFile)
}

// stage runs fn with stage context attached and logs its boundaries.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context, *slog.Logger) error) error {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, r.logger)
	start := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := fn(ctx, logger); err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return nil
}
