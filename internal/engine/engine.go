package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"tondev/internal/config"
	"tondev/internal/output"
	"tondev/internal/rules"

	"go.uber.org/zap"
)

// Engine runs one audit: select rules, collect files, scan them, and hand the
// report to every configured sink.
type Engine struct {
	Catalog *rules.Catalog

	// Uploader receives the SARIF upload when cfg.Upload.Repo is set.
	Uploader output.SARIFUploader

	// Stdout receives the console rendering; Stderr receives errors and
	// warnings. nil means os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Color enables ANSI colors in the console table. cfg.Output.NoColor
	// always wins.
	Color bool

	Tool output.ToolInfo
	Log  *zap.SugaredLogger

	// now is a test seam. If nil, time.Now is used.
	now func() time.Time
}

func NewEngine(catalog *rules.Catalog, log *zap.SugaredLogger) *Engine {
	if catalog == nil {
		catalog = rules.Builtin()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		Catalog: catalog,
		Log:     log,
		Tool:    output.ToolInfo{Name: "ton-dev"},
	}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

func (e *Engine) logger() *zap.SugaredLogger {
	if e.Log == nil {
		return zap.NewNop().Sugar()
	}
	return e.Log
}

func (e *Engine) setupOutputManager(ctx context.Context, cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	workDir, _ := os.Getwd()
	opts := output.RenderOptions{
		Table: output.TableOptions{WorkDir: workDir, Color: e.Color && !cfg.Output.NoColor},
		Tool:  e.Tool,
	}

	add := func(s output.Sink, err error) error {
		if err != nil {
			return err
		}
		return outMgr.AddSink(s)
	}

	// Console Sink
	if !cfg.Output.NoConsole {
		cs, err := output.NewConsoleSink(e.stdout(), cfg.Output.Format, opts)
		if err := add(cs, err); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat, opts)
		if err := add(fs, err); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report, e.Catalog)
		if err := add(rs, err); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Upload Sink
	if cfg.Upload.Repo != "" {
		if e.Uploader == nil {
			outMgr.Close()
			return nil, errors.New("sarif upload requested but no GitHub client is configured")
		}
		us, err := output.NewUploadSink(ctx, e.Uploader, output.UploadTarget{
			Repo: cfg.Upload.Repo,
			Ref:  cfg.Upload.Ref,
			SHA:  cfg.Upload.SHA,
		}, e.Tool)
		if err := add(us, err); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func (e *Engine) resolveRules(cfg *config.Config) ([]rules.Rule, bool) {
	selected, err := e.Catalog.Resolve(cfg.Rules.Selector)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error resolving rules: %v\n", err)
		return nil, false
	}
	e.logger().Debugw("Selected rules", "count", len(selected))
	return selected, true
}

func (e *Engine) collectFiles(cfg *config.Config) ([]string, bool) {
	target := cfg.Targeting.Path
	if target == "" {
		target = "."
	}
	files, err := CollectFiles(target, FileFilter{
		Include:        cfg.Targeting.Include,
		Exclude:        cfg.Targeting.Exclude,
		MaxFiles:       cfg.Targeting.MaxFiles,
		SkipUnreadable: cfg.Runtime.OnUnreadable == config.OnUnreadableSkip,
	})
	if err != nil {
		if errors.Is(err, ErrPathNotFound) {
			fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		} else {
			fmt.Fprintf(e.stderr(), "Error collecting files: %v\n", err)
		}
		return nil, false
	}
	e.logger().Debugw("Collected files", "target", target, "count", len(files))
	return files, true
}

// Run executes an audit and returns the process exit code: 0 clean, 1 when
// findings exist, 2 when any finding is critical and 3 when the audit could
// not complete.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(e.stderr(), "Warning: %s\n", w)
	}

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	selected, ok := e.resolveRules(cfg)
	if !ok {
		return ExitFatal
	}

	// Sinks open their files up front so an unwritable --out or --report
	// fails before any scanning happens.
	outMgr, err := e.setupOutputManager(ctx, cfg)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error creating output sinks: %v\n", err)
		return ExitFatal
	}
	closed := false
	defer func() {
		if !closed {
			outMgr.Close()
		}
	}()

	files, ok := e.collectFiles(cfg)
	if !ok {
		return ExitFatal
	}

	var suppressions *rules.Suppressions
	if len(cfg.Rules.Ignore) > 0 {
		suppressions = rules.NewSuppressions(cfg.Rules.Ignore)
	}
	scheduler, err := NewScheduler(selected, ScanOptions{
		Suppressions: suppressions,
		IgnoreRoot:   cfg.Rules.IgnoreRoot,
	}, cfg.Runtime.Concurrency, cfg.Runtime.OnUnreadable == config.OnUnreadableSkip, e.logger())
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		return ExitFatal
	}

	outcome, err := scheduler.Execute(ctx, files)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			fmt.Fprintf(e.stderr(), "Error: audit timed out after %s\n", cfg.Runtime.Timeout)
		case errors.Is(err, ErrUnreadableFile):
			fmt.Fprintf(e.stderr(), "Error: %v (use --on-unreadable skip to continue past it)\n", err)
		default:
			fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		}
		return ExitFatal
	}

	now := time.Now
	if e.now != nil {
		now = e.now
	}
	report := Aggregate(outcome.Results, len(outcome.Results), len(outcome.Skipped), now())

	writeErr := outMgr.Write(report)
	closeErr := outMgr.Close()
	closed = true
	if writeErr != nil || closeErr != nil {
		fmt.Fprintf(e.stderr(), "Error writing results: %v\n", errors.Join(writeErr, closeErr))
		return ExitFatal
	}

	e.logger().Debugw("Audit finished", "files", report.Summary.ScannedFiles, "findings", report.Summary.TotalFindings)
	return ExitCode(report.Findings)
}
