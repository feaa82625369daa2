package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"isafw/internal/analysis"
	"isafw/internal/baseline"
	"isafw/internal/config"
	"isafw/internal/report"
)

func exitCodeForRun(fatal, partial, wrongs bool) int {
	// Exit code contract:
	// 0 = clean run, no problems
	// 1 = problems detected
	// 2 = partial failure (some targets errored)
	// 3 = fatal error (nothing was analysed)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if wrongs {
		return 1
	}
	return 0
}

type Engine struct {
	Loader *baseline.Loader

	// Stdout receives console and emitted output; nil means os.Stdout.
	Stdout io.Writer
}

func NewEngine(loader *baseline.Loader) *Engine {
	return &Engine{Loader: loader}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*report.Manager, error) {
	outMgr := report.NewManager()

	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(report.NewConsoleSink(e.stdout())); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		fs, err := report.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Report != "" {
		rs, err := report.NewMarkdownSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	for _, emit := range cfg.Output.Emit {
		es, err := report.NewEmitSink(e.stdout(), emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}
	return outMgr, nil
}

// policyFor loads only the policy tables kind needs. Loads are shared across
// targets by the Loader.
func (e *Engine) policyFor(kind analysis.Kind, p config.Policy) (analysis.Policy, error) {
	var pol analysis.Policy
	var err error
	switch kind {
	case analysis.KindKernel:
		pol.Kernel, err = e.Loader.Catalog(p.KernelBaseline, baseline.DefaultKernel)
	case analysis.KindConfigFiles:
		pol.ConfigFiles, err = e.Loader.Catalog(p.ConfigBaseline, baseline.DefaultConfigFiles)
	case analysis.KindLicense:
		pol.Licenses, err = e.Loader.AllowList(p.Licenses, baseline.DefaultLicenses)
	}
	if err != nil {
		return analysis.Policy{}, fmt.Errorf("load %s policy: %w", kind, err)
	}
	return pol, nil
}

// checkTargets rejects runs that cannot produce meaningful reports: unknown
// kinds, and targets that would overwrite each other's report files.
func checkTargets(targets []analysis.Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("no targets to analyse")
	}
	owners := make(map[string]string)
	for _, t := range targets {
		a, err := analysis.Lookup(t.Kind)
		if err != nil {
			return fmt.Errorf("%s: %w", t.ID(), err)
		}
		name := filepath.Join(t.ReportDir, report.Name(a.Reports().ProblemsType(), t))
		if prev, dup := owners[name]; dup {
			return fmt.Errorf("targets %s and %s would both write %s; give them distinct images", prev, t.ID(), name)
		}
		owners[name] = t.ID()
	}
	return nil
}

// analyseTarget runs one target to completion. It never returns an error: an
// input error becomes a FAILED summary and leaves no report files.
func (e *Engine) analyseTarget(ctx context.Context, cfg *config.Config, t analysis.Target) report.Summary {
	fail := func(err error) report.Summary {
		err = &analysis.TargetError{Target: t.ID(), Err: err}
		slog.Error("target failed", "target", t.ID(), "err", err)
		return report.FailedSummary(t, err)
	}

	a, err := analysis.Lookup(t.Kind)
	if err != nil {
		return fail(err)
	}
	pol, err := e.policyFor(t.Kind, cfg.Policy)
	if err != nil {
		return fail(err)
	}
	slog.Debug("analysing target", "target", t.ID(), "analyzer", a.Title(), "arch", t.Arch)

	pair, err := a.Analyze(ctx, t, pol)
	if err != nil {
		return fail(err)
	}
	pair.Sort()

	files, err := report.WritePair(t, a.Reports(), pair)
	if err != nil {
		return fail(fmt.Errorf("write reports: %w", err))
	}
	return report.NewSummary(t, pair, files)
}

// Run analyses every target, at most cfg.Runtime.Concurrency at a time, and
// returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config, targets []analysis.Target) int {
	if err := checkTargets(targets); err != nil {
		slog.Error("cannot start audit", "err", err)
		return exitCodeForRun(true, false, false)
	}

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		slog.Error("cannot create output sinks", "err", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	_ = outMgr.RunStarted(len(targets))

	g := new(errgroup.Group)
	g.SetLimit(max(cfg.Runtime.Concurrency, 1))
	for _, t := range targets {
		g.Go(func() error {
			_ = outMgr.TargetStarted(t)
			_ = outMgr.TargetFinished(e.analyseTarget(ctx, cfg, t))
			return nil
		})
	}
	_ = g.Wait()

	out := outMgr.Outcome()
	code := exitCodeForRun(out.Failed == len(targets), out.Failed > 0, out.Problems > 0)
	_ = outMgr.RunFinished(code)
	return code
}
