package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"isafw/internal/analysis"
	"isafw/internal/baseline"
	"isafw/internal/engine"
)

func init() {
	analysis.Register(&Analyzer{})
}

type Analyzer struct{}

func (a *Analyzer) Kind() analysis.Kind { return analysis.KindKernel }
func (a *Analyzer) Title() string       { return "Kernel Configuration Analyzer" }
func (a *Analyzer) Description() string {
	return "Compares kernel build options against the hardening baseline for the target architecture."
}

func (a *Analyzer) Reports() analysis.ReportSpec {
	return analysis.ReportSpec{Prefix: "kca", Full: true, ProblemsWhenEmpty: true}
}

// Analyze parses the config at t.Path. Baseline options missing from the file
// are reported as not set, since Kconfig omits options whose dependencies are
// disabled.
func (a *Analyzer) Analyze(ctx context.Context, t analysis.Target, p analysis.Policy) (analysis.ReportPair, error) {
	if p.Kernel == nil {
		return analysis.ReportPair{}, errors.New("no kernel baseline loaded")
	}
	if t.Arch == "" {
		return analysis.ReportPair{}, errors.New("target architecture required")
	}
	values, err := ParseFile(t.Path)
	if err != nil {
		return analysis.ReportPair{}, fmt.Errorf("kernel config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return analysis.ReportPair{}, err
	}

	facts := make([]analysis.Fact, 0, len(values))
	for k, v := range values {
		facts = append(facts, analysis.Fact{Key: k, Value: v})
	}
	missing := 0
	for _, k := range p.Kernel.Keys(t.Arch) {
		if _, ok := values[k]; !ok {
			facts = append(facts, analysis.Fact{Key: k, Value: baseline.NotSet})
			missing++
		}
	}

	pair := engine.Split(facts, t.Arch, p.Kernel)
	slog.Debug("kernel config evaluated",
		"path", t.Path, "arch", t.Arch, "options", len(values),
		"absent", missing, "evaluated", len(pair.Full), "problems", len(pair.Problems))
	return pair, nil
}
