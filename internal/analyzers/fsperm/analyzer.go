package fsperm

import (
	"context"
	"fmt"
	"log/slog"

	"isafw/internal/analysis"
)

func init() {
	analysis.Register(&Analyzer{})
}

type Analyzer struct{}

func (a *Analyzer) Kind() analysis.Kind { return analysis.KindFilesystem }
func (a *Analyzer) Title() string       { return "Filesystem Analyzer" }
func (a *Analyzer) Description() string {
	return "Flags world-writable entries, world-writable directories without the sticky bit, and writable setuid/setgid files."
}

func (a *Analyzer) Reports() analysis.ReportSpec {
	return analysis.ReportSpec{Prefix: "fsa", Full: true, ProblemsWhenEmpty: true}
}

func (a *Analyzer) Analyze(ctx context.Context, t analysis.Target, _ analysis.Policy) (analysis.ReportPair, error) {
	entries, skipped, err := Walk(ctx, t.Path, t.Concurrency)
	if err != nil {
		return analysis.ReportPair{}, fmt.Errorf("filesystem root: %w", err)
	}

	pair := analysis.ReportPair{Skipped: skipped}
	for _, e := range entries {
		f := analysis.Fact{Key: e.Path, Value: e.Describe()}
		pair.Full = append(pair.Full, f)
		for _, flag := range Classify(e) {
			pair.Problems = append(pair.Problems, analysis.Problem{Fact: f, Flag: flag})
		}
	}
	for _, s := range skipped {
		slog.Debug("entry skipped", "target", t.ID(), "path", s.Key, "reason", s.Reason)
	}
	pair.Sort()
	slog.Debug("filesystem walked",
		"root", t.Path, "entries", len(entries), "skipped", len(skipped), "problems", len(pair.Problems))
	return pair, nil
}
