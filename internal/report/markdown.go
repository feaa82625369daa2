package report

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"isafw/internal/analysis"
)

// MarkdownSink collects target summaries and writes a human readable audit
// report on Close.
type MarkdownSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	summaries    []Summary
	exitCode     int
	haveExitCode bool
}

func NewMarkdownSink(path string) (*MarkdownSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return &MarkdownSink{path: path, file: f}, nil
}

func (s *MarkdownSink) WriteEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Type == "run.finished" {
		s.exitCode = ev.ExitCode
		s.haveExitCode = true
	}
	return nil
}

func (s *MarkdownSink) WriteSummary(sum Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, sum)
	return nil
}

type kindStats struct {
	Kind     analysis.Kind
	Targets  int
	Problems int
	Failed   int
}

func (s *MarkdownSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sums := slices.Clone(s.summaries)
	slices.SortFunc(sums, func(a, b Summary) int { return strings.Compare(a.Target, b.Target) })

	byKind := make(map[analysis.Kind]*kindStats)
	var failed, withProblems []Summary
	for _, sum := range sums {
		ks, ok := byKind[sum.Kind]
		if !ok {
			ks = &kindStats{Kind: sum.Kind}
			byKind[sum.Kind] = ks
		}
		ks.Targets++
		ks.Problems += sum.Problems
		switch sum.Status {
		case StatusFailed:
			ks.Failed++
			failed = append(failed, sum)
		case StatusProblems:
			withProblems = append(withProblems, sum)
		}
	}

	var b strings.Builder
	b.WriteString("# Image Security Audit\n\n")
	if s.haveExitCode {
		fmt.Fprintf(&b, "Analysed %d targets, exit code %d.\n\n", len(sums), s.exitCode)
	} else {
		fmt.Fprintf(&b, "Analysed %d targets.\n\n", len(sums))
	}

	b.WriteString("## Analyzers\n\n")
	if len(byKind) == 0 {
		b.WriteString("No targets.\n\n")
	} else {
		b.WriteString("| Analyzer | Targets | Problems | Failed |\n")
		b.WriteString("| --- | ---: | ---: | ---: |\n")
		kinds := make([]*kindStats, 0, len(byKind))
		for _, ks := range byKind {
			kinds = append(kinds, ks)
		}
		slices.SortFunc(kinds, func(a, b *kindStats) int { return strings.Compare(string(a.Kind), string(b.Kind)) })
		for _, ks := range kinds {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", ks.Kind, ks.Targets, ks.Problems, ks.Failed)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Problems\n\n")
	if len(withProblems) == 0 {
		b.WriteString("No problems found.\n\n")
	} else {
		// Most problems first; ties keep target order.
		slices.SortStableFunc(withProblems, func(a, b Summary) int { return cmp.Compare(b.Problems, a.Problems) })
		for _, sum := range withProblems {
			fmt.Fprintf(&b, "### %s\n\n", sum.Target)
			if sum.Files.Problems != "" {
				fmt.Fprintf(&b, "Report: `%s`\n\n", sum.Files.Problems)
			}
			for _, p := range sum.Findings {
				fmt.Fprintf(&b, "- `%s`\n", p.String())
			}
			b.WriteString("\n")
		}
	}

	if len(failed) > 0 {
		b.WriteString("## Failed Targets\n\n")
		b.WriteString("These targets were not analysed and have no report files.\n\n")
		for _, sum := range failed {
			fmt.Fprintf(&b, "- **%s**: %s\n", sum.Target, sum.Error)
		}
		b.WriteString("\n")
	}

	_, err := s.file.WriteString(b.String())
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
