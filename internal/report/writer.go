package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"isafw/internal/analysis"
)

// Name builds "<type>_<machine>_<timestamp>_<image>". Empty components are
// dropped together with their separator.
func Name(reportType string, t analysis.Target) string {
	parts := []string{reportType}
	for _, p := range []string{t.Machine, t.Timestamp, t.Image} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}

// Files are the paths written for one target. An empty path means the file
// was not produced.
type Files struct {
	Full     string `json:"full_report,omitempty"`
	Problems string `json:"problems_report,omitempty"`
}

// WritePair renders pair into the target's report directory. The pair is
// written only after every file was staged, so a failure leaves no partial
// reports behind.
func WritePair(t analysis.Target, spec analysis.ReportSpec, pair analysis.ReportPair) (Files, error) {
	if t.ReportDir == "" {
		return Files{}, errors.New("report directory required")
	}
	if err := os.MkdirAll(t.ReportDir, 0o755); err != nil {
		return Files{}, fmt.Errorf("failed to create report directory: %w", err)
	}

	type staged struct {
		tmp, dst string
	}
	var pending []staged
	cleanup := func() {
		for _, s := range pending {
			_ = os.Remove(s.tmp)
		}
	}

	var files Files
	stage := func(name string, lines []string) (string, error) {
		dst := filepath.Join(t.ReportDir, name)
		tmp, err := writeTemp(t.ReportDir, lines)
		if err != nil {
			return "", err
		}
		pending = append(pending, staged{tmp: tmp, dst: dst})
		return dst, nil
	}

	if spec.Full && t.FullReports {
		p, err := stage(Name(spec.FullType(), t), pair.FullLines())
		if err != nil {
			cleanup()
			return Files{}, err
		}
		files.Full = p
	}

	problems := pair.ProblemLines()
	problemsName := Name(spec.ProblemsType(), t)
	if len(problems) > 0 || spec.ProblemsWhenEmpty {
		p, err := stage(problemsName, problems)
		if err != nil {
			cleanup()
			return Files{}, err
		}
		files.Problems = p
	}

	for i, s := range pending {
		if err := os.Rename(s.tmp, s.dst); err != nil {
			for _, rest := range pending[i:] {
				_ = os.Remove(rest.tmp)
			}
			return Files{}, fmt.Errorf("failed to write report %s: %w", s.dst, err)
		}
	}

	// Drop reports of the same name left over from an earlier run, so the
	// directory only holds what this run produced. For analyzers that only
	// report violations the presence of a problems file is the signal.
	var stale []string
	if files.Full == "" {
		stale = append(stale, filepath.Join(t.ReportDir, Name(spec.FullType(), t)))
	}
	if files.Problems == "" {
		stale = append(stale, filepath.Join(t.ReportDir, problemsName))
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return files, fmt.Errorf("failed to remove stale report %s: %w", p, err)
		}
	}
	return files, nil
}

func writeTemp(dir string, lines []string) (string, error) {
	f, err := os.CreateTemp(dir, ".isafw-report-*")
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	if _, err := f.WriteString(render(lines)); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	return f.Name(), nil
}

// render sorts and deduplicates lines; every line ends with a newline.
func render(lines []string) string {
	sorted := slices.Clone(lines)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	for _, l := range sorted {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
