package configfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"isafw/internal/analysis"
	"isafw/internal/analyzers/fsperm"
	"isafw/internal/baseline"
	"isafw/internal/engine"
)

const FlagDangerousCapability = "dangerous-capability"

func init() {
	analysis.Register(&Analyzer{})
}

type Analyzer struct{}

func (a *Analyzer) Kind() analysis.Kind { return analysis.KindConfigFiles }
func (a *Analyzer) Title() string       { return "Configuration File Analyzer" }
func (a *Analyzer) Description() string {
	return "Checks service configuration directives against the baseline and lists files with capabilities."
}

func (a *Analyzer) Reports() analysis.ReportSpec {
	return analysis.ReportSpec{Prefix: "cfa", Full: true, ProblemsWhenEmpty: true}
}

func (a *Analyzer) Analyze(ctx context.Context, t analysis.Target, p analysis.Policy) (analysis.ReportPair, error) {
	if p.ConfigFiles == nil {
		return analysis.ReportPair{}, errors.New("no configuration file baseline loaded")
	}
	info, err := os.Stat(t.Path)
	if err != nil {
		return analysis.ReportPair{}, fmt.Errorf("filesystem root: %w", err)
	}
	if !info.IsDir() {
		return analysis.ReportPair{}, fmt.Errorf("filesystem root: %s: not a directory", t.Path)
	}

	facts, skipped := directiveFacts(t, p.ConfigFiles)
	pair := engine.Split(facts, t.Arch, p.ConfigFiles)
	pair.Skipped = append(pair.Skipped, skipped...)

	capFacts, capProblems, capSkipped, err := capabilityFacts(ctx, t)
	if err != nil {
		return analysis.ReportPair{}, err
	}
	pair.Full = append(pair.Full, capFacts...)
	pair.Problems = append(pair.Problems, capProblems...)
	pair.Skipped = append(pair.Skipped, capSkipped...)
	pair.Sort()

	slog.Debug("configuration files evaluated",
		"root", t.Path, "directives", len(facts), "capabilities", len(capFacts), "problems", len(pair.Problems))
	return pair, nil
}

// directiveFacts reads every file the catalog mentions. Keys of files missing
// from the image produce no facts.
func directiveFacts(t analysis.Target, c *baseline.Catalog) ([]analysis.Fact, []analysis.Skipped) {
	byFile := map[string][]string{}
	var files []string
	var facts []analysis.Fact
	var skipped []analysis.Skipped
	for _, key := range c.Keys(t.Arch) {
		path, _, ok := splitKey(key)
		if !ok {
			slog.Warn("ignoring malformed config-files key", "key", key, "catalog", c.Source())
			continue
		}
		if _, seen := byFile[path]; !seen {
			files = append(files, path)
		}
		byFile[path] = append(byFile[path], key)
	}
	sort.Strings(files)

	root, err := os.OpenRoot(t.Path)
	if err != nil {
		for _, path := range files {
			skipped = append(skipped, analysis.Skipped{Key: path, Reason: err.Error()})
		}
		return nil, skipped
	}
	defer root.Close()

	for _, path := range files {
		directives, err := readDirectives(root, t.Path, path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("config file not present in image", "target", t.ID(), "file", path)
			continue
		}
		if err != nil {
			skipped = append(skipped, analysis.Skipped{Key: path, Reason: err.Error()})
			continue
		}
		for _, key := range byFile[path] {
			_, directive, _ := splitKey(key)
			value, ok := directives[strings.ToLower(directive)]
			if !ok {
				value = baseline.NotSet
			}
			facts = append(facts, analysis.Fact{Key: key, Value: value})
		}
	}
	return facts, skipped
}

// readDirectives opens path as seen from inside the image: symlinks resolve
// against imageRoot, absolute ones included, and never leave it.
func readDirectives(root *os.Root, imageRoot, path string) (map[string]string, error) {
	resolved, err := securejoin.SecureJoin(imageRoot, path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(imageRoot, resolved)
	if err != nil {
		return nil, err
	}
	info, err := root.Lstat(rel)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file (%s)", info.Mode().Type())
	}
	f, err := root.Open(rel)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseDirectives(f)
}

func capabilityFacts(ctx context.Context, t analysis.Target) ([]analysis.Fact, []analysis.Problem, []analysis.Skipped, error) {
	entries, skipped, err := fsperm.Walk(ctx, t.Path, t.Concurrency)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("filesystem root: %w", err)
	}

	var facts []analysis.Fact
	var problems []analysis.Problem
	for _, e := range entries {
		if !e.IsRegular() {
			continue
		}
		raw, ok, err := readCapabilities(filepath.Join(t.Path, filepath.FromSlash(e.Path)))
		if err != nil {
			skipped = append(skipped, analysis.Skipped{Key: e.Path, Reason: err.Error()})
			continue
		}
		if !ok {
			continue
		}
		f, flagged, err := capabilityFact(e.Path, raw)
		if err != nil {
			skipped = append(skipped, analysis.Skipped{Key: e.Path, Reason: err.Error()})
			continue
		}
		facts = append(facts, f)
		if flagged {
			problems = append(problems, analysis.Problem{Fact: f, Flag: FlagDangerousCapability})
		}
	}
	return facts, problems, skipped, nil
}

func capabilityFact(path string, raw []byte) (analysis.Fact, bool, error) {
	cs, err := DecodeCapabilities(raw)
	if err != nil {
		return analysis.Fact{}, false, err
	}
	f := analysis.Fact{Key: path + ":capabilities", Value: cs.String()}
	return f, len(cs.Dangerous()) > 0, nil
}
