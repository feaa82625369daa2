package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Fact is one observed (key, value) pair.
type Fact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (f Fact) String() string {
	return fmt.Sprintf("%s: %s", escape(f.Key), escape(f.Value))
}

// escape quotes s when it holds control characters, line separators or
// invalid UTF-8, so every rendered fact stays on one report line.
func escape(s string) string {
	if !utf8.ValidString(s) {
		return strconv.Quote(s)
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.In(r, unicode.Zl, unicode.Zp) {
			return strconv.Quote(s)
		}
	}
	return s
}

// Problem is a fact that deviates from policy. Baseline-driven analyzers set
// Expected through Mismatch, classifier-driven analyzers set Flag. A problem
// with neither is rendered as its key alone.
type Problem struct {
	Fact
	Expected    string `json:"expected,omitempty"`
	HasExpected bool   `json:"-"`
	Flag        string `json:"flag,omitempty"`
}

// Mismatch is a fact whose value differs from the expected one. An empty
// expected value is still rendered.
func Mismatch(f Fact, expected string) Problem {
	return Problem{Fact: f, Expected: expected, HasExpected: true}
}

func (p Problem) String() string {
	switch {
	case p.Flag != "":
		return fmt.Sprintf("%s: %s %s", escape(p.Key), p.Flag, escape(p.Value))
	case p.HasExpected:
		expected := escape(p.Expected)
		if expected == "" {
			expected = `""`
		}
		return fmt.Sprintf("%s: %s (expected: %s)", escape(p.Key), escape(p.Value), expected)
	case p.Value == "":
		return escape(p.Key)
	}
	return p.Fact.String()
}

// Skipped records an entry that could not be classified.
type Skipped struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

func (s Skipped) String() string {
	return fmt.Sprintf("%s: skipped (%s)", escape(s.Key), escape(s.Reason))
}

// ReportPair is everything one target produced.
type ReportPair struct {
	Full     []Fact
	Problems []Problem
	Skipped  []Skipped
}

// Sort orders every section by key so rendering is reproducible.
func (p *ReportPair) Sort() {
	sort.SliceStable(p.Full, func(i, j int) bool { return p.Full[i].Key < p.Full[j].Key })
	sort.SliceStable(p.Problems, func(i, j int) bool {
		if p.Problems[i].Key != p.Problems[j].Key {
			return p.Problems[i].Key < p.Problems[j].Key
		}
		return p.Problems[i].Flag < p.Problems[j].Flag
	})
	sort.SliceStable(p.Skipped, func(i, j int) bool { return p.Skipped[i].Key < p.Skipped[j].Key })
}

// FullLines renders the full report, skipped entries included.
func (p ReportPair) FullLines() []string {
	out := make([]string, 0, len(p.Full)+len(p.Skipped))
	for _, f := range p.Full {
		out = append(out, f.String())
	}
	for _, s := range p.Skipped {
		out = append(out, s.String())
	}
	return out
}

func (p ReportPair) ProblemLines() []string {
	out := make([]string, 0, len(p.Problems))
	for _, pr := range p.Problems {
		out = append(out, pr.String())
	}
	return out
}
