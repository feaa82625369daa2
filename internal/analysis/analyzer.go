package analysis

import (
	"context"

	"isafw/internal/baseline"
)

// Policy is the read-only policy data shared by every analysis in a run.
type Policy struct {
	Kernel      *baseline.Catalog
	ConfigFiles *baseline.Catalog
	Licenses    *baseline.AllowList
}

// ReportSpec describes which files an analyzer produces.
type ReportSpec struct {
	// Prefix is the short analyzer name ("kca", "fsa", ...).
	Prefix string
	// Full is false for analyzers that only ever report violations.
	Full bool
	// ProblemsWhenEmpty writes the problems file even if it has no lines.
	ProblemsWhenEmpty bool
}

func (s ReportSpec) FullType() string     { return s.Prefix + "_full_report" }
func (s ReportSpec) ProblemsType() string { return s.Prefix + "_problems_report" }

type Analyzer interface {
	Kind() Kind
	Title() string
	Description() string
	Reports() ReportSpec

	// Analyze reads the target and produces its facts. A returned error is an
	// input error for the whole target; per-entry failures belong in
	// ReportPair.Skipped.
	Analyze(ctx context.Context, t Target, p Policy) (ReportPair, error)
}
