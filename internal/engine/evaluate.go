package engine

import (
	"isafw/internal/analysis"
	"isafw/internal/baseline"
)

type Status string

const (
	StatusPass          Status = "PASS"
	StatusFail          Status = "FAIL"
	StatusNotApplicable Status = "NOT_APPLICABLE"
)

// Verdict is the outcome of comparing one fact with the baseline. Expected is
// only meaningful when Status is not StatusNotApplicable.
type Verdict struct {
	Status   Status
	Fact     analysis.Fact
	Expected string
}

// Evaluate compares fact with the value the catalog expects on arch. It has
// no side effects: the same inputs always give the same verdict.
func Evaluate(fact analysis.Fact, arch string, c *baseline.Catalog) Verdict {
	expected, ok := c.Lookup(fact.Key, arch)
	if !ok {
		return Verdict{Status: StatusNotApplicable, Fact: fact}
	}
	v := Verdict{Status: StatusFail, Fact: fact, Expected: expected}
	if baseline.Normalize(fact.Value) == baseline.Normalize(expected) {
		v.Status = StatusPass
	}
	return v
}

// Split evaluates facts and separates them into the full and problems
// sections. Facts the catalog has no opinion about appear in neither.
func Split(facts []analysis.Fact, arch string, c *baseline.Catalog) analysis.ReportPair {
	var pair analysis.ReportPair
	for _, f := range facts {
		v := Evaluate(f, arch, c)
		switch v.Status {
		case StatusPass:
			pair.Full = append(pair.Full, f)
		case StatusFail:
			pair.Full = append(pair.Full, f)
			pair.Problems = append(pair.Problems, analysis.Mismatch(f, v.Expected))
		}
	}
	pair.Sort()
	return pair
}
