package license

import (
	"context"
	"errors"
	"log/slog"

	"github.com/package-url/packageurl-go"

	"isafw/internal/analysis"
)

func init() {
	analysis.Register(&Analyzer{})
}

type Analyzer struct{}

func (a *Analyzer) Kind() analysis.Kind { return analysis.KindLicense }
func (a *Analyzer) Title() string       { return "License Analyzer" }
func (a *Analyzer) Description() string {
	return "Reports package license declarations that are not on the approved license track."
}

// Reports has no full report, and the problems file only exists when a
// declaration was rejected.
func (a *Analyzer) Reports() analysis.ReportSpec {
	return analysis.ReportSpec{Prefix: "la"}
}

func (a *Analyzer) Analyze(ctx context.Context, t analysis.Target, p analysis.Policy) (analysis.ReportPair, error) {
	if p.Licenses == nil {
		return analysis.ReportPair{}, errors.New("no license allow-list loaded")
	}

	var pair analysis.ReportPair
	for _, pkg := range t.Packages {
		if err := ctx.Err(); err != nil {
			return analysis.ReportPair{}, err
		}
		purl := PackageURL(pkg)
		for _, decl := range pkg.Licenses {
			_, expression := SplitDeclaration(decl)
			ok, err := Approved(expression, p.Licenses)
			if err != nil {
				slog.Warn("unparseable license declaration", "package", purl, "declaration", decl, "err", err)
			}
			if ok {
				continue
			}
			slog.Debug("license not approved", "package", purl, "declaration", decl, "track", p.Licenses.Name())
			pair.Problems = append(pair.Problems, analysis.Problem{Fact: analysis.Fact{Key: decl}})
		}
	}
	pair.Sort()
	return pair, nil
}

// PackageURL identifies pkg as "pkg:generic/<name>@<version>".
func PackageURL(pkg analysis.Package) string {
	return packageurl.NewPackageURL(packageurl.TypeGeneric, "", pkg.Name, pkg.Version, nil, "").ToString()
}
