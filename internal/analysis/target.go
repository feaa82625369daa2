package analysis

import (
	"errors"
	"fmt"
)

// Kind selects the analyzer that handles a target.
type Kind string

const (
	KindKernel      Kind = "kernel"
	KindFilesystem  Kind = "filesystem"
	KindConfigFiles Kind = "config-files"
	KindLicense     Kind = "license"
)

var ErrUnknownKind = errors.New("unknown target kind")

// ParseKind accepts the canonical kind names and their short aliases.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "kernel", "kca":
		return KindKernel, nil
	case "filesystem", "fs", "fsa":
		return KindFilesystem, nil
	case "config-files", "cfa":
		return KindConfigFiles, nil
	case "license", "la":
		return KindLicense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Package is one installed package and its license declarations, each of the
// form "component:license-expression".
type Package struct {
	Name     string   `yaml:"name" json:"name" validate:"required"`
	Version  string   `yaml:"version" json:"version"`
	Licenses []string `yaml:"licenses" json:"licenses"`
}

// Target is the immutable description of one audited object. It is built once
// per run and passed by value to the analyzer.
type Target struct {
	Kind Kind
	// Path is the kernel config file or the filesystem root.
	Path     string
	Packages []Package

	Arch      string
	Image     string
	Machine   string
	Timestamp string
	ReportDir string

	FullReports bool
	// Concurrency bounds the parallelism an analyzer may use inside the
	// target. Zero means one worker.
	Concurrency int
}

// ID names the target in diagnostics.
func (t Target) ID() string {
	switch {
	case t.Path != "":
		return fmt.Sprintf("%s:%s", t.Kind, t.Path)
	case t.Image != "":
		return fmt.Sprintf("%s:%s", t.Kind, t.Image)
	}
	return string(t.Kind)
}

// TargetError ties an input error to the target that produced it.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string { return fmt.Sprintf("%s: %v", e.Target, e.Err) }
func (e *TargetError) Unwrap() error { return e.Err }
