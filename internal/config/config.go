package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"isafw/internal/analysis"
	"isafw/internal/flags"
)

// TimestampLayout is used when no --timestamp is given.
const TimestampLayout = "20060102150405"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in
	// sync:
	// - flag names in internal/flags
	// - CLI flags in internal/cli/root.go
	// - fieldFlags below, which maps validation errors back to flag names
	Target  Target
	Policy  Policy
	Output  Output
	Runtime Runtime
}

type Target struct {
	// Machine names the device the image was built for (see --machine).
	Machine string `validate:"excludesall=/\\"`

	// Image names the image under audit (see --image).
	Image string `validate:"excludesall=/\\"`

	// Timestamp is embedded in report file names (see --timestamp).
	// Empty means the current time in TimestampLayout.
	Timestamp string `validate:"excludesall=/\\"`

	// ReportDir is where report files are written (see --report-dir).
	ReportDir string `validate:"required"`

	// Arch selects per-architecture baseline expectations (see --arch).
	Arch string `validate:"required,excludesall=/\\ "`

	// FullReports writes full reports next to problems reports (see --no-full-reports).
	FullReports bool
}

type Policy struct {
	// KernelBaseline is a kernel catalog file; empty uses the embedded table (see --kernel-baseline).
	KernelBaseline string

	// ConfigBaseline is a config-files catalog file; empty uses the embedded table (see --config-baseline).
	ConfigBaseline string

	// Licenses is an approved license track; empty uses the embedded default track (see --licenses).
	Licenses string

	// Keyring holds the OpenPGP public keys that must sign every policy file read
	// from disk (see --keyring).
	Keyring string `validate:"omitempty,file"`
}

type Output struct {
	// Report writes a Markdown audit summary to this path (see --report).
	Report string

	// Out writes the structured stream to a file (see --out).
	Out string

	// OutFormat is json or ndjson; empty infers it from the Out extension
	// (see --out-format).
	OutFormat string `validate:"omitempty,oneof=json ndjson"`

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string `validate:"dive,oneof=json ndjson"`

	// NoConsole suppresses the console summary (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency bounds how many targets, and how many subtrees of one
	// filesystem walk, are processed at once (see --concurrency).
	Concurrency int `validate:"min=1,max=256"`

	// LogLevel is one of debug, info, warn, error (see --log-level).
	LogLevel string `validate:"oneof=debug info warn error"`

	// Verbose forces debug logging (see --verbose).
	Verbose bool
}

func New() *Config {
	return &Config{
		Target: Target{
			ReportDir:   "isafw_report",
			Arch:        "x86",
			FullReports: true,
		},
		Runtime: Runtime{
			Concurrency: 4,
			LogLevel:    "info",
		},
	}
}

var validate = validator.New()

// fieldFlags maps struct namespaces reported by the validator to flag names.
var fieldFlags = map[string]string{
	"Config.Target.Machine":      flags.FlagMachine,
	"Config.Target.Image":        flags.FlagImage,
	"Config.Target.Timestamp":    flags.FlagTimestamp,
	"Config.Target.ReportDir":    flags.FlagReportDir,
	"Config.Target.Arch":         flags.FlagArch,
	"Config.Policy.Keyring":      flags.FlagKeyring,
	"Config.Output.OutFormat":    flags.FlagOutFormat,
	"Config.Runtime.Concurrency": flags.FlagConcurrency,
	"Config.Runtime.LogLevel":    flags.FlagLogLevel,
}

// Validate normalizes list and enum inputs, fills defaults that depend on the
// clock and checks every field.
func (c *Config) Validate() error {
	c.Output.Emit = splitCommaList(c.Output.Emit)
	for i, e := range c.Output.Emit {
		c.Output.Emit[i] = normalizeEnumValue(e)
	}
	c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	if c.Runtime.Verbose {
		c.Runtime.LogLevel = "debug"
	}
	c.Target.Arch = strings.TrimSpace(c.Target.Arch)
	if c.Target.Timestamp == "" {
		c.Target.Timestamp = time.Now().Format(TimestampLayout)
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return describe(verrs[0])
		}
		return err
	}
	return nil
}

func describe(fe validator.FieldError) error {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '['); i >= 0 {
		ns = ns[:i]
	}
	name, ok := fieldFlags[ns]
	if !ok && strings.HasPrefix(ns, "Config.Output.Emit") {
		name, ok = flags.FlagEmit, true
	}
	if !ok {
		return fmt.Errorf("invalid %s: failed %q check", fe.Namespace(), fe.Tag())
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("--%s must be provided", name)
	case "oneof":
		return fmt.Errorf("unsupported --%s: %v (must be one of: %s)", name, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "max":
		return fmt.Errorf("--%s must be between 1 and 256, got %v", name, fe.Value())
	case "file":
		return fmt.Errorf("--%s: %v is not a readable file", name, fe.Value())
	case "excludesall":
		return fmt.Errorf("--%s must not contain path separators or spaces: %q", name, fe.Value())
	}
	return fmt.Errorf("invalid --%s: %v", name, fe.Value())
}

// NewTarget builds the immutable run context for one target of kind at path.
func (c *Config) NewTarget(kind analysis.Kind, path string) analysis.Target {
	return analysis.Target{
		Kind:        kind,
		Path:        path,
		Arch:        c.Target.Arch,
		Image:       c.Target.Image,
		Machine:     c.Target.Machine,
		Timestamp:   c.Target.Timestamp,
		ReportDir:   c.Target.ReportDir,
		FullReports: c.Target.FullReports,
		Concurrency: c.Runtime.Concurrency,
	}
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
