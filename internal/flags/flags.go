package flags

// Package flags defines canonical CLI flag names shared across the CLI, the
// config file loader and validation messages. The same names are the keys of
// the optional isafw.yaml config file.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Target.Machine, flags.FlagMachine, "", "...")
//	arg := "--" + flags.FlagMachine
const (
	FlagConfig = "config"

	// Target
	FlagMachine       = "machine"
	FlagImage         = "image"
	FlagTimestamp     = "timestamp"
	FlagReportDir     = "report-dir"
	FlagArch          = "arch"
	FlagNoFullReports = "no-full-reports"

	// Policy
	FlagKernelBaseline = "kernel-baseline"
	FlagConfigBaseline = "config-baseline"
	FlagLicenses       = "licenses"
	FlagKeyring        = "keyring"

	// Output
	FlagReport    = "report"
	FlagOut       = "out"
	FlagOutFormat = "out-format"
	FlagEmit      = "emit"
	FlagNoConsole = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagLogLevel    = "log-level"
	FlagVerbose     = "verbose"

	// Per-command inputs
	FlagKernelConfig = "kernel-config"
	FlagRoot         = "root"
	FlagPackage      = "package"
	FlagVersion      = "version"
	FlagLicense      = "license"
	FlagManifest     = "manifest"
	FlagKind         = "kind"
)
