package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"isafw/internal/config"
	"isafw/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// exitCode carries a process exit status out of a command.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

// NewRootCommand builds the command tree around a fresh configuration.
func NewRootCommand() *cobra.Command {
	cfg := config.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "isafw",
		Short: "Audit a built OS image against a security hardening baseline",
		Long: `isafw audits an unpacked operating-system image before release.

It compares the kernel build configuration and service configuration files with
an architecture-aware hardening baseline, classifies filesystem permissions and
checks package licenses against an approved track. Every analysis writes a full
report of what was observed and a problems report of what deviates.

Examples:
	# Check a kernel config for an ARM image
	isafw kernel --kernel-config build/.config --arch arm --machine qemuarm

	# Check filesystem permissions of an unpacked rootfs
	isafw fs --root build/rootfs --image core-image-minimal

	# Run several targets described in a manifest
	isafw audit --manifest targets.yaml

	# Inspect the built-in baseline
	isafw baseline list --arch arm

Configuration:
	Flags may also be set in isafw.yaml (current directory or /etc/isafw/, or
	--config), using the flag names as keys, and through ISAFW_* environment
	variables (ISAFW_REPORT_DIR=...). Explicit flags win.

Exit codes:
	0 = clean run, no problems
	1 = problems detected
	2 = partial failure (some targets failed)
	3 = fatal error (nothing was analysed)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate),
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, flags.FlagConfig, "", "Config file (default: ./isafw.yaml or /etc/isafw/isafw.yaml)")

	// Target
	pf.StringVar(&cfg.Target.Machine, flags.FlagMachine, "", "Machine name embedded in report file names")
	pf.StringVar(&cfg.Target.Image, flags.FlagImage, "", "Image name embedded in report file names")
	pf.StringVar(&cfg.Target.Timestamp, flags.FlagTimestamp, "", "Timestamp embedded in report file names (default: now, YYYYMMDDhhmmss)")
	pf.StringVar(&cfg.Target.ReportDir, flags.FlagReportDir, cfg.Target.ReportDir, "Directory reports are written to")
	pf.StringVar(&cfg.Target.Arch, flags.FlagArch, cfg.Target.Arch, "Target architecture for baseline expectations (x86, arm, ...)")
	noFull := pf.Bool(flags.FlagNoFullReports, false, "Only write problems reports")

	// Policy
	pf.StringVar(&cfg.Policy.KernelBaseline, flags.FlagKernelBaseline, "", "Kernel baseline catalog (default: built-in)")
	pf.StringVar(&cfg.Policy.ConfigBaseline, flags.FlagConfigBaseline, "", "Configuration file baseline catalog (default: built-in)")
	pf.StringVar(&cfg.Policy.Licenses, flags.FlagLicenses, "", "Approved license track, one token per line (default: built-in)")
	pf.StringVar(&cfg.Policy.Keyring, flags.FlagKeyring, "", "OpenPGP keyring; policy files read from disk must carry a valid .asc or .sig signature")

	// Output
	pf.StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown audit summary to this path")
	pf.StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write the structured result stream to this file")
	pf.StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Format for --out: json|ndjson (inferred from the extension when omitted)")
	pf.StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	pf.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress the console summary (use with --emit)")

	// Runtime
	pf.IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Targets and filesystem subtrees processed concurrently")
	pf.StringVar(&cfg.Runtime.LogLevel, flags.FlagLogLevel, cfg.Runtime.LogLevel, "Log level: debug|info|warn|error")
	pf.BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable debug logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := applyConfigSources(cmd, cfgFile); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return exitCode(3)
		}
		cfg.Target.FullReports = !*noFull
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return exitCode(3)
		}
		return initLogging(cmd, cfg)
	}

	root.AddCommand(
		newKernelCommand(cfg),
		newFilesystemCommand(cfg),
		newConfigFilesCommand(cfg),
		newLicenseCommand(cfg),
		newAuditCommand(cfg),
		newBaselineCommand(cfg),
		newVersionCommand(),
	)
	return root
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()

	var code exitCode
	switch {
	case err == nil:
		return
	case errors.As(err, &code):
		os.Exit(int(code))
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
