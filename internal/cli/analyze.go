package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"isafw/internal/analysis"
	"isafw/internal/baseline"
	"isafw/internal/config"
	"isafw/internal/engine"
	"isafw/internal/flags"
)

func newLoader(cfg *config.Config) (*baseline.Loader, error) {
	if cfg.Policy.Keyring == "" {
		return baseline.NewLoader(nil), nil
	}
	v, err := baseline.NewVerifier(cfg.Policy.Keyring)
	if err != nil {
		return nil, err
	}
	return baseline.NewLoader(v), nil
}

// runTargets hands targets to the engine and turns its result into the
// command's exit status.
func runTargets(cmd *cobra.Command, cfg *config.Config, targets []analysis.Target) error {
	loader, err := newLoader(cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return exitCode(3)
	}
	eng := engine.NewEngine(loader)
	eng.Stdout = cmd.OutOrStdout()
	if code := eng.Run(cmd.Context(), cfg, targets); code != 0 {
		return exitCode(code)
	}
	return nil
}

func newKernelCommand(cfg *config.Config) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:     "kernel",
		Aliases: []string{"kca"},
		Short:   "Check a kernel build configuration against the hardening baseline",
		Long: `Check a kernel .config (plain, gzip or xz compressed) against the kernel
hardening baseline for --arch.

Options the baseline knows but the file does not mention are reported as
"not set". Writes kca_full_report_* and kca_problems_report_*.

Examples:
  isafw kernel --kernel-config build/.config --arch x86
  isafw kernel --kernel-config /proc/config.gz --arch arm --machine qemuarm
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd, cfg, []analysis.Target{cfg.NewTarget(analysis.KindKernel, path)})
		},
	}
	cmd.Flags().StringVar(&path, flags.FlagKernelConfig, "", "Kernel configuration file")
	_ = cmd.MarkFlagRequired(flags.FlagKernelConfig)
	return cmd
}

func newFilesystemCommand(cfg *config.Config) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:     "fs",
		Aliases: []string{"fsa", "filesystem"},
		Short:   "Classify file and directory permissions of an unpacked root filesystem",
		Long: `Walk an unpacked root filesystem without following symlinks and flag
world-writable entries, world-writable directories without the sticky bit and
setuid/setgid files writable by group or others.

Writes fsa_full_report_* and fsa_problems_report_*.

Examples:
  isafw fs --root build/rootfs --image core-image-minimal
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd, cfg, []analysis.Target{cfg.NewTarget(analysis.KindFilesystem, root)})
		},
	}
	cmd.Flags().StringVar(&root, flags.FlagRoot, "", "Root directory of the unpacked image")
	_ = cmd.MarkFlagRequired(flags.FlagRoot)
	return cmd
}

func newConfigFilesCommand(cfg *config.Config) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:     "cfa",
		Aliases: []string{"config-files"},
		Short:   "Check service configuration files and file capabilities inside an image",
		Long: `Read the configuration files named by the config-files baseline from the
unpacked image and compare their directives, and list every file that carries
Linux file capabilities. Dangerous capabilities are reported as problems.

Writes cfa_full_report_* and cfa_problems_report_*.

Examples:
  isafw cfa --root build/rootfs
  isafw cfa --root build/rootfs --config-baseline policy/configfiles.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd, cfg, []analysis.Target{cfg.NewTarget(analysis.KindConfigFiles, root)})
		},
	}
	cmd.Flags().StringVar(&root, flags.FlagRoot, "", "Root directory of the unpacked image")
	_ = cmd.MarkFlagRequired(flags.FlagRoot)
	return cmd
}

func newLicenseCommand(cfg *config.Config) *cobra.Command {
	var pkg analysis.Package
	cmd := &cobra.Command{
		Use:     "license",
		Aliases: []string{"la"},
		Short:   "Check a package's license declarations against the approved track",
		Long: `Check "component:license-expression" declarations of one package. Operands
joined by & must all be approved, operands joined by | need one.

No full report is written. la_problems_report_* only exists when a declaration
is not approved.

Examples:
  isafw license --package bash --version 4.3 --license "bash:GPLv3+"
  isafw license --package busybox --version 1.23 --license "busybox:GPLv2 & bzip2-1.0.6"
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := cfg.NewTarget(analysis.KindLicense, "")
			t.Packages = []analysis.Package{pkg}
			return runTargets(cmd, cfg, []analysis.Target{t})
		},
	}
	cmd.Flags().StringVar(&pkg.Name, flags.FlagPackage, "", "Package name")
	cmd.Flags().StringVar(&pkg.Version, flags.FlagVersion, "", "Package version")
	cmd.Flags().StringArrayVar(&pkg.Licenses, flags.FlagLicense, nil, "License declaration component:expression (repeatable)")
	_ = cmd.MarkFlagRequired(flags.FlagPackage)
	_ = cmd.MarkFlagRequired(flags.FlagLicense)
	return cmd
}

func newAuditCommand(cfg *config.Config) *cobra.Command {
	var manifest string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run every target listed in a manifest",
		Long: `Run several targets of mixed kinds in one process. Targets run
concurrently (see --concurrency) and share the loaded baselines.

Manifest format:
  targets:
    - kind: kernel
      path: build/.config
      arch: arm
    - kind: fs
      path: build/rootfs
      image: core-image-minimal
    - kind: license
      image: core-image-minimal
      packages:
        - name: bash
          version: "4.3"
          licenses: ["bash:GPLv3+"]

Examples:
  isafw audit --manifest targets.yaml --emit ndjson --no-console
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := config.LoadManifest(manifest)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return exitCode(3)
			}
			targets, err := cfg.Targets(m)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return exitCode(3)
			}
			return runTargets(cmd, cfg, targets)
		},
	}
	cmd.Flags().StringVar(&manifest, flags.FlagManifest, "", "YAML manifest listing the targets")
	_ = cmd.MarkFlagRequired(flags.FlagManifest)
	return cmd
}
