package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"isafw/internal/analysis"
	"isafw/internal/baseline"
	"isafw/internal/config"
	"isafw/internal/flags"
)

func newBaselineCommand(cfg *config.Config) *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Inspect the hardening baselines",
		Long: `Inspect the kernel and configuration file baselines in effect, either the
built-in tables or the files given by --kernel-baseline / --config-baseline.

Examples:
  isafw baseline list --arch arm
  isafw baseline list --kind cfa
  isafw baseline show CONFIG_DEFAULT_MMAP_MIN_ADDR
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&kindName, flags.FlagKind, string(analysis.KindKernel), "Baseline to inspect: kernel|config-files")

	loadCatalog := func() (*baseline.Catalog, error) {
		kind, err := analysis.ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		loader, err := newLoader(cfg)
		if err != nil {
			return nil, err
		}
		switch kind {
		case analysis.KindKernel:
			return loader.Catalog(cfg.Policy.KernelBaseline, baseline.DefaultKernel)
		case analysis.KindConfigFiles:
			return loader.Catalog(cfg.Policy.ConfigBaseline, baseline.DefaultConfigFiles)
		}
		return nil, fmt.Errorf("%s has no baseline catalog", kind)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the rules that apply on --arch",
		Long: `List every rule of the selected baseline that applies on --arch, with the
value expected there. Rules without a default that only name other
architectures are omitted.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), c, cfg.Target.Arch)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Show one rule with all of its architecture overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			r, ok := c.Rule(args[0])
			if !ok {
				return fmt.Errorf("rule not found in %s: %s", c.Source(), args[0])
			}
			printRule(cmd.OutOrStdout(), r, cfg.Target.Arch)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func printCatalog(w io.Writer, c *baseline.Catalog, arch string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(fmt.Sprintf("%s (%s) on %s", c.Name(), c.Source(), arch))
	tw.AppendHeader(table.Row{"Key", "Expected", "Overrides"})
	keys := c.Keys(arch)
	for _, k := range keys {
		expected, _ := c.Lookup(k, arch)
		r, _ := c.Rule(k)
		tw.AppendRow(table.Row{k, expected, strings.Join(r.Arches(), ",")})
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d rules", len(keys)), "", ""})
	tw.Render()
}

func printRule(w io.Writer, r baseline.Rule, arch string) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s\n", r.Key)
	fmt.Fprintln(w, "----------------------------------------")
	if r.Note != "" {
		fmt.Fprintln(w, r.Note)
	}
	if r.Default != nil {
		fmt.Fprintf(w, "  default: %s\n", *r.Default)
	} else {
		fmt.Fprintln(w, "  default: (applies only to the listed architectures)")
	}
	for _, a := range r.Arches() {
		fmt.Fprintf(w, "  %s: %s\n", a, r.Arch[a])
	}
	if expected, ok := r.Expected(arch); ok {
		color.New(color.FgGreen).Fprintf(w, "Expected on %s: %s\n", arch, expected)
	} else {
		color.New(color.FgYellow).Fprintf(w, "Not applicable on %s\n", arch)
	}
	fmt.Fprintln(w)
}
