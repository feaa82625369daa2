package engine_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isafw/internal/analysis"
	_ "isafw/internal/analyzers/configfile"
	_ "isafw/internal/analyzers/fsperm"
	_ "isafw/internal/analyzers/kernel"
	_ "isafw/internal/analyzers/license"
	"isafw/internal/baseline"
	"isafw/internal/config"
	"isafw/internal/engine"
)

func auditConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Target.ReportDir = t.TempDir()
	cfg.Target.Machine = "TestCaseMachine"
	cfg.Target.Timestamp = "20150101120000"
	cfg.Output.NoConsole = true
	return cfg
}

func run(t *testing.T, cfg *config.Config, targets ...analysis.Target) int {
	t.Helper()
	eng := engine.NewEngine(baseline.NewLoader(nil))
	eng.Stdout = &bytes.Buffer{}
	return eng.Run(context.Background(), cfg, targets)
}

func licenseTarget(cfg *config.Config, decl string) analysis.Target {
	tg := cfg.NewTarget(analysis.KindLicense, "")
	tg.Packages = []analysis.Package{{Name: "bash", Version: "4.3", Licenses: []string{decl}}}
	return tg
}

func TestAudit_LicenseApproved(t *testing.T) {
	cfg := auditConfig(t)
	code := run(t, cfg, licenseTarget(cfg, "bash:Apache-1.1"))
	assert.Equal(t, 0, code)

	_, err := os.Stat(filepath.Join(cfg.Target.ReportDir, "la_problems_report_TestCaseMachine_20150101120000"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAudit_LicenseRejected(t *testing.T) {
	cfg := auditConfig(t)
	code := run(t, cfg, licenseTarget(cfg, "bash:BadLicense-1.1"))
	assert.Equal(t, 1, code)

	raw, err := os.ReadFile(filepath.Join(cfg.Target.ReportDir, "la_problems_report_TestCaseMachine_20150101120000"))
	require.NoError(t, err)
	assert.Equal(t, "bash:BadLicense-1.1\n", string(raw))

	// A clean rerun removes the stale problems file.
	assert.Equal(t, 0, run(t, cfg, licenseTarget(cfg, "bash:Apache-1.1")))
	_, err = os.Stat(filepath.Join(cfg.Target.ReportDir, "la_problems_report_TestCaseMachine_20150101120000"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAudit_KernelReportsAreReproducible(t *testing.T) {
	cfg := auditConfig(t)
	cfg.Target.Image = "core-image-minimal"
	kconfig := filepath.Join(t.TempDir(), ".config")
	require.NoError(t, os.WriteFile(kconfig, []byte("CONFIG_KEXEC=y\n# CONFIG_DEVKMEM is not set\n"), 0o644))

	tg := cfg.NewTarget(analysis.KindKernel, kconfig)
	require.Equal(t, 1, run(t, cfg, tg))

	name := func(kind string) string {
		return filepath.Join(cfg.Target.ReportDir, "kca_"+kind+"_report_TestCaseMachine_20150101120000_core-image-minimal")
	}
	first, err := os.ReadFile(name("full"))
	require.NoError(t, err)
	firstProblems, err := os.ReadFile(name("problems"))
	require.NoError(t, err)
	assert.Contains(t, string(firstProblems), "CONFIG_KEXEC: y (expected: not set)\n")
	assert.NotContains(t, string(firstProblems), "CONFIG_DEVKMEM")

	require.Equal(t, 1, run(t, cfg, tg))
	second, err := os.ReadFile(name("full"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAudit_MixedTargetsPartialFailure(t *testing.T) {
	cfg := auditConfig(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))

	targets := []analysis.Target{
		cfg.NewTarget(analysis.KindFilesystem, root),
		cfg.NewTarget(analysis.KindKernel, filepath.Join(t.TempDir(), "missing.config")),
	}
	assert.Equal(t, 2, run(t, cfg, targets...))

	entries, err := os.ReadDir(cfg.Target.ReportDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"fsa_full_report_TestCaseMachine_20150101120000",
		"fsa_problems_report_TestCaseMachine_20150101120000",
	}, names)
}

func TestAudit_BadBaselineFailsTarget(t *testing.T) {
	cfg := auditConfig(t)
	bad := filepath.Join(t.TempDir(), "kernel.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  - key: \"\"\n    default: y\n"), 0o644))
	cfg.Policy.KernelBaseline = bad
	kconfig := filepath.Join(t.TempDir(), ".config")
	require.NoError(t, os.WriteFile(kconfig, []byte("CONFIG_KEXEC=y\n"), 0o644))

	assert.Equal(t, 3, run(t, cfg, cfg.NewTarget(analysis.KindKernel, kconfig)))
	entries, err := os.ReadDir(cfg.Target.ReportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
