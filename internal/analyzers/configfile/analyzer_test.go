package configfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isafw/internal/analysis"
	"isafw/internal/baseline"
)

func strPtr(s string) *string { return &s }

func testCatalog(t *testing.T) *baseline.Catalog {
	t.Helper()
	c, err := baseline.New("test", "test", []baseline.Rule{
		{Key: "/etc/ssh/sshd_config:PermitRootLogin", Default: strPtr("no")},
		{Key: "/etc/ssh/sshd_config:X11Forwarding", Default: strPtr("no")},
		{Key: "/etc/ssh/sshd_config:Protocol", Default: strPtr("2")},
		{Key: "/etc/sysctl.conf:kernel.kptr_restrict", Default: strPtr("2")},
		{Key: "/etc/login.defs:ENCRYPT_METHOD", Default: strPtr("SHA512")},
	})
	require.NoError(t, err)
	return c
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestAnalyze_Directives(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "etc/ssh/sshd_config", "PermitRootLogin yes\nx11forwarding no\n")
	writeFile(t, root, "etc/sysctl.conf", "kernel.kptr_restrict = 2\n")

	pair, err := (&Analyzer{}).Analyze(context.Background(),
		analysis.Target{Kind: analysis.KindConfigFiles, Path: root},
		analysis.Policy{ConfigFiles: testCatalog(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/etc/ssh/sshd_config:PermitRootLogin: yes",
		"/etc/ssh/sshd_config:Protocol: not set",
		"/etc/ssh/sshd_config:X11Forwarding: no",
		"/etc/sysctl.conf:kernel.kptr_restrict: 2",
	}, pair.FullLines(), "login.defs is absent so its keys are not applicable")
	assert.Equal(t, []string{
		"/etc/ssh/sshd_config:PermitRootLogin: yes (expected: no)",
		"/etc/ssh/sshd_config:Protocol: not set (expected: 2)",
	}, pair.ProblemLines())
}

func TestAnalyze_EmbeddedBaseline(t *testing.T) {
	c, err := baseline.Embedded(baseline.DefaultConfigFiles)
	require.NoError(t, err)
	root := t.TempDir()
	writeFile(t, root, "etc/ssh/sshd_config", "PermitRootLogin no\nPermitEmptyPasswords yes\n")

	pair, err := (&Analyzer{}).Analyze(context.Background(), analysis.Target{Path: root}, analysis.Policy{ConfigFiles: c})
	require.NoError(t, err)
	assert.Contains(t, pair.ProblemLines(), "/etc/ssh/sshd_config:PermitEmptyPasswords: yes (expected: no)")
	assert.NotContains(t, pair.ProblemLines(), "/etc/ssh/sshd_config:PermitRootLogin: no (expected: no)")
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := (&Analyzer{}).Analyze(context.Background(), analysis.Target{Path: t.TempDir()}, analysis.Policy{})
	assert.Error(t, err)

	_, err = (&Analyzer{}).Analyze(context.Background(),
		analysis.Target{Path: filepath.Join(t.TempDir(), "missing")},
		analysis.Policy{ConfigFiles: testCatalog(t)})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyze_AbsoluteSymlinkStaysInImage(t *testing.T) {
	host := t.TempDir()
	writeFile(t, host, "sshd_config", "PermitRootLogin no\nX11Forwarding no\nProtocol 2\n")

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc/ssh"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(host, "sshd_config"), filepath.Join(root, "etc/ssh/sshd_config")))
	writeFile(t, root, "etc/sysctl.conf", "kernel.kptr_restrict=2\n")

	pair, err := (&Analyzer{}).Analyze(context.Background(),
		analysis.Target{Kind: analysis.KindConfigFiles, Path: root},
		analysis.Policy{ConfigFiles: testCatalog(t)})
	require.NoError(t, err)

	// The link target does not exist inside the image, so sshd is not installed.
	assert.Equal(t, []string{"/etc/sysctl.conf:kernel.kptr_restrict: 2"}, pair.FullLines())
	assert.Empty(t, pair.ProblemLines())
}

func TestAnalyze_SymlinksResolveAgainstImageRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "usr/share/ssh/sshd_config", "PermitRootLogin yes\nX11Forwarding no\nProtocol 2\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc/ssh"), 0o755))
	require.NoError(t, os.Symlink("/usr/share/ssh/sshd_config", filepath.Join(root, "etc/ssh/sshd_config")))
	require.NoError(t, os.Symlink("../../../../../../../../etc/hostname", filepath.Join(root, "etc/sysctl.conf")))

	pair, err := (&Analyzer{}).Analyze(context.Background(),
		analysis.Target{Kind: analysis.KindConfigFiles, Path: root},
		analysis.Policy{ConfigFiles: testCatalog(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/etc/ssh/sshd_config:PermitRootLogin: yes (expected: no)",
	}, pair.ProblemLines())
	for _, f := range pair.Full {
		assert.NotEqual(t, "/etc/sysctl.conf:kernel.kptr_restrict", f.Key, "relative link climbed out of the image")
	}
}

func TestAnalyze_NonRegularConfigFileIsSkipped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc/ssh/sshd_config"), 0o755))

	pair, err := (&Analyzer{}).Analyze(context.Background(),
		analysis.Target{Kind: analysis.KindConfigFiles, Path: root},
		analysis.Policy{ConfigFiles: testCatalog(t)})
	require.NoError(t, err)

	require.Len(t, pair.Skipped, 1)
	assert.Equal(t, "/etc/ssh/sshd_config", pair.Skipped[0].Key)
	assert.Contains(t, pair.Skipped[0].Reason, "not a regular file")
	assert.Empty(t, pair.ProblemLines())
}
