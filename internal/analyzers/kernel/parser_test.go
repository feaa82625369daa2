package kernel

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"isafw/internal/baseline"
)

const sampleConfig = `#
# Automatically generated file; DO NOT EDIT.
# Linux/x86 4.1.8 Kernel Configuration
#
CONFIG_64BIT=y
CONFIG_DEFAULT_MMAP_MIN_ADDR=4096
CONFIG_MODULE_SIG_HASH="sha256"
# CONFIG_KEXEC is not set

# General setup
CONFIG_LOCALVERSION=""
CONFIG_KEXEC=y
`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"CONFIG_64BIT":                 "y",
		"CONFIG_DEFAULT_MMAP_MIN_ADDR": "4096",
		"CONFIG_MODULE_SIG_HASH":       `"sha256"`,
		"CONFIG_LOCALVERSION":          `""`,
		"CONFIG_KEXEC":                 "y",
	}, got)
}

func TestParse_DisabledOption(t *testing.T) {
	got, err := Parse(strings.NewReader("# CONFIG_DEVKMEM is not set\r\n# unrelated comment\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"CONFIG_DEVKMEM": baseline.NotSet}, got)
}

func TestParseFile_Compressed(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(plain, []byte(sampleConfig), 0o644))

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	gzPath := filepath.Join(dir, "config.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0o644))

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	// No extension: detection is by content.
	xzPath := filepath.Join(dir, "config-packed")
	require.NoError(t, os.WriteFile(xzPath, xzBuf.Bytes(), 0o644))

	want, err := ParseFile(plain)
	require.NoError(t, err)
	for _, p := range []string{gzPath, xzPath} {
		got, err := ParseFile(p)
		require.NoError(t, err, p)
		assert.Equal(t, want, got, p)
	}
}

func TestParseFile_TinyAndMissing(t *testing.T) {
	dir := t.TempDir()
	tiny := filepath.Join(dir, "tiny")
	require.NoError(t, os.WriteFile(tiny, []byte("A=y"), 0o644))
	got, err := ParseFile(tiny)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "y"}, got)

	_, err = ParseFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
