package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isafw/internal/analysis"
)

const manifestYAML = `
targets:
  - kind: kernel
    path: build/.config
    arch: arm
  - kind: fs
    path: build/rootfs
    image: core-image-sato
  - kind: license
    packages:
      - name: bash
        version: "4.3"
        licenses: ["bash:GPLv3+"]
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(manifestYAML))
	require.NoError(t, err)
	require.Len(t, m.Targets, 3)

	cfg := New()
	cfg.Target.Image = "core-image-minimal"
	targets, err := cfg.Targets(m)
	require.NoError(t, err)

	assert.Equal(t, analysis.KindKernel, targets[0].Kind)
	assert.Equal(t, "arm", targets[0].Arch)
	assert.Equal(t, "core-image-minimal", targets[0].Image)

	assert.Equal(t, analysis.KindFilesystem, targets[1].Kind)
	assert.Equal(t, "x86", targets[1].Arch)
	assert.Equal(t, "core-image-sato", targets[1].Image)

	assert.Equal(t, analysis.KindLicense, targets[2].Kind)
	assert.Equal(t, []analysis.Package{{Name: "bash", Version: "4.3", Licenses: []string{"bash:GPLv3+"}}}, targets[2].Packages)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"no targets":    "targets: []\n",
		"unknown field": "targets:\n  - kind: fs\n    root: /x\n",
		"missing kind":  "targets:\n  - path: /x\n",
		"nameless pkg":  "targets:\n  - kind: la\n    packages:\n      - version: \"1\"\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestTargets_Errors(t *testing.T) {
	cfg := New()
	tests := map[string]ManifestTarget{
		"unknown kind":       {Kind: "bogus", Path: "/x"},
		"fs without path":    {Kind: "fs"},
		"license with path":  {Kind: "license", Path: "/x"},
		"kernel w/ packages": {Kind: "kernel", Path: "/x", Packages: []analysis.Package{{Name: "a"}}},
	}
	for name, mt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := cfg.Targets(&Manifest{Targets: []ManifestTarget{mt}})
			assert.Error(t, err)
		})
	}

	_, err := cfg.Targets(&Manifest{Targets: []ManifestTarget{{Kind: "nope", Path: "/x"}}})
	assert.True(t, errors.Is(err, analysis.ErrUnknownKind))
}

func TestLoadManifest(t *testing.T) {
	p := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(p, []byte(manifestYAML), 0o644))
	m, err := LoadManifest(p)
	require.NoError(t, err)
	assert.Len(t, m.Targets, 3)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
