package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"isafw/internal/analysis"
)

// Manifest lists several targets of mixed kinds for one audit run.
//
//	targets:
//	  - kind: kernel
//	    path: build/kernel/.config
//	  - kind: fs
//	    path: build/rootfs
//	    image: core-image-minimal
//	  - kind: license
//	    packages:
//	      - name: bash
//	        version: "4.3"
//	        licenses: ["bash:GPLv3+"]
type Manifest struct {
	Targets []ManifestTarget `yaml:"targets" validate:"required,min=1,dive"`
}

// ManifestTarget overrides the run-wide image and arch when set.
type ManifestTarget struct {
	Kind     string             `yaml:"kind" validate:"required"`
	Path     string             `yaml:"path"`
	Image    string             `yaml:"image" validate:"excludesall=/\\"`
	Arch     string             `yaml:"arch"`
	Packages []analysis.Package `yaml:"packages" validate:"dive"`
}

func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Targets resolves every manifest entry against the run configuration.
func (c *Config) Targets(m *Manifest) ([]analysis.Target, error) {
	out := make([]analysis.Target, 0, len(m.Targets))
	for i, mt := range m.Targets {
		kind, err := analysis.ParseKind(mt.Kind)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		switch {
		case kind == analysis.KindLicense && mt.Path != "":
			return nil, fmt.Errorf("target %d: license targets take packages, not a path", i)
		case kind != analysis.KindLicense && mt.Path == "":
			return nil, fmt.Errorf("target %d: %s target requires a path", i, kind)
		case kind != analysis.KindLicense && len(mt.Packages) > 0:
			return nil, fmt.Errorf("target %d: packages are only valid for license targets", i)
		}

		t := c.NewTarget(kind, mt.Path)
		if mt.Image != "" {
			t.Image = mt.Image
		}
		if mt.Arch != "" {
			t.Arch = mt.Arch
		}
		t.Packages = mt.Packages
		out = append(out, t)
	}
	return out, nil
}
