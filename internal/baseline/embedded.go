package baseline

import (
	"bytes"
	"embed"
	"fmt"
)

//go:embed data
var embedded embed.FS

// Names of the tables compiled into the binary.
const (
	DefaultKernel      = "kernel.yaml"
	DefaultConfigFiles = "configfiles.yaml"
	DefaultLicenses    = "licenses-default.txt"
)

func readEmbedded(name string) ([]byte, error) {
	raw, err := embedded.ReadFile("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("embedded policy %s: %w", name, err)
	}
	return raw, nil
}

// Embedded returns one of the compiled-in catalogs.
func Embedded(name string) (*Catalog, error) {
	raw, err := readEmbedded(name)
	if err != nil {
		return nil, err
	}
	return Parse("embedded:"+name, bytes.NewReader(raw))
}

// EmbeddedAllowList returns one of the compiled-in license tracks.
func EmbeddedAllowList(name string) (*AllowList, error) {
	raw, err := readEmbedded(name)
	if err != nil {
		return nil, err
	}
	return ParseAllowList("embedded:"+name, bytes.NewReader(raw))
}
