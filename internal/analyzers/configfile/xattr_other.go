//go:build !linux

package configfile

// File capabilities are a Linux feature; other hosts report none.
func readCapabilities(string) ([]byte, bool, error) { return nil, false, nil }
