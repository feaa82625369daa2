//go:build linux

package configfile

import (
	"errors"

	"golang.org/x/sys/unix"
)

const capabilityAttr = "security.capability"

// readCapabilities returns the raw capability attribute of path without
// following symlinks. ok is false when the file carries none.
func readCapabilities(path string) (raw []byte, ok bool, err error) {
	buf := make([]byte, 64)
	for {
		n, err := unix.Lgetxattr(path, capabilityAttr, buf)
		switch {
		case err == nil:
			return buf[:n], true, nil
		case errors.Is(err, unix.ERANGE):
			buf = make([]byte, len(buf)*4)
			continue
		case errors.Is(err, unix.ENODATA), errors.Is(err, unix.ENOTSUP):
			return nil, false, nil
		}
		return nil, false, err
	}
}
