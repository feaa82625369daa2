// Package kernel audits a kernel build configuration against the
// architecture-aware hardening baseline.
package kernel

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/ulikunitz/xz"

	"isafw/internal/baseline"
)

var (
	enabledRe  = regexp.MustCompile(`^([A-Za-z0-9_]+)=(.*)$`)
	disabledRe = regexp.MustCompile(`^#\s*([A-Za-z0-9_]+) is not set$`)
)

// Parse reads kernel config text. Enabled options keep their literal value,
// quotes included; "# KEY is not set" lines map to baseline.NotSet. Anything
// else is ignored. When a key occurs twice the last occurrence wins.
func Parse(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if m := disabledRe.FindStringSubmatch(line); m != nil {
			out[m[1]] = baseline.NotSet
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if m := enabledRe.FindStringSubmatch(line); m != nil {
			out[m[1]] = m[2]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// ParseFile parses a plain, gzip or xz compressed config file. The format is
// detected from the file content.
func ParseFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var r io.Reader = br
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip config %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case bytes.HasPrefix(head, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open xz config %s: %w", path, err)
		}
		r = xr
	}

	values, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}
