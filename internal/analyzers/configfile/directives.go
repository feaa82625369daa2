// Package configfile checks directives in configuration files shipped inside
// the image and inventories file capabilities.
package configfile

import (
	"bufio"
	"io"
	"strings"
)

// ParseDirectives reads "Key Value", "Key=Value" and "Key = Value" lines.
// Blank lines and lines starting with '#' or ';' are ignored. Keys are
// returned lower-cased; the last occurrence of a key wins. A key without a
// value maps to "".
func ParseDirectives(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		key, value := splitDirective(line)
		if key == "" {
			continue
		}
		out[strings.ToLower(key)] = value
	}
	return out, sc.Err()
}

func splitDirective(line string) (key, value string) {
	end := strings.IndexAny(line, " \t=")
	if end < 0 {
		return line, ""
	}
	key = line[:end]
	rest := strings.TrimLeft(line[end:], " \t")
	rest = strings.TrimPrefix(rest, "=")
	return key, strings.TrimSpace(rest)
}

// splitKey separates a catalog key "<path>:<directive>".
func splitKey(key string) (path, directive string, ok bool) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}
