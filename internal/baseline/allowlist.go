package baseline

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

// AllowList is a set of approved license tokens. Entries containing glob
// metacharacters are matched with path.Match (for example "BSD-*").
// Matching is case-insensitive.
type AllowList struct {
	name     string
	tokens   map[string]bool
	patterns []string
}

// LoadAllowList reads an allow-list file: one token per line, '#' starts a
// comment.
func LoadAllowList(p string) (*AllowList, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read license allow-list %s: %w", p, err)
	}
	return ParseAllowList(p, bytes.NewReader(raw))
}

func ParseAllowList(name string, r io.Reader) (*AllowList, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse license allow-list %s: %w", name, err)
	}
	return NewAllowList(name, entries...)
}

func NewAllowList(name string, entries ...string) (*AllowList, error) {
	a := &AllowList{name: name, tokens: make(map[string]bool)}
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if strings.ContainsAny(e, "*?[") {
			if _, err := path.Match(e, ""); err != nil {
				return nil, fmt.Errorf("license allow-list %s: bad pattern %q: %w", name, e, err)
			}
			a.patterns = append(a.patterns, e)
			continue
		}
		a.tokens[e] = true
	}
	return a, nil
}

func (a *AllowList) Name() string { return a.name }

// Allowed reports whether token is approved.
func (a *AllowList) Allowed(token string) bool {
	if a == nil {
		return false
	}
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return false
	}
	if a.tokens[t] {
		return true
	}
	for _, p := range a.patterns {
		if matched, _ := path.Match(p, t); matched {
			return true
		}
	}
	return false
}

// Entries returns the exact tokens followed by the patterns, each group sorted.
func (a *AllowList) Entries() []string {
	out := make([]string, 0, len(a.tokens)+len(a.patterns))
	for t := range a.tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	pats := append([]string(nil), a.patterns...)
	sort.Strings(pats)
	return append(out, pats...)
}
