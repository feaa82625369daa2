package baseline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyKey     = errors.New("rule key is empty")
	ErrDuplicateKey = errors.New("duplicate rule key")
	ErrEmptyArch    = errors.New("architecture name is empty")
)

// Catalog is an immutable table of hardening rules keyed by fact key.
// It is safe for concurrent use once loaded.
type Catalog struct {
	name   string
	source string
	rules  map[string]Rule
	keys   []string
}

type catalogFile struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads and validates a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline %s: %w", path, err)
	}
	return Parse(path, bytes.NewReader(raw))
}

// Parse decodes a catalog. source only labels error messages.
func Parse(source string, r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse baseline %s: %w", source, err)
	}
	return New(f.Name, source, f.Rules)
}

// New builds a catalog from rules, rejecting empty and duplicate keys.
func New(name, source string, rules []Rule) (*Catalog, error) {
	c := &Catalog{
		name:   name,
		source: source,
		rules:  make(map[string]Rule, len(rules)),
	}
	for i, r := range rules {
		r.Key = strings.TrimSpace(r.Key)
		if r.Key == "" {
			return nil, fmt.Errorf("baseline %s: rule %d: %w", source, i, ErrEmptyKey)
		}
		if _, exists := c.rules[r.Key]; exists {
			return nil, fmt.Errorf("baseline %s: rule %d: %w: %s", source, i, ErrDuplicateKey, r.Key)
		}
		for a := range r.Arch {
			if strings.TrimSpace(a) == "" {
				return nil, fmt.Errorf("baseline %s: rule %d (%s): %w", source, i, r.Key, ErrEmptyArch)
			}
		}
		c.rules[r.Key] = r.clone()
		c.keys = append(c.keys, r.Key)
	}
	sort.Strings(c.keys)
	return c, nil
}

func (c *Catalog) Name() string   { return c.name }
func (c *Catalog) Source() string { return c.source }
func (c *Catalog) Len() int       { return len(c.rules) }

// Lookup returns the value expected for key on arch. ok is false when the
// catalog has no opinion about key on that architecture.
func (c *Catalog) Lookup(key, arch string) (expected string, ok bool) {
	if c == nil {
		return "", false
	}
	r, found := c.rules[key]
	if !found {
		return "", false
	}
	return r.Expected(arch)
}

// Rule returns a copy of the rule stored under key.
func (c *Catalog) Rule(key string) (Rule, bool) {
	if c == nil {
		return Rule{}, false
	}
	r, ok := c.rules[key]
	if !ok {
		return Rule{}, false
	}
	return r.clone(), true
}

// Keys returns the keys that apply on arch, sorted. An empty arch returns
// every key.
func (c *Catalog) Keys(arch string) []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.keys))
	for _, k := range c.keys {
		if arch == "" {
			out = append(out, k)
			continue
		}
		if _, ok := c.rules[k].Expected(arch); ok {
			out = append(out, k)
		}
	}
	return out
}
