package baseline

import (
	"maps"
	"sort"
	"strings"
)

// NotSet is the value a disabled or absent option is reported with.
const NotSet = "not set"

// Rule is one hardening expectation. A rule without Default only applies to
// the architectures named in Arch.
type Rule struct {
	Key     string            `yaml:"key"`
	Default *string           `yaml:"default,omitempty"`
	Arch    map[string]string `yaml:"arch,omitempty"`
	Note    string            `yaml:"note,omitempty"`
}

// Expected resolves the value this rule expects on arch. The arch override
// wins over the default; ok is false when the rule does not apply.
func (r Rule) Expected(arch string) (string, bool) {
	if v, ok := r.Arch[arch]; ok {
		return v, true
	}
	if r.Default != nil {
		return *r.Default, true
	}
	return "", false
}

// Arches returns the architectures with an explicit override, sorted.
func (r Rule) Arches() []string {
	out := make([]string, 0, len(r.Arch))
	for a := range r.Arch {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (r Rule) clone() Rule {
	c := r
	if r.Default != nil {
		d := *r.Default
		c.Default = &d
	}
	c.Arch = maps.Clone(r.Arch)
	return c
}

// Normalize maps the spellings of a disabled option onto NotSet. Other values
// are returned untouched, including their quotes.
func Normalize(v string) string {
	switch {
	case v == "", v == "n":
		return NotSet
	case strings.EqualFold(v, NotSet):
		return NotSet
	}
	return v
}
