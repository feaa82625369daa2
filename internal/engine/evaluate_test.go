package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isafw/internal/analysis"
	"isafw/internal/baseline"
)

func strPtr(s string) *string { return &s }

func testCatalog(t *testing.T) *baseline.Catalog {
	t.Helper()
	c, err := baseline.New("test", "test", []baseline.Rule{
		{Key: "CONFIG_A", Default: strPtr("y"), Arch: map[string]string{"arm": baseline.NotSet}},
		{Key: "CONFIG_X86_ONLY", Arch: map[string]string{"x86": "y"}},
		{Key: "CONFIG_HASH", Default: strPtr(`"sha512"`)},
		{Key: "CONFIG_KEXEC", Default: strPtr(baseline.NotSet)},
	})
	require.NoError(t, err)
	return c
}

func TestEvaluate_ArchResolution(t *testing.T) {
	c := testCatalog(t)
	f := analysis.Fact{Key: "CONFIG_A", Value: baseline.NotSet}

	v := Evaluate(f, "x86", c)
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, "y", v.Expected)

	v = Evaluate(f, "arm", c)
	assert.Equal(t, StatusPass, v.Status)
}

func TestEvaluate_ArchOnlyRuleIsNotApplicableElsewhere(t *testing.T) {
	c := testCatalog(t)
	f := analysis.Fact{Key: "CONFIG_X86_ONLY", Value: baseline.NotSet}

	assert.Equal(t, StatusFail, Evaluate(f, "x86", c).Status)
	assert.Equal(t, StatusNotApplicable, Evaluate(f, "arm", c).Status)

	pair := Split([]analysis.Fact{f}, "arm", c)
	assert.Empty(t, pair.Full)
	assert.Empty(t, pair.Problems)
}

func TestEvaluate_Normalization(t *testing.T) {
	c := testCatalog(t)

	for _, v := range []string{baseline.NotSet, "n", ""} {
		assert.Equal(t, StatusPass, Evaluate(analysis.Fact{Key: "CONFIG_KEXEC", Value: v}, "x86", c).Status, v)
	}
	assert.Equal(t, StatusFail, Evaluate(analysis.Fact{Key: "CONFIG_KEXEC", Value: "y"}, "x86", c).Status)

	assert.Equal(t, StatusPass, Evaluate(analysis.Fact{Key: "CONFIG_HASH", Value: `"sha512"`}, "x86", c).Status)
	assert.Equal(t, StatusFail, Evaluate(analysis.Fact{Key: "CONFIG_HASH", Value: "sha512"}, "x86", c).Status,
		"quotes are part of the value")
}

func TestEvaluate_UnknownKey(t *testing.T) {
	v := Evaluate(analysis.Fact{Key: "CONFIG_UNKNOWN", Value: "y"}, "x86", testCatalog(t))
	assert.Equal(t, StatusNotApplicable, v.Status)
}

func TestEvaluate_IsPure(t *testing.T) {
	c := testCatalog(t)
	f := analysis.Fact{Key: "CONFIG_A", Value: "y"}
	first := Evaluate(f, "arm", c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(f, "arm", c))
	}
}

func TestSplit_FullIsSupersetOfProblems(t *testing.T) {
	c := testCatalog(t)
	facts := []analysis.Fact{
		{Key: "CONFIG_KEXEC", Value: "y"},
		{Key: "CONFIG_A", Value: "y"},
		{Key: "CONFIG_UNKNOWN", Value: "y"},
		{Key: "CONFIG_HASH", Value: `"sha256"`},
	}
	pair := Split(facts, "x86", c)

	require.Len(t, pair.Full, 3)
	require.Len(t, pair.Problems, 2)
	assert.Equal(t, "CONFIG_A", pair.Full[0].Key)

	full := make(map[string]string)
	for _, f := range pair.Full {
		full[f.Key] = f.Value
	}
	for _, p := range pair.Problems {
		v, ok := full[p.Key]
		require.True(t, ok, p.Key)
		assert.Equal(t, v, p.Value)
	}
	assert.Equal(t, `CONFIG_HASH: "sha256" (expected: "sha512")`, pair.Problems[0].String())
	assert.Equal(t, "CONFIG_KEXEC: y (expected: not set)", pair.Problems[1].String())
}
