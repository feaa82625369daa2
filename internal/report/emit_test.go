package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isafw/internal/analysis"
)

func TestEmitSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	require.NoError(t, err)

	require.NoError(t, s.WriteEvent(Event{Type: "run.started", Targets: 2}))
	require.NoError(t, s.WriteSummary(Summary{Target: "kernel:config", Status: StatusClean}))
	require.NoError(t, s.WriteSummary(Summary{Target: "filesystem:rootfs", Status: StatusProblems, Problems: 1}))
	require.NoError(t, s.Close())

	var got []Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, StatusProblems, got[1].Status)
}

func TestEmitSink_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "ndjson")
	require.NoError(t, err)

	require.NoError(t, s.WriteEvent(Event{Type: "run.started", Targets: 1}))
	require.NoError(t, s.WriteSummary(Summary{
		Target:   "kernel:config",
		Kind:     analysis.KindKernel,
		Status:   StatusProblems,
		Problems: 1,
		Findings: []analysis.Problem{analysis.Mismatch(analysis.Fact{Key: "CONFIG_KEXEC", Value: "y"}, "not set")},
	}))
	require.NoError(t, s.WriteEvent(Event{Type: "run.finished", ExitCode: 1}))
	require.NoError(t, s.Close())

	var types []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		types = append(types, m["type"].(string))
		if m["type"] == "target.result" {
			assert.Equal(t, "kernel:config", m["target"])
			assert.Equal(t, "PROBLEMS", m["status"])
			assert.Len(t, m["findings"], 1)
		}
	}
	assert.Equal(t, []string{"run.started", "target.result", "run.finished"}, types)
}

func TestNewEmitSink_Validation(t *testing.T) {
	_, err := NewEmitSink(nil, "json")
	assert.Error(t, err)
	_, err = NewEmitSink(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}
