package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: valid
description: "A valid scenario"
setup:
  - tool: initialize_memory_bank
    args: {}
flow:
  - call: append_memory_bank_entry
    args:
      file_name: progress.md
      entry: "Did a thing."
      section_header: "## Log"
    expect:
      is_error: false
      payload:
        status: success
      contains: Appended
assertions:
  - type: trace_count
    tool: append_memory_bank_entry
    count: 1
  - type: document
    document: progress.md
    content: "## Log\n- Did a thing.\n\n"
  - type: documents
    files: []
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", scenario.Name)
	require.Len(t, scenario.Setup, 1)
	assert.Equal(t, "initialize_memory_bank", scenario.Setup[0].Tool)

	require.Len(t, scenario.Flow, 1)
	step := scenario.Flow[0]
	assert.Equal(t, "append_memory_bank_entry", step.Call)
	assert.Equal(t, "## Log", step.Args["section_header"])
	require.NotNil(t, step.Expect)
	assert.False(t, step.Expect.IsError)
	assert.Equal(t, "success", step.Expect.Payload["status"])
	assert.Equal(t, "Appended", step.Expect.Contains)

	require.Len(t, scenario.Assertions, 3)
	require.NotNil(t, scenario.Assertions[1].Content)
	assert.Equal(t, "## Log\n- Did a thing.\n\n", *scenario.Assertions[1].Content)
	assert.NotNil(t, scenario.Assertions[2].Files)
	assert.Empty(t, scenario.Assertions[2].Files)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "Has a typo"
flow:
  - call: check_memory_bank_status
    args: {}
assertion:
  - type: documents
    files: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nflow:\n  - call: x\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nflow:\n  - call: x\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: n\ndescription: d\nflow: []\n",
			wantErr: "flow list is required",
		},
		{
			name:    "flow step without call",
			yaml:    "name: n\ndescription: d\nflow:\n  - args: {}\n",
			wantErr: "flow[0]: call is required",
		},
		{
			name:    "setup with unknown tool",
			yaml:    "name: n\ndescription: d\nsetup:\n  - tool: nope\n    args: {}\nflow:\n  - call: x\n",
			wantErr: `setup[0]: unknown tool "nope"`,
		},
		{
			name:    "setup without tool",
			yaml:    "name: n\ndescription: d\nsetup:\n  - args: {}\nflow:\n  - call: x\n",
			wantErr: "setup[0]: tool is required",
		},
		{
			name:    "assertion without type",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - tool: x\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: final_state\n",
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name:    "trace_contains without tool",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: trace_contains\n",
			wantErr: "tool is required for trace_contains",
		},
		{
			name:    "trace_order without tools",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: trace_order\n",
			wantErr: "tools list is required for trace_order",
		},
		{
			name:    "trace_count negative",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: trace_count\n    tool: x\n    count: -1\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "document without name",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: document\n    content: \"\"\n",
			wantErr: "document is required",
		},
		{
			name:    "document with content and absent",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: document\n    document: a\n    content: \"\"\n    absent: true\n",
			wantErr: "exactly one of content or absent",
		},
		{
			name:    "document with neither",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: document\n    document: a\n",
			wantErr: "exactly one of content or absent",
		},
		{
			name:    "documents without files",
			yaml:    "name: n\ndescription: d\nflow:\n  - call: x\nassertions:\n  - type: documents\n",
			wantErr: "files is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_FlowAllowsUnknownTool(t *testing.T) {
	scenario, err := ParseScenario([]byte("name: n\ndescription: d\nflow:\n  - call: not_a_tool\n    args: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "not_a_tool", scenario.Flow[0].Call)
}
