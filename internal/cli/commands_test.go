package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorybank/internal/memorybank"
)

// executeRoot runs the root command with args and returns what it wrote.
func executeRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "db", "memory-bank.db")
}

// decodeEnvelope decodes a --format json envelope and its payload.
func decodeEnvelope[T any](t *testing.T, out string) (memorybank.Result, T) {
	t.Helper()
	var res memorybank.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	var payload T
	require.NoError(t, json.Unmarshal([]byte(res.Text()), &payload), res.Text())
	return res, payload
}

func TestInitCommand(t *testing.T) {
	db := tempDB(t)

	out, _, err := executeRoot(t, "", "init", "--db", db)
	require.NoError(t, err)
	for _, name := range memorybank.WellKnownDocuments {
		assert.Contains(t, out, "Created document: "+name)
	}
	_, statErr := os.Stat(db)
	require.NoError(t, statErr, "init creates the database and its directory")

	out, _, err = executeRoot(t, "", "init", "--db", db, "--format", "json")
	require.NoError(t, err)
	res, payload := decodeEnvelope[memorybank.InitializePayload](t, out)
	assert.False(t, res.IsError)
	assert.Equal(t, "success", payload.Status)
	assert.Equal(t, []string{
		"Document productContext.md already exists.",
		"Document activeContext.md already exists.",
		"Document progress.md already exists.",
		"Document decisionLog.md already exists.",
		"Document systemPatterns.md already exists.",
	}, payload.Messages)
}

func TestInitCommandBriefFile(t *testing.T) {
	db := tempDB(t)
	brief := filepath.Join(t.TempDir(), "brief.md")
	require.NoError(t, os.WriteFile(brief, []byte("A note store for agents."), 0644))

	out, _, err := executeRoot(t, "", "init", "--db", db, "--brief-file", brief)
	require.NoError(t, err)
	assert.Contains(t, out, "Added project brief to productContext.md")

	out, _, err = executeRoot(t, "", "read", "productContext.md", "--db", db, "--format", "json")
	require.NoError(t, err)
	_, payload := decodeEnvelope[memorybank.ReadPayload](t, out)
	assert.Equal(t, "# Product Context\n- Based on project brief:\n\nA note store for agents.\n\n", payload.Content)
}

func TestInitCommandBriefFlagsExclusive(t *testing.T) {
	_, _, err := executeRoot(t, "", "init", "--db", tempDB(t), "--brief", "x", "--brief-file", "y")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInitCommandMissingBriefFile(t *testing.T) {
	_, _, err := executeRoot(t, "", "init", "--db", tempDB(t), "--brief-file", filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read brief file")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStatusCommandAbsent(t *testing.T) {
	db := tempDB(t)

	out, _, err := executeRoot(t, "", "status", "--db", db, "--format", "json")
	require.NoError(t, err)
	res, payload := decodeEnvelope[memorybank.StatusPayload](t, out)
	assert.False(t, res.IsError)
	assert.False(t, payload.Exists)
	assert.Equal(t, []string{}, payload.Files)

	_, statErr := os.Stat(filepath.Dir(db))
	assert.True(t, os.IsNotExist(statErr), "status must not create the database")
}

func TestCallStatusMatchesStatusCommand(t *testing.T) {
	db := tempDB(t)

	out, _, err := executeRoot(t, "", "call", memorybank.ToolStatus, "--db", db, "--format", "json")
	require.NoError(t, err)
	_, payload := decodeEnvelope[memorybank.StatusPayload](t, out)
	assert.False(t, payload.Exists)
	assert.Equal(t, []string{}, payload.Files)

	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "call %s must not create the database", memorybank.ToolStatus)

	_, _, err = executeRoot(t, "", "init", "--db", db)
	require.NoError(t, err)

	out, _, err = executeRoot(t, "", "call", memorybank.ToolStatus, "--db", db, "--format", "json")
	require.NoError(t, err)
	_, payload = decodeEnvelope[memorybank.StatusPayload](t, out)
	assert.True(t, payload.Exists)
	assert.Len(t, payload.Files, len(memorybank.WellKnownDocuments))
}

func TestStatusCommandAfterRemoval(t *testing.T) {
	db := tempDB(t)

	_, _, err := executeRoot(t, "", "append", "progress.md", "Started.", "--db", db)
	require.NoError(t, err)
	require.NoError(t, os.Remove(db))

	for _, args := range [][]string{
		{"status", "--db", db, "--format", "json"},
		{"call", memorybank.ToolStatus, "--db", db, "--format", "json"},
	} {
		out, _, err := executeRoot(t, "", args...)
		require.NoError(t, err)
		_, payload := decodeEnvelope[memorybank.StatusPayload](t, out)
		assert.False(t, payload.Exists, "%v", args)
	}
}

func TestStatusCommandAfterAppend(t *testing.T) {
	db := tempDB(t)

	_, _, err := executeRoot(t, "", "append", "progress.md", "Started.", "--db", db)
	require.NoError(t, err)
	_, _, err = executeRoot(t, "", "append", "activeContext.md", "Focus on storage.", "--db", db)
	require.NoError(t, err)

	out, _, err := executeRoot(t, "", "status", "--db", db, "--format", "json")
	require.NoError(t, err)
	_, payload := decodeEnvelope[memorybank.StatusPayload](t, out)
	assert.True(t, payload.Exists)
	assert.Equal(t, []string{"activeContext.md", "progress.md"}, payload.Files)
}

func TestAppendAndReadCommands(t *testing.T) {
	db := tempDB(t)

	out, _, err := executeRoot(t, "", "append", "decisionLog.md", "Use SQLite.", "--db", db, "-s", "## Decision")
	require.NoError(t, err)
	assert.Contains(t, out, "Appended entry to decisionLog.md")

	_, _, err = executeRoot(t, "", "append", "decisionLog.md", "Keep one file.", "--db", db)
	require.NoError(t, err)

	out, _, err = executeRoot(t, "", "read", "decisionLog.md", "--db", db, "--format", "json")
	require.NoError(t, err)
	_, payload := decodeEnvelope[memorybank.ReadPayload](t, out)
	assert.Equal(t, "## Decision\n- Use SQLite.\n\n## General\n- Keep one file.\n\n", payload.Content)
}

func TestReadCommandNotFound(t *testing.T) {
	db := tempDB(t)

	out, _, err := executeRoot(t, "", "read", "nope.md", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Document not found: nope.md")
}

func TestReadCommandMissingArg(t *testing.T) {
	_, _, err := executeRoot(t, "", "read", "--db", tempDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCallCommand(t *testing.T) {
	db := tempDB(t)

	out, _, err := executeRoot(t, "", "call", memorybank.ToolAppend, "--db", db,
		"--args", `{"file_name":"progress.md","entry":"Shipped.","section_header":"## Done"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Appended entry to progress.md")

	out, _, err = executeRoot(t, "", "call", memorybank.ToolRead, "--db", db,
		"--args", `{"file_name":"progress.md"}`, "--format", "json")
	require.NoError(t, err)
	_, payload := decodeEnvelope[memorybank.ReadPayload](t, out)
	assert.Equal(t, "## Done\n- Shipped.\n\n", payload.Content)
}

func TestCallCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "unknown_tool",
			args:     []string{"call", "delete_memory_bank"},
			wantCode: ExitFailure,
			wantOut:  "Unknown tool: delete_memory_bank",
		},
		{
			name:     "missing_parameter",
			args:     []string{"call", memorybank.ToolAppend, "--args", `{"file_name":"progress.md"}`},
			wantCode: ExitFailure,
			wantOut:  memorybank.MsgInvalidEntry,
		},
		{
			name:     "invalid_json",
			args:     []string{"call", memorybank.ToolRead, "--args", `{file_name}`},
			wantCode: ExitCommandError,
		},
		{
			name:     "not_an_object",
			args:     []string{"call", memorybank.ToolRead, "--args", `null`},
			wantCode: ExitCommandError,
		},
		{
			name:     "array",
			args:     []string{"call", memorybank.ToolRead, "--args", `[1]`},
			wantCode: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeRoot(t, "", append(tt.args, "--db", tempDB(t))...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
		})
	}
}

func TestToolsCommandText(t *testing.T) {
	out, _, err := executeRoot(t, "", "tools")
	require.NoError(t, err)

	assert.Contains(t, out, memorybank.ToolInitialize)
	assert.Contains(t, out, memorybank.ToolStatus)
	assert.Contains(t, out, memorybank.ToolRead)
	assert.Contains(t, out, memorybank.ToolAppend)
	assert.Contains(t, out, "    file_name: string (required)")
	assert.Contains(t, out, "    section_header: string\n")
}

func TestToolsCommandJSON(t *testing.T) {
	out, _, err := executeRoot(t, "", "tools", "--format", "json")
	require.NoError(t, err)

	var response struct {
		Status string `json:"status"`
		Data   struct {
			Tools []memorybank.Tool `json:"tools"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	require.Len(t, response.Data.Tools, 4)
	assert.Equal(t, memorybank.ToolInitialize, response.Data.Tools[0].Name)
}

func TestFormatTools(t *testing.T) {
	tools := []memorybank.Tool{
		{
			Name:        "read_memory_bank_file",
			Description: "Read a document.",
			InputSchema: memorybank.InputSchema{
				Type: "object",
				Properties: map[string]memorybank.Property{
					"file_name": {Type: "string"},
				},
				Required: []string{"file_name"},
			},
		},
		{
			Name:        "check_memory_bank_status",
			Description: "Report status.",
			InputSchema: memorybank.InputSchema{Type: "object", Properties: map[string]memorybank.Property{}},
		},
	}

	want := "read_memory_bank_file\n  Read a document.\n    file_name: string (required)\n\n" +
		"check_memory_bank_status\n  Report status."
	assert.Equal(t, want, formatTools(tools))
}
