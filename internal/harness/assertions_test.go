package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Type: EventCall, Tool: "initialize_memory_bank", Args: map[string]any{}, Seq: 1},
		{Type: EventResult, Payload: map[string]any{"status": "success"}, Seq: 2},
		{Type: EventCall, Tool: "append_memory_bank_entry", Args: map[string]any{"file_name": "a.md", "entry": "x"}, Seq: 3},
		{Type: EventResult, Payload: map[string]any{"status": "success"}, Seq: 4},
		{Type: EventCall, Tool: "append_memory_bank_entry", Args: map[string]any{"file_name": "b.md", "entry": "y"}, Seq: 5},
		{Type: EventResult, Payload: map[string]any{"status": "success"}, Seq: 6},
		{Type: EventCall, Tool: "read_memory_bank_file", Args: map[string]any{"file_name": "a.md"}, Seq: 7},
		{Type: EventResult, Payload: map[string]any{"content": "## General\n- x\n\n"}, Seq: 8},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Tool: "append_memory_bank_entry"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{
		Tool: "append_memory_bank_entry",
		Args: map[string]any{"file_name": "b.md"},
	}))

	err := assertTraceContains(trace, Assertion{
		Tool: "append_memory_bank_entry",
		Args: map[string]any{"file_name": "c.md"},
	})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "not found in trace")
	assert.Contains(t, err.Error(), "Full trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Tools: []string{
		"initialize_memory_bank", "append_memory_bank_entry", "read_memory_bank_file",
	}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Tools: []string{
		"append_memory_bank_entry", "append_memory_bank_entry",
	}}))

	err := assertTraceOrder(trace, Assertion{Tools: []string{
		"read_memory_bank_file", "initialize_memory_bank",
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no initialize_memory_bank after [read_memory_bank_file]")

	err = assertTraceOrder(trace, Assertion{Tools: []string{"check_memory_bank_status"}})
	require.Error(t, err)
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Tool: "append_memory_bank_entry", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Tool: "check_memory_bank_status", Count: 0}))

	err := assertTraceCount(trace, Assertion{Tool: "append_memory_bank_entry", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 calls to append_memory_bank_entry")
	assert.Contains(t, err.Error(), "2 calls")
}

// fakeDocuments is an in-memory DocumentReader.
type fakeDocuments struct {
	docs  map[string]string
	names []string
	err   error
}

func (f *fakeDocuments) DocumentContent(_ context.Context, name string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	content, ok := f.docs[name]
	return content, ok, nil
}

func (f *fakeDocuments) ListDocuments(context.Context) ([]string, error) {
	return f.names, f.err
}

func strPtr(s string) *string { return &s }

func TestAssertDocument(t *testing.T) {
	ctx := context.Background()
	st := &fakeDocuments{docs: map[string]string{"a.md": "## General\n- x\n\n", "empty.md": ""}}

	assert.NoError(t, assertDocument(ctx, st, Assertion{Document: "a.md", Content: strPtr("## General\n- x\n\n")}))
	assert.NoError(t, assertDocument(ctx, st, Assertion{Document: "empty.md", Content: strPtr("")}))
	assert.NoError(t, assertDocument(ctx, st, Assertion{Document: "missing.md", Absent: true}))

	err := assertDocument(ctx, st, Assertion{Document: "a.md", Content: strPtr("other")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `content "## General\n- x\n\n"`)

	err = assertDocument(ctx, st, Assertion{Document: "missing.md", Content: strPtr("")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")

	err = assertDocument(ctx, st, Assertion{Document: "empty.md", Absent: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to be absent")

	err = assertDocument(ctx, &fakeDocuments{err: errors.New("disk I/O error")}, Assertion{Document: "a.md", Absent: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestAssertDocuments(t *testing.T) {
	ctx := context.Background()
	st := &fakeDocuments{names: []string{"a.md", "b.md"}}

	assert.NoError(t, assertDocuments(ctx, st, Assertion{Files: []string{"a.md", "b.md"}}))

	err := assertDocuments(ctx, st, Assertion{Files: []string{"b.md", "a.md"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documents [a.md b.md]")

	assert.NoError(t, assertDocuments(ctx, &fakeDocuments{names: []string{}}, Assertion{Files: []string{}}))
}

func TestMatchArgs(t *testing.T) {
	actual := map[string]any{"file_name": "a.md", "entry": "x", "nested": map[string]any{"k": "v"}}

	assert.True(t, matchArgs(actual, nil))
	assert.True(t, matchArgs(actual, map[string]any{"file_name": "a.md"}))
	assert.True(t, matchArgs(actual, map[string]any{"nested": map[string]any{"k": "v"}}))
	assert.False(t, matchArgs(actual, map[string]any{"file_name": "b.md"}))
	assert.False(t, matchArgs(actual, map[string]any{"section_header": "## X"}))
	assert.False(t, matchArgs("not a map", map[string]any{"a": "b"}))
}

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{Pass: true, Trace: sampleTrace()}
	actx := &AssertionContext{
		Store: &fakeDocuments{docs: map[string]string{"a.md": ""}, names: []string{"a.md"}},
		Ctx:   context.Background(),
	}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Tool: "read_memory_bank_file", Count: 1},
		{Type: AssertDocuments, Files: []string{"a.md"}},
		{Type: AssertDocument, Document: "a.md", Content: strPtr("")},
	}, actx)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Tool: "read_memory_bank_file", Count: 5},
		{Type: "bogus"},
		{Type: AssertDocument, Document: "a.md", Content: strPtr("")},
	}, nil)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
	assert.Contains(t, errs[2], "requires store context")
}
