package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == EventCall {
				fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.Tool, event.Args)
			}
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains a call matching
// the specified tool and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == EventCall && event.Tool == assertion.Tool {
			if matchArgs(event.Args, assertion.Args) {
				return nil
			}
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("call %s with args %v", assertion.Tool, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if calls appear in the specified order.
// Calls don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Walk the trace once, advancing through the expected tools.
	next := 0
	for _, event := range trace {
		if next == len(assertion.Tools) {
			break
		}
		if event.Type == EventCall && event.Tool == assertion.Tools[next] {
			next++
		}
	}

	if next < len(assertion.Tools) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("calls in order: %v", assertion.Tools),
			Actual:   fmt.Sprintf("no %s after %v", assertion.Tools[next], assertion.Tools[:next]),
			Trace:    trace,
		}
	}

	return nil
}

// assertTraceCount checks if the tool is called exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventCall && event.Tool == assertion.Tool {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d calls to %s", assertion.Count, assertion.Tool),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}

	return nil
}

// DocumentReader is the store access document assertions need.
// *store.Store satisfies it.
type DocumentReader interface {
	DocumentContent(ctx context.Context, name string) (string, bool, error)
	ListDocuments(ctx context.Context) ([]string, error)
}

// assertDocument checks the final rendered content of one document.
func assertDocument(ctx context.Context, st DocumentReader, assertion Assertion) error {
	content, found, err := st.DocumentContent(ctx, assertion.Document)
	if err != nil {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: fmt.Sprintf("read document %s", assertion.Document),
			Actual:   fmt.Sprintf("read error: %v", err),
		}
	}

	if assertion.Absent {
		if found {
			return &AssertionError{
				Type:     AssertDocument,
				Expected: fmt.Sprintf("document %s to be absent", assertion.Document),
				Actual:   fmt.Sprintf("found with content %q", content),
			}
		}
		return nil
	}
	if assertion.Content == nil {
		return fmt.Errorf("document assertion for %s has no content", assertion.Document)
	}

	if !found {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: fmt.Sprintf("document %s with content %q", assertion.Document, *assertion.Content),
			Actual:   "document not found",
		}
	}
	if content != *assertion.Content {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: fmt.Sprintf("document %s with content %q", assertion.Document, *assertion.Content),
			Actual:   fmt.Sprintf("content %q", content),
		}
	}
	return nil
}

// assertDocuments checks the full document list.
func assertDocuments(ctx context.Context, st DocumentReader, assertion Assertion) error {
	names, err := st.ListDocuments(ctx)
	if err != nil {
		return &AssertionError{
			Type:     AssertDocuments,
			Expected: fmt.Sprintf("documents %v", assertion.Files),
			Actual:   fmt.Sprintf("list error: %v", err),
		}
	}
	if !reflect.DeepEqual(names, assertion.Files) {
		return &AssertionError{
			Type:     AssertDocuments,
			Expected: fmt.Sprintf("documents %v", assertion.Files),
			Actual:   fmt.Sprintf("documents %v", names),
		}
	}
	return nil
}

// matchArgs checks if actual contains all expected keys with equal values
// (subset match). Extra keys in actual are ignored.
func matchArgs(actual any, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}

	actualMap, ok := actual.(map[string]any)
	if !ok {
		return false
	}

	for key, expectedVal := range expected {
		actualVal, exists := actualMap[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}

	return true
}

// valuesEqual compares two values for equality.
// Handles nested maps and slices.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	return reflect.DeepEqual(actual, expected)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store DocumentReader
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides store access for document assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertDocument, AssertDocuments:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires store context", i, assertion.Type)
			} else if assertion.Type == AssertDocument {
				err = assertDocument(actx.Ctx, actx.Store, assertion)
			} else {
				err = assertDocuments(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
