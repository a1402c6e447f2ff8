package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/memorybank/internal/memorybank"
)

// Scenario defines a conformance test scenario: a sequence of tool calls
// against a fresh store, with expectations on each result and assertions on
// the trace and the final documents.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup contains tool calls made before the flow. Each must succeed.
	// Setup calls are not traced.
	Setup []CallStep `yaml:"setup,omitempty"`

	// Flow contains the tool calls under test.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and documents.
	// Supported types: trace_contains, trace_order, trace_count, document, documents
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CallStep is a single tool call.
type CallStep struct {
	// Tool is the tool name (e.g., "append_memory_bank_entry").
	Tool string `yaml:"tool"`

	// Args is the argument object passed to the tool.
	Args map[string]any `yaml:"args"`
}

// FlowStep is a traced tool call with an optional expectation.
type FlowStep struct {
	// Call is the tool name.
	Call string `yaml:"call"`

	// Args is the argument object passed to the tool.
	Args map[string]any `yaml:"args"`

	// Expect validates the result. If nil, any result is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected result of a flow step.
type ExpectClause struct {
	// IsError is the expected isError flag.
	IsError bool `yaml:"is_error"`

	// Payload is matched against the decoded result payload.
	// This is a subset match - only specified fields are validated.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Contains must appear in the result text when non-empty.
	Contains string `yaml:"contains,omitempty"`
}

// Assertion validates the trace or the final documents.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a call to Tool with Args (subset) appears in the trace
	// - "trace_order": calls to Tools appear in order
	// - "trace_count": Tool is called exactly Count times
	// - "document": Document renders exactly as Content, or is Absent
	// - "documents": the store lists exactly Files
	Type string `yaml:"type"`

	// Tool is the tool name (used by trace_contains, trace_count).
	Tool string `yaml:"tool,omitempty"`

	// Args are the expected call arguments (used by trace_contains).
	Args map[string]any `yaml:"args,omitempty"`

	// Count is the expected number of calls (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Tools is the expected call order (used by trace_order).
	Tools []string `yaml:"tools,omitempty"`

	// Document is the document name (used by document).
	Document string `yaml:"document,omitempty"`

	// Content is the expected rendered content (used by document).
	Content *string `yaml:"content,omitempty"`

	// Absent asserts that Document does not exist (used by document).
	Absent bool `yaml:"absent,omitempty"`

	// Files is the expected document list (used by documents).
	Files []string `yaml:"files,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertDocument      = "document"
	AssertDocuments     = "documents"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// knownTools is the set of tool names scenarios may reference.
// Flow steps may name other tools to exercise unknown-tool handling.
func knownTools() map[string]bool {
	tools, err := memorybank.Catalog()
	if err != nil {
		return map[string]bool{}
	}
	known := make(map[string]bool, len(tools))
	for _, t := range tools {
		known[t.Name] = true
	}
	return known
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	known := knownTools()
	for i, step := range s.Setup {
		if step.Tool == "" {
			return fmt.Errorf("setup[%d]: tool is required", i)
		}
		if !known[step.Tool] {
			return fmt.Errorf("setup[%d]: unknown tool %q", i, step.Tool)
		}
	}

	for i, step := range s.Flow {
		if step.Call == "" {
			return fmt.Errorf("flow[%d]: call is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Tool == "" {
			return fmt.Errorf("assertions[%d]: tool is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Tools) == 0 {
			return fmt.Errorf("assertions[%d]: tools list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Tool == "" {
			return fmt.Errorf("assertions[%d]: tool is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertDocument:
		if a.Document == "" {
			return fmt.Errorf("assertions[%d]: document is required for document", index)
		}
		if a.Absent == (a.Content != nil) {
			return fmt.Errorf("assertions[%d]: exactly one of content or absent is required for document", index)
		}
	case AssertDocuments:
		if a.Files == nil {
			return fmt.Errorf("assertions[%d]: files is required for documents (use [] for none)", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
