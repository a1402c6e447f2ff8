// Package harness runs memory bank conformance scenarios.
//
// A scenario is a YAML file describing tool calls made against a fresh
// in-memory store, the expected result of each call, and assertions on the
// resulting trace and documents.
//
// # Scenario Format
//
//	name: append_default_section
//	description: "Appending without a header uses ## General"
//	setup:
//	  - tool: initialize_memory_bank
//	    args: {}
//	flow:
//	  - call: append_memory_bank_entry
//	    args: { file_name: decisionLog.md, entry: "New decision made." }
//	    expect:
//	      is_error: false
//	      payload: { status: success }
//	assertions:
//	  - type: document
//	    document: decisionLog.md
//	    content: "## General\n- New decision made.\n\n"
//
// # Assertion Types
//
//   - trace_contains: a call to a tool with matching args appears in the trace
//   - trace_order: calls appear in the specified order
//   - trace_count: a tool is called exactly N times
//   - document: a document renders exactly as given, or does not exist
//   - documents: the store lists exactly the given documents
//
// # Deterministic Testing
//
// Store timestamps come from testutil.DeterministicClock and trace events
// carry a sequence number instead of wall time, so traces are byte-identical
// across runs and can be compared against golden snapshots (goldie).
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/initialize_twice.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
