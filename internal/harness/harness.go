package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/memorybank/internal/memorybank"
	"github.com/roach88/memorybank/internal/store"
	"github.com/roach88/memorybank/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a fresh store with deterministic timestamps.
type Harness struct {
	router *memorybank.Router
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and router
// 2. Execute setup calls (each must succeed)
// 3. Execute flow calls, validating expect clauses
// 4. Evaluate assertions against the trace and final documents
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithClock(testutil.NewDeterministicClock().Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		router: memorybank.New(st,
			memorybank.WithLogger(logger),
			memorybank.WithCallIDGenerator(testutil.NewFixedCallIDGenerator("")),
		),
		clock:  testutil.NewDeterministicClock(),
		logger: logger,
	}

	ctx := context.Background()

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup calls. A setup call that returns an error
// envelope aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, setup []CallStep) error {
	for i, step := range setup {
		res := h.router.Call(ctx, step.Tool, step.Args)
		if res.IsError {
			return fmt.Errorf("setup step %d (%s): %s", i, step.Tool, res.Text())
		}
		h.logger.Info("setup step completed", "step", i, "tool", step.Tool)
	}
	return nil
}

// executeFlow runs all flow calls, tracing each call and its result, and
// validates expect clauses against the actual results.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		// clock.Next() is called exactly once per trace event
		result.AddCallTrace(step.Call, step.Args, h.clock.Next())

		res := h.router.Call(ctx, step.Call, step.Args)

		var payload any
		if err := json.Unmarshal([]byte(res.Text()), &payload); err != nil {
			return fmt.Errorf("flow step %d: result is not JSON: %w", i, err)
		}
		result.AddResultTrace(res.IsError, payload, h.clock.Next())

		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, res, payload) {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Call, msg))
			}
		}

		h.logger.Info("flow step completed", "step", i, "tool", step.Call, "is_error", res.IsError)
	}

	return nil
}

// checkExpect compares one result with its expectation and returns a
// message per mismatch.
func checkExpect(expect *ExpectClause, res memorybank.Result, payload any) []string {
	var msgs []string

	if res.IsError != expect.IsError {
		msgs = append(msgs, fmt.Sprintf("expected is_error=%t, got %t (%s)", expect.IsError, res.IsError, res.Text()))
	}

	if len(expect.Payload) > 0 {
		want, err := normalize(expect.Payload)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("expected payload: %v", err))
		} else if !matchArgs(payload, want.(map[string]any)) {
			msgs = append(msgs, fmt.Sprintf("expected payload to contain %v, got %v", want, payload))
		}
	}

	if expect.Contains != "" && !strings.Contains(res.Text(), expect.Contains) {
		msgs = append(msgs, fmt.Sprintf("expected result to contain %q, got %s", expect.Contains, res.Text()))
	}

	return msgs
}

// normalize round-trips v through JSON so YAML-decoded values compare equal
// to JSON-decoded ones (ints become float64, nested maps become
// map[string]any).
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
