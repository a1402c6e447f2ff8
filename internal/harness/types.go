package harness

// Trace event types.
const (
	EventCall   = "call"
	EventResult = "result"
)

// TraceEvent is one tool call or its result. Seq orders events within a
// scenario run.
type TraceEvent struct {
	Type    string         `json:"type"` // "call" or "result"
	Tool    string         `json:"tool,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	IsError bool           `json:"is_error,omitempty"`
	Payload any            `json:"payload,omitempty"`
	Seq     int64          `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every call and result in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCallTrace adds a tool call to the trace.
func (r *Result) AddCallTrace(tool string, args map[string]any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type: EventCall,
		Tool: tool,
		Args: args,
		Seq:  seq,
	})
}

// AddResultTrace adds a tool result to the trace.
func (r *Result) AddResultTrace(isError bool, payload any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    EventResult,
		IsError: isError,
		Payload: payload,
		Seq:     seq,
	})
}
