package memorybank

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status values carried in payloads.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the uniform envelope returned for every tool call.
// The payload is serialized JSON in a single text content block.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is one block of a Result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text returns the concatenated text of all content blocks.
func (r Result) Text() string {
	var b bytes.Buffer
	for _, c := range r.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}

// InitializePayload is the initialize_memory_bank success payload.
type InitializePayload struct {
	Status   string   `json:"status"`
	Messages []string `json:"messages"`
}

// StatusPayload is the check_memory_bank_status payload.
type StatusPayload struct {
	Exists bool     `json:"exists"`
	Files  []string `json:"files"`
	Error  string   `json:"error,omitempty"`
}

// ReadPayload is the read_memory_bank_file success payload.
type ReadPayload struct {
	Content string `json:"content"`
}

// MessagePayload carries a status and a single message. Used for append
// success and for every error except status failures.
type MessagePayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func successResult(payload any) Result {
	return newResult(payload, false)
}

func errorResult(payload any) Result {
	return newResult(payload, true)
}

func errorMessage(format string, args ...any) Result {
	return errorResult(MessagePayload{Status: StatusError, Message: fmt.Sprintf(format, args...)})
}

func newResult(payload any, isError bool) Result {
	text, err := marshalPayload(payload)
	if err != nil {
		// Payloads are plain structs of strings and bools.
		text = fmt.Sprintf(`{"status":"error","message":%q}`, err.Error())
		isError = true
	}
	return Result{
		Content: []Content{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// marshalPayload encodes v as two-space indented JSON without HTML escaping.
func marshalPayload(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
