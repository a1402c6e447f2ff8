// Package memorybank routes memory bank tool calls to the document store.
//
// A call arrives as a tool name plus a loosely-typed argument bag. The router
// validates it into a typed Request (ParseRequest), dispatches to the Store,
// and returns a Result envelope:
//
//	{"content":[{"type":"text","text":"<payload JSON>"}]}
//	{"content":[{"type":"text","text":"<payload JSON>"}],"isError":true}
//
// Validation failures never reach the Store. Store failures are logged and
// converted to error envelopes with the underlying message passed through.
// No error escapes Call.
//
// The tool catalog is declared in catalog.cue and compiled at first use.
package memorybank
