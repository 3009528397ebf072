// Package tools declares the three concierge tool contracts offered to the
// model and executes them against the shop collaborators. Tool failures are
// data, not errors: everything a tool can go wrong on comes back as a
// Result the model can read and recover from in conversation.
package tools

import (
	"encoding/json"
	"fmt"
)

// Result is the structured outcome of one tool call. It is serialized as
// the tool-role message body fed back to the model; Display, when present,
// is additionally surfaced to the client as a discrete stream event.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Display string `json:"display,omitempty"`
}

// OK builds a successful result.
func OK(display string, data any) *Result {
	return &Result{Success: true, Display: display, Data: data}
}

// Failf builds a failed result whose Error doubles as a clarification
// request the model can relay. Not for system faults; use user-safe text.
func Failf(format string, args ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// JSON renders the result for conversation history.
func (r *Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Data payloads are plain structs and maps; this should not happen.
		fallback, _ := json.Marshal(&Result{Success: false, Error: "internal encoding error"})
		return string(fallback)
	}
	return string(data)
}

// ParseResult recovers a Result from a tool's string output. ok=false when
// the output is not a serialized Result.
func ParseResult(s string) (*Result, bool) {
	var r Result
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, false
	}
	return &r, true
}
