// Package events defines the outbound stream event vocabulary. The set is
// closed: every event the concierge can emit is one of the five types below,
// and the agent loop guarantees each stream ends with exactly one terminal
// event (Done or Error).
package events

import "encoding/json"

// Type tags an event on the wire.
type Type string

const (
	TypeText       Type = "text"
	TypeToolStart  Type = "tool_start"
	TypeToolResult Type = "tool_result"
	TypeError      Type = "error"
	TypeDone       Type = "done"
)

// Event is the sealed union of stream events. Only the concrete types in
// this package implement it.
type Event interface {
	EventType() Type
	sealed()
}

// Text carries one incremental chunk of assistant prose.
type Text struct {
	Content string
}

// ToolStart announces that a named tool is about to run. UI feedback only,
// not a protocol commitment: a failed stream may end without the matching
// ToolResult.
type ToolStart struct {
	Tool string
}

// ToolResult carries the human-readable summary of one finished tool call
// plus the raw payload when the tool produced one.
type ToolResult struct {
	Tool    string
	Display string
	Data    any
}

// Error is terminal and aborts the stream. Message is always user-safe; raw
// upstream detail stays in the server logs.
type Error struct {
	Message string
}

// Done is the terminal event of every successful response.
type Done struct{}

func (Text) EventType() Type       { return TypeText }
func (ToolStart) EventType() Type  { return TypeToolStart }
func (ToolResult) EventType() Type { return TypeToolResult }
func (Error) EventType() Type      { return TypeError }
func (Done) EventType() Type       { return TypeDone }

func (Text) sealed()       {}
func (ToolStart) sealed()  {}
func (ToolResult) sealed() {}
func (Error) sealed()      {}
func (Done) sealed()       {}

func (e Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Type   `json:"type"`
		Content string `json:"content"`
	}{TypeText, e.Content})
}

func (e ToolStart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Type   `json:"type"`
		Tool string `json:"tool"`
	}{TypeToolStart, e.Tool})
}

func (e ToolResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Type   `json:"type"`
		Tool    string `json:"tool"`
		Display string `json:"display"`
		Data    any    `json:"data,omitempty"`
	}{TypeToolResult, e.Tool, e.Display, e.Data})
}

func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Type   `json:"type"`
		Message string `json:"message"`
	}{TypeError, e.Message})
}

func (Done) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"done"}`), nil
}

// Terminal reports whether the event ends the stream.
func Terminal(e Event) bool {
	switch e.(type) {
	case Error, Done:
		return true
	}
	return false
}
