package events

import (
	"encoding/json"
	"testing"
)

func TestWireShapes(t *testing.T) {
	cases := []struct {
		name  string
		event Event
		want  string
	}{
		{"text", Text{Content: "Hi there"}, `{"type":"text","content":"Hi there"}`},
		{"tool_start", ToolStart{Tool: "search_products"}, `{"type":"tool_start","tool":"search_products"}`},
		{"tool_result without data", ToolResult{Tool: "lookup_order", Display: "Order ORD-1042 is processing."},
			`{"type":"tool_result","tool":"lookup_order","display":"Order ORD-1042 is processing."}`},
		{"tool_result with data", ToolResult{Tool: "check_availability", Display: "ok", Data: map[string]any{"available": true}},
			`{"type":"tool_result","tool":"check_availability","display":"ok","data":{"available":true}}`},
		{"error", Error{Message: "Please try again."}, `{"type":"error","message":"Please try again."}`},
		{"done", Done{}, `{"type":"done"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	if Terminal(Text{}) || Terminal(ToolStart{}) || Terminal(ToolResult{}) {
		t.Error("progress events must not be terminal")
	}
	if !Terminal(Done{}) || !Terminal(Error{}) {
		t.Error("done and error are terminal")
	}
}
