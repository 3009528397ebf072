package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"rangedesk/concierge/internal/shop"
	mocktest "rangedesk/concierge/internal/testing"
)

var errBackend = errors.New("connection refused")

func newOrderTool(orders *mocktest.MockOrders) *LookupOrderTool {
	return NewLookupOrderTool(orders, "ORD-", zap.NewNop().Sugar())
}

func storedOrder() map[string]*shop.Order {
	return map[string]*shop.Order{
		"1042|jane@example.com": {
			Number: "ORD-1042",
			Status: "processing",
			Total:  "$85.00",
		},
	}
}

func TestLookupOrder_NormalizesNumberForms(t *testing.T) {
	cases := []string{"1042", "ORD-1042", "ord-1042", "#ORD-1042", "  #ord-1042  "}
	for _, number := range cases {
		t.Run(number, func(t *testing.T) {
			orders := &mocktest.MockOrders{Orders: storedOrder()}
			result := execute(t, newOrderTool(orders), map[string]any{
				"order_number": number,
				"email":        "jane@example.com",
			})
			if !result.Success {
				t.Fatalf("expected success for %q, got %+v", number, result)
			}
			if !strings.Contains(result.Display, "processing") {
				t.Errorf("display should carry the status: %q", result.Display)
			}
			if orders.Calls[0].Number != "1042" {
				t.Errorf("expected normalized number 1042, got %q", orders.Calls[0].Number)
			}
		})
	}
}

func TestLookupOrder_NotFoundIsIndistinguishable(t *testing.T) {
	// Wrong number and wrong email must produce byte-identical output so
	// a caller cannot probe which half was right.
	orders := &mocktest.MockOrders{Orders: storedOrder()}
	tool := newOrderTool(orders)

	wrongNumber, err := tool.Execute(context.Background(), map[string]any{
		"order_number": "9999",
		"email":        "jane@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wrongEmail, err := tool.Execute(context.Background(), map[string]any{
		"order_number": "1042",
		"email":        "mallory@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if wrongNumber != wrongEmail {
		t.Errorf("lookup failures must be byte-identical:\n%s\n%s", wrongNumber, wrongEmail)
	}
	result, _ := ParseResult(wrongNumber)
	if result.Success {
		t.Errorf("expected failure, got %+v", result)
	}
}

func TestLookupOrder_RequiresBothFactors(t *testing.T) {
	cases := map[string]map[string]any{
		"missing email":  {"order_number": "1042"},
		"missing number": {"email": "jane@example.com"},
		"blank email":    {"order_number": "1042", "email": "   "},
		"nothing":        {},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			orders := &mocktest.MockOrders{Orders: storedOrder()}
			result := execute(t, newOrderTool(orders), args)
			if result.Success {
				t.Fatalf("expected failure, got %+v", result)
			}
			if len(orders.Calls) != 0 {
				t.Errorf("backend must not be consulted with a missing factor")
			}
		})
	}
}

func TestLookupOrder_NumericOrderNumberArg(t *testing.T) {
	// Models sometimes send the order number as a JSON number.
	orders := &mocktest.MockOrders{Orders: storedOrder()}
	result := execute(t, newOrderTool(orders), map[string]any{
		"order_number": float64(1042),
		"email":        "jane@example.com",
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestLookupOrder_BackendFaultIsGeneric(t *testing.T) {
	orders := &mocktest.MockOrders{Err: errBackend}
	result := execute(t, newOrderTool(orders), map[string]any{
		"order_number": "1042",
		"email":        "jane@example.com",
	})
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if strings.Contains(result.Error, errBackend.Error()) {
		t.Errorf("backend detail must not leak to the model: %q", result.Error)
	}
}
