package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/shop"
)

// orderNotFoundMsg is the single answer for every failed lookup. Keeping it
// one constant guarantees "no such order" and "wrong email" are
// byte-identical to the caller, so order numbers cannot be enumerated.
const orderNotFoundMsg = "No order was found matching that order number and email address. Please double-check both and try again."

// LookupOrderTool is the two-factor order lookup. Both the order number and
// the email on the order are required, always.
type LookupOrderTool struct {
	baseTool
	orders shop.Orders
	prefix string
	logger *zap.SugaredLogger
}

func NewLookupOrderTool(orders shop.Orders, prefix string, logger *zap.SugaredLogger) *LookupOrderTool {
	return &LookupOrderTool{orders: orders, prefix: prefix, logger: logger}
}

func (t *LookupOrderTool) GetName() string { return "lookup_order" }

func (t *LookupOrderTool) GetSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Title:       "lookup_order",
		Description: "Look up an order's status. Requires BOTH the order number AND the email address used on the order.",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"order_number": {
				Type:        "string",
				Description: "The order number, e.g. 'ORD-1042' or '1042'",
			},
			"email": {
				Type:        "string",
				Description: "The email address the order was placed with",
			},
		},
		Required: []string{"order_number", "email"},
	}
}

func (t *LookupOrderTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	number := stringArg(args["order_number"])
	email := strings.TrimSpace(stringArg(args["email"]))

	// Two-factor requirement: never look anything up on one factor alone.
	if number == "" || email == "" {
		return Failf("both the order number and the email address on the order are required").JSON(), nil
	}

	normalized := t.normalize(number)
	order, err := t.orders.Lookup(ctx, normalized, email)
	if err != nil {
		if errors.Is(err, shop.ErrOrderNotFound) {
			return Failf("%s", orderNotFoundMsg).JSON(), nil
		}
		t.logger.Errorw("Order lookup failed", "error", err)
		return Failf("the order service is unavailable right now, please try again in a moment").JSON(), nil
	}

	display := fmt.Sprintf("Order %s is %s (total %s).", order.Number, order.Status, order.Total)
	return OK(display, order).JSON(), nil
}

// normalize strips a leading '#' and the shop's order prefix,
// case-insensitively, before dispatch.
func (t *LookupOrderTool) normalize(number string) string {
	n := strings.TrimSpace(number)
	n = strings.TrimPrefix(n, "#")
	if t.prefix != "" && len(n) >= len(t.prefix) && strings.EqualFold(n[:len(t.prefix)], t.prefix) {
		n = n[len(t.prefix):]
	}
	return strings.TrimSpace(n)
}

// stringArg tolerates the model sending numbers where strings are expected.
func stringArg(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", s), ".0")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
