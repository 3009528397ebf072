package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"rangedesk/concierge/internal/shop"
	mocktest "rangedesk/concierge/internal/testing"
)

// ref pins the clock for date resolution: Thursday 2026-01-15.
var ref = time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return ref }

func newAvailabilityTool(catalog *mocktest.MockCatalog, avail *mocktest.MockAvailability) *CheckAvailabilityTool {
	return NewCheckAvailabilityTool(catalog, avail, "http://shop.test.local/book", fixedNow, zap.NewNop().Sugar())
}

func execute(t *testing.T, tool interface {
	Execute(context.Context, map[string]any) (string, error)
}, args map[string]any) *Result {
	t.Helper()
	out, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, ok := ParseResult(out)
	if !ok {
		t.Fatalf("output is not a serialized result: %q", out)
	}
	return result
}

func TestCheckAvailability_UnavailableSuggestsNextDate(t *testing.T) {
	catalog := &mocktest.MockCatalog{
		Products: []shop.Product{{ID: 42, Name: "Glock 19", Available: true}},
	}
	avail := &mocktest.MockAvailability{
		Result: shop.AvailabilityResult{Available: false, NextAvailable: "2026-02-03"},
	}
	tool := newAvailabilityTool(catalog, avail)

	result := execute(t, tool, map[string]any{
		"product_name": "Glock 19",
		"dates":        "January 20-27",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(avail.Calls) != 1 {
		t.Fatalf("expected one availability call, got %d", len(avail.Calls))
	}
	call := avail.Calls[0]
	if call.ProductID != 42 {
		t.Errorf("expected product 42, got %d", call.ProductID)
	}
	if got := call.Start.Format("2006-01-02"); got != "2026-01-20" {
		t.Errorf("expected start 2026-01-20, got %s", got)
	}
	if got := call.End.Format("2006-01-02"); got != "2026-01-27" {
		t.Errorf("expected end 2026-01-27, got %s", got)
	}
	if !strings.Contains(result.Display, "Glock 19") {
		t.Errorf("display should name the product: %q", result.Display)
	}
	if !strings.Contains(result.Display, "2026-02-03") {
		t.Errorf("display should mention the next available date: %q", result.Display)
	}
}

func TestCheckAvailability_AvailableIncludesBookingLink(t *testing.T) {
	catalog := &mocktest.MockCatalog{
		Products: []shop.Product{{ID: 7, Name: "Remington 870", Available: true}},
	}
	avail := &mocktest.MockAvailability{
		Result: shop.AvailabilityResult{Available: true},
	}
	tool := newAvailabilityTool(catalog, avail)

	result := execute(t, tool, map[string]any{
		"product_id": float64(7), // JSON numbers decode as float64
		"dates":      "next weekend",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	data, ok := result.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected map data, got %T", result.Data)
	}
	// Next weekend from Thursday 2026-01-15 is Sat 24 through Sun 25.
	want := "http://shop.test.local/book?product_id=7&start_date=2026-01-24&end_date=2026-01-25"
	if data["booking_url"] != want {
		t.Errorf("expected booking url %q, got %v", want, data["booking_url"])
	}
	if !strings.Contains(result.Display, want) {
		t.Errorf("display should carry the booking link: %q", result.Display)
	}
}

func TestCheckAvailability_SingleDateGetsSevenDayWindow(t *testing.T) {
	catalog := &mocktest.MockCatalog{
		Products: []shop.Product{{ID: 3, Name: "Sig P365", Available: true}},
	}
	avail := &mocktest.MockAvailability{Result: shop.AvailabilityResult{Available: true}}
	tool := newAvailabilityTool(catalog, avail)

	result := execute(t, tool, map[string]any{
		"product_id": float64(3),
		"start_date": "2026-01-20",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	call := avail.Calls[0]
	if got := call.End.Format("2006-01-02"); got != "2026-01-26" {
		t.Errorf("expected default window to end 2026-01-26, got %s", got)
	}
}

func TestCheckAvailability_MissingDatesAsksForThem(t *testing.T) {
	tool := newAvailabilityTool(&mocktest.MockCatalog{}, &mocktest.MockAvailability{})

	result := execute(t, tool, map[string]any{"product_name": "Glock 19"})

	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !strings.Contains(result.Error, "dates") {
		t.Errorf("error should ask for dates: %q", result.Error)
	}
}

func TestCheckAvailability_PastDateRelaysParserError(t *testing.T) {
	avail := &mocktest.MockAvailability{}
	tool := newAvailabilityTool(&mocktest.MockCatalog{}, avail)

	result := execute(t, tool, map[string]any{
		"product_id": float64(1),
		"dates":      "2026-01-10",
	})

	if result.Success {
		t.Fatalf("expected failure for past date, got %+v", result)
	}
	if !strings.Contains(result.Error, "past") {
		t.Errorf("error should mention the past: %q", result.Error)
	}
	if len(avail.Calls) != 0 {
		t.Errorf("availability backend must not be called on parse failure")
	}
}

func TestCheckAvailability_UnknownProductAsksForModel(t *testing.T) {
	tool := newAvailabilityTool(&mocktest.MockCatalog{}, &mocktest.MockAvailability{})

	result := execute(t, tool, map[string]any{
		"product_name": "phased plasma rifle",
		"dates":        "next week",
	})

	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !strings.Contains(result.Error, "phased plasma rifle") {
		t.Errorf("error should echo the unmatched name: %q", result.Error)
	}
}
