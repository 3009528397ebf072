package testing

import (
	"context"
	"time"

	"rangedesk/concierge/internal/shop"
)

// MockCatalog implements shop.Catalog backed by a fixed product slice.
type MockCatalog struct {
	Products []shop.Product
	Err      error

	Queries []shop.SearchQuery // Recorded for assertions
}

// Search implements shop.Catalog
func (m *MockCatalog) Search(ctx context.Context, q shop.SearchQuery) (*shop.SearchResult, error) {
	m.Queries = append(m.Queries, q)
	if m.Err != nil {
		return nil, m.Err
	}
	return &shop.SearchResult{Items: m.Products, Total: len(m.Products)}, nil
}

// AvailabilityCall records a Check() invocation
type AvailabilityCall struct {
	ProductID int64
	Start     time.Time
	End       time.Time
}

// MockAvailability implements shop.Availability with a fixed answer.
type MockAvailability struct {
	Result shop.AvailabilityResult
	Err    error

	Calls []AvailabilityCall // Recorded for assertions
}

// Check implements shop.Availability
func (m *MockAvailability) Check(ctx context.Context, productID int64, start, end time.Time) (*shop.AvailabilityResult, error) {
	m.Calls = append(m.Calls, AvailabilityCall{ProductID: productID, Start: start, End: end})
	if m.Err != nil {
		return nil, m.Err
	}
	result := m.Result
	return &result, nil
}

// LookupCall records a Lookup() invocation
type LookupCall struct {
	Number string
	Email  string
}

// MockOrders implements shop.Orders over an in-memory order map keyed by
// "number|email".
type MockOrders struct {
	Orders map[string]*shop.Order
	Err    error

	Calls []LookupCall // Recorded for assertions
}

// Lookup implements shop.Orders
func (m *MockOrders) Lookup(ctx context.Context, number, email string) (*shop.Order, error) {
	m.Calls = append(m.Calls, LookupCall{Number: number, Email: email})
	if m.Err != nil {
		return nil, m.Err
	}
	if order, ok := m.Orders[number+"|"+email]; ok {
		return order, nil
	}
	return nil, shop.ErrOrderNotFound
}

var (
	_ shop.Catalog      = (*MockCatalog)(nil)
	_ shop.Availability = (*MockAvailability)(nil)
	_ shop.Orders       = (*MockOrders)(nil)
)
