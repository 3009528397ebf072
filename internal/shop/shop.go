// Package shop defines the backend collaborators the concierge tools talk
// to: the rental catalog, the per-product availability checker, and the
// order lookup service. The interfaces are small so tests can substitute
// fakes without any HTTP.
package shop

import (
	"context"
	"errors"
	"time"
)

// ErrOrderNotFound is the single miss signal for order lookups. The backend
// contract collapses "no such order" and "order exists but email does not
// match" into this one error so callers cannot enumerate orders.
var ErrOrderNotFound = errors.New("order not found")

// Product is one rentable item from the catalog.
type Product struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Price         string   `json:"price"`
	Available     bool     `json:"available"`
	NextAvailable string   `json:"next_available,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// InCategory reports whether the product carries the given category tag.
func (p Product) InCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// SearchQuery is the catalog search input. The catalog's own filtering is
// approximate; exact predicates are re-applied by the caller.
type SearchQuery struct {
	Query         string
	Category      string
	AvailableOnly bool
	Page          int
}

// SearchResult is one page of catalog matches.
type SearchResult struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// AvailabilityResult reports whether a product can be rented for a date
// range, and when it next frees up if it cannot.
type AvailabilityResult struct {
	Available     bool   `json:"available"`
	NextAvailable string `json:"next_available,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order is the record returned by a successful two-factor lookup.
type Order struct {
	Number  string      `json:"number"`
	Status  string      `json:"status"`
	Total   string      `json:"total"`
	Created string      `json:"created,omitempty"`
	Items   []OrderItem `json:"items,omitempty"`
}

// Catalog searches the rental inventory.
type Catalog interface {
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

// Availability checks one product against a date range.
type Availability interface {
	Check(ctx context.Context, productID int64, start, end time.Time) (*AvailabilityResult, error)
}

// Orders looks up an order by number and email. Both factors must match;
// any miss returns ErrOrderNotFound.
type Orders interface {
	Lookup(ctx context.Context, number, email string) (*Order, error)
}
