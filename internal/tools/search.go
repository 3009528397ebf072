package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/shop"
)

// maxSearchResults caps what one search returns; anything more is noise in
// a chat window.
const maxSearchResults = 6

// categories the catalog tags products with. Kept in the schema so the
// model picks from a closed list instead of inventing labels.
var productCategories = []any{"handguns", "rifles", "shotguns", "suppressors", "optics", "accessories"}

// baseTool carries the pollytool Tool boilerplate shared by the concierge
// tools.
type baseTool struct{}

func (baseTool) SetContext(any)     {}
func (baseTool) GetType() string    { return "native" }
func (baseTool) GetSource() string  { return "builtin" }

// SearchProductsTool searches the rental catalog. The catalog's own
// filtering is approximate, so the exact category and availability
// predicates are re-applied here after the fetch.
type SearchProductsTool struct {
	baseTool
	catalog shop.Catalog
	logger  *zap.SugaredLogger
}

func NewSearchProductsTool(catalog shop.Catalog, logger *zap.SugaredLogger) *SearchProductsTool {
	return &SearchProductsTool{catalog: catalog, logger: logger}
}

func (t *SearchProductsTool) GetName() string { return "search_products" }

func (t *SearchProductsTool) GetSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Title:       "search_products",
		Description: "Search the rental catalog. Use when the customer asks what is available or about a particular model.",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "Free-text search, e.g. 'Glock 19' or '9mm pistol'",
			},
			"category": {
				Type:        "string",
				Description: "Restrict results to one category",
				Enum:        productCategories,
			},
			"available_only": {
				Type:        "boolean",
				Description: "Only return items currently available to rent (default true)",
			},
		},
	}
}

func (t *SearchProductsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	category, _ := args["category"].(string)
	availableOnly := true
	if v, ok := args["available_only"].(bool); ok {
		availableOnly = v
	}

	res, err := t.catalog.Search(ctx, shop.SearchQuery{
		Query:         strings.TrimSpace(query),
		Category:      category,
		AvailableOnly: availableOnly,
	})
	if err != nil {
		t.logger.Errorw("Catalog search failed", "query", query, "error", err)
		return Failf("the product search is unavailable right now, please try again in a moment").JSON(), nil
	}

	items := make([]shop.Product, 0, len(res.Items))
	for _, p := range res.Items {
		if category != "" && !p.InCategory(category) {
			continue
		}
		if availableOnly && !p.Available {
			continue
		}
		items = append(items, p)
		if len(items) == maxSearchResults {
			break
		}
	}

	if len(items) == 0 {
		if availableOnly {
			// An empty shelf is an answer, not a failure.
			return OK("No available matches right now. Would you like to see items that are currently rented out as well?", []shop.Product{}).JSON(), nil
		}
		return OK("Nothing in the catalog matched that search. Try a broader term?", []shop.Product{}).JSON(), nil
	}

	names := make([]string, len(items))
	for i, p := range items {
		names[i] = p.Name
	}
	display := fmt.Sprintf("Found %d matching product(s): %s", len(items), strings.Join(names, ", "))
	return OK(display, items).JSON(), nil
}
