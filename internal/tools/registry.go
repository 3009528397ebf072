package tools

import (
	"time"

	ptools "github.com/alexschlessinger/pollytool/tools"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/config"
	"rangedesk/concierge/internal/shop"
)

// Deps carries everything the concierge tools need. Collaborators are
// interfaces so tests can drop in fakes.
type Deps struct {
	Catalog      shop.Catalog
	Availability shop.Availability
	Orders       shop.Orders
	Shop         *config.ShopConfig
	Logger       *zap.SugaredLogger

	// Now overrides the clock for tests; nil means time.Now.
	Now func() time.Time
}

// NewRegistry builds the registry holding exactly the three concierge
// tools.
func NewRegistry(d Deps) *ptools.ToolRegistry {
	if d.Now == nil {
		d.Now = time.Now
	}
	return ptools.NewToolRegistry([]ptools.Tool{
		NewSearchProductsTool(d.Catalog, d.Logger),
		NewCheckAvailabilityTool(d.Catalog, d.Availability, d.Shop.BookingURL, d.Now, d.Logger),
		NewLookupOrderTool(d.Orders, d.Shop.OrderPrefix, d.Logger),
	})
}
