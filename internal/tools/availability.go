package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/dates"
	"rangedesk/concierge/internal/shop"
)

// CheckAvailabilityTool resolves a product and a date expression, then asks
// the availability backend whether the rental fits.
type CheckAvailabilityTool struct {
	baseTool
	catalog      shop.Catalog
	availability shop.Availability
	bookingURL   string
	logger       *zap.SugaredLogger

	// now is injected so tests can pin the reference date.
	now func() time.Time
}

func NewCheckAvailabilityTool(catalog shop.Catalog, availability shop.Availability, bookingURL string, now func() time.Time, logger *zap.SugaredLogger) *CheckAvailabilityTool {
	if now == nil {
		now = time.Now
	}
	return &CheckAvailabilityTool{
		catalog:      catalog,
		availability: availability,
		bookingURL:   bookingURL,
		logger:       logger,
		now:          now,
	}
}

func (t *CheckAvailabilityTool) GetName() string { return "check_availability" }

func (t *CheckAvailabilityTool) GetSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Title:       "check_availability",
		Description: "Check whether a product can be rented for given dates. Pass the customer's own wording in 'dates' when possible.",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"dates": {
				Type:        "string",
				Description: "The dates as the customer said them, e.g. 'next weekend' or 'January 20-27' (preferred)",
			},
			"start_date": {
				Type:        "string",
				Description: "Explicit start date, YYYY-MM-DD (use only when 'dates' is not given)",
			},
			"end_date": {
				Type:        "string",
				Description: "Explicit end date, YYYY-MM-DD",
			},
			"product_id": {
				Type:        "integer",
				Description: "Catalog id of the product, if known",
			},
			"product_name": {
				Type:        "string",
				Description: "Product name to look up when the id is not known",
			},
		},
	}
}

func (t *CheckAvailabilityTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rng, fail := t.resolveDates(args)
	if fail != nil {
		return fail.JSON(), nil
	}

	id, name, fail := t.resolveProduct(ctx, args)
	if fail != nil {
		return fail.JSON(), nil
	}

	res, err := t.availability.Check(ctx, id, rng.Start, rng.End)
	if err != nil {
		t.logger.Errorw("Availability check failed", "product_id", id, "range", rng.String(), "error", err)
		return Failf("the availability service is unreachable right now, please try again in a moment").JSON(), nil
	}

	booking := fmt.Sprintf("%s?product_id=%d&start_date=%s&end_date=%s",
		t.bookingURL, id, rng.Start.Format(dates.ISO), rng.End.Format(dates.ISO))

	data := map[string]any{
		"product_id":  id,
		"start_date":  rng.Start.Format(dates.ISO),
		"end_date":    rng.End.Format(dates.ISO),
		"available":   res.Available,
		"booking_url": booking,
	}

	var display string
	if res.Available {
		display = fmt.Sprintf("%s is available %s. Book it here: %s", name, rng.String(), booking)
	} else {
		display = fmt.Sprintf("%s is not available %s.", name, rng.String())
		if res.NextAvailable != "" {
			data["next_available"] = res.NextAvailable
			display = fmt.Sprintf("%s is not available %s. It is next available on %s.", name, rng.String(), res.NextAvailable)
		}
	}
	return OK(display, data).JSON(), nil
}

// resolveDates prefers the customer's natural wording over explicit
// endpoints; either path goes through the date parser so validation is
// uniform. Parser failures are relayed verbatim.
func (t *CheckAvailabilityTool) resolveDates(args map[string]any) (dates.Range, *Result) {
	ref := t.now()

	text, _ := args["dates"].(string)
	start, _ := args["start_date"].(string)
	end, _ := args["end_date"].(string)
	text = strings.TrimSpace(text)

	var input string
	switch {
	case text != "":
		input = text
	case start != "" && end != "":
		input = start + " to " + end
	case start != "":
		input = start
	default:
		return dates.Range{}, Failf("no rental dates were given, ask the customer when they would like to rent")
	}

	rng, err := dates.Parse(input, ref)
	if err != nil {
		return dates.Range{}, Failf("%v", err)
	}
	return rng, nil
}

// resolveProduct takes an explicit id when present, otherwise falls back to
// a best-effort name search and the first match.
func (t *CheckAvailabilityTool) resolveProduct(ctx context.Context, args map[string]any) (int64, string, *Result) {
	name, _ := args["product_name"].(string)
	name = strings.TrimSpace(name)

	if id, ok := numericArg(args["product_id"]); ok && id > 0 {
		if name == "" {
			name = fmt.Sprintf("product %d", id)
		}
		return id, name, nil
	}

	if name == "" {
		return 0, "", Failf("could not identify the firearm, ask the customer which model they mean")
	}

	res, err := t.catalog.Search(ctx, shop.SearchQuery{Query: name})
	if err != nil {
		t.logger.Errorw("Product resolution search failed", "name", name, "error", err)
		return 0, "", Failf("the product search is unavailable right now, please try again in a moment")
	}
	if len(res.Items) == 0 {
		return 0, "", Failf("could not identify the firearm %q, ask the customer to confirm the model name", name)
	}
	first := res.Items[0]
	return first.ID, first.Name, nil
}

// numericArg accepts the number encodings JSON tool arguments show up in.
func numericArg(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
