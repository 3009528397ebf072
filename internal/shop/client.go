package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"rangedesk/concierge/internal/dates"
)

// Client talks to the shop's REST bridge (the WordPress/WooCommerce side).
// It implements Catalog, Availability and Orders over three endpoints under
// one base URL, authenticated with a consumer key/secret pair.
type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	logger  *zap.SugaredLogger
}

var (
	_ Catalog      = (*Client)(nil)
	_ Availability = (*Client)(nil)
	_ Orders       = (*Client)(nil)
)

// NewClient builds a REST client for the shop bridge. timeout bounds every
// backend call independently of the outer request deadline.
func NewClient(baseURL, key, secret string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: baseURL,
		key:     key,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	params := url.Values{}
	if q.Query != "" {
		params.Set("search", q.Query)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.AvailableOnly {
		params.Set("available_only", "1")
	}
	if q.Page > 1 {
		params.Set("page", strconv.Itoa(q.Page))
	}

	var result SearchResult
	if err := c.get(ctx, "/products", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Check(ctx context.Context, productID int64, start, end time.Time) (*AvailabilityResult, error) {
	params := url.Values{}
	params.Set("product_id", strconv.FormatInt(productID, 10))
	params.Set("start_date", start.Format(dates.ISO))
	params.Set("end_date", end.Format(dates.ISO))

	var result AvailabilityResult
	if err := c.get(ctx, "/availability", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Lookup(ctx context.Context, number, email string) (*Order, error) {
	params := url.Values{}
	params.Set("order_number", number)
	params.Set("email", email)

	var order Order
	err := c.get(ctx, "/orders/lookup", params, &order)
	if err != nil {
		// The bridge answers 404 for every miss, by contract.
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("shop backend returned %d for %s", e.code, e.url)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build shop request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warnw("Shop request failed", "path", path, "error", err)
		return fmt.Errorf("shop backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debugw("Shop request",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, url: path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode shop response: %w", err)
	}
	return nil
}
