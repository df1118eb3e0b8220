package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orderconv/internal"
	"orderconv/internal/config"
	"orderconv/internal/util"
)

// Client talks to the distributor ERP. All list endpoints use scroll
// pagination so a full sync never holds a server-side cursor open for
// longer than one page.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *rateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type scrollPayload struct {
	Items    []map[string]any `json:"items"`
	ScrollID *string          `json:"scrollId"`
	Total    *int             `json:"total"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.ERPTimeoutMs) * time.Millisecond},
		limiter:    newRateLimiter(cfg.ERPRateLimitRPS),
	}
}

func (c *Client) GetProductsAll(ctx context.Context) ([]internal.ProductEntry, error) {
	return c.getProducts(ctx, map[string]string{})
}

func (c *Client) GetProductsIncremental(ctx context.Context) ([]internal.ProductEntry, error) {
	return c.getProducts(ctx, map[string]string{
		"hours": strconv.Itoa(c.cfg.ERPLookbackHours),
	})
}

func (c *Client) GetCustomersAll(ctx context.Context) ([]internal.CustomerEntry, error) {
	return c.getCustomers(ctx, map[string]string{})
}

func (c *Client) GetCustomersIncremental(ctx context.Context) ([]internal.CustomerEntry, error) {
	return c.getCustomers(ctx, map[string]string{
		"days": strconv.Itoa(c.cfg.ERPLookbackDays),
	})
}

func (c *Client) GetSchemesAll(ctx context.Context) ([]internal.Scheme, error) {
	items, err := c.scrollAll(ctx, "scheme/scroll", map[string]string{})
	if err != nil {
		return nil, err
	}
	out := make([]internal.Scheme, 0, len(items))
	for _, raw := range items {
		scheme, err := toScheme(raw)
		if err != nil {
			continue
		}
		out = append(out, scheme)
	}
	return out, nil
}

func (c *Client) getProducts(ctx context.Context, params map[string]string) ([]internal.ProductEntry, error) {
	items, err := c.scrollAll(ctx, "product/scroll", params)
	if err != nil {
		return nil, err
	}
	out := make([]internal.ProductEntry, 0, len(items))
	for _, raw := range items {
		product, err := toProductEntry(raw)
		if err != nil {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (c *Client) getCustomers(ctx context.Context, params map[string]string) ([]internal.CustomerEntry, error) {
	items, err := c.scrollAll(ctx, "customer/scroll", params)
	if err != nil {
		return nil, err
	}
	out := make([]internal.CustomerEntry, 0, len(items))
	for _, raw := range items {
		customer, err := toCustomerEntry(raw)
		if err != nil {
			continue
		}
		out = append(out, customer)
	}
	return out, nil
}

func (c *Client) scrollAll(ctx context.Context, endpoint string, params map[string]string) ([]map[string]any, error) {
	var all []map[string]any
	seen := map[string]struct{}{}
	scrollID := ""

	for {
		query := make(map[string]string, len(params)+1)
		for k, v := range params {
			query[k] = v
		}
		if scrollID != "" {
			query["scrollId"] = scrollID
		}

		data, err := c.fetchJSON(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}

		var page scrollPayload
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decode %s page: %w", endpoint, err)
		}
		all = append(all, page.Items...)

		next := util.DerefString(page.ScrollID)
		if next == "" || len(page.Items) == 0 {
			return all, nil
		}
		// A repeated scrollId means the server is looping, stop.
		if _, ok := seen[next]; ok {
			return all, nil
		}
		seen[next] = struct{}{}
		scrollID = next
	}
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.ERPAPIToken) == "" {
		return nil, errors.New("missing ERP_API_TOKEN")
	}
	target, err := c.endpointURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.limiter.WaitTurn()

		data, retryable, err := c.doRequest(ctx, target)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable || attempt == maxAttempts {
			return nil, err
		}
		time.Sleep(backoffDelay(attempt))
	}
	return nil, lastErr
}

const maxAttempts = 5

func backoffDelay(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

func (c *Client) endpointURL(endpoint string, params map[string]string) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.ERPAPIBaseURL, "/") + "/" + endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// doRequest performs one HTTP round trip. The second return value says
// whether the caller may retry the failure.
func (c *Client) doRequest(ctx context.Context, target string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ERPAPIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isRetryableStatus(resp.StatusCode) {
			return nil, true, fmt.Errorf("erp status %d", resp.StatusCode)
		}
		return nil, false, fmt.Errorf("erp api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, false, err
	}
	if !apiResp.Success {
		return nil, false, fmt.Errorf("erp api unsuccessful: %s", string(apiResp.Errors))
	}
	return apiResp.Data, false, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toProductEntry(raw map[string]any) (internal.ProductEntry, error) {
	code := trimmedString(raw["code"])
	if code == "" {
		return internal.ProductEntry{}, errors.New("missing code")
	}
	displayName := trimmedString(raw["displayName"])
	if displayName == "" {
		return internal.ProductEntry{}, errors.New("missing displayName")
	}

	product := internal.ProductEntry{
		Code:        code,
		DisplayName: displayName,
		BaseName:    trimmedString(raw["baseName"]),
		Division:    trimmedString(raw["division"]),
	}
	product.Strength = toStringPtr(raw["strength"])
	product.Variant = toStringPtr(raw["variant"])
	if v := toFloat(raw["packSize"]); v > 0 {
		product.PackSize = v
	}
	if v := toFloat(raw["boxPackSize"]); v > 0 {
		product.BoxPackSize = v
	}

	return product, nil
}

func toCustomerEntry(raw map[string]any) (internal.CustomerEntry, error) {
	code := trimmedString(raw["code"])
	if code == "" {
		return internal.CustomerEntry{}, errors.New("missing code")
	}
	displayName := trimmedString(raw["displayName"])
	if displayName == "" {
		return internal.CustomerEntry{}, errors.New("missing displayName")
	}

	customer := internal.CustomerEntry{
		Code:        code,
		DisplayName: displayName,
	}
	customer.TaxID = toStringPtr(raw["taxId"])
	customer.LicenseIDs = toStringSlice(raw["licenseIds"])

	return customer, nil
}

func toScheme(raw map[string]any) (internal.Scheme, error) {
	productCode := trimmedString(raw["productCode"])
	if productCode == "" {
		return internal.Scheme{}, errors.New("missing productCode")
	}

	scheme := internal.Scheme{ProductCode: productCode, Active: true}
	if active, ok := raw["active"].(bool); ok {
		scheme.Active = active
	}

	slabs, ok := raw["slabs"].([]any)
	if !ok || len(slabs) == 0 {
		return internal.Scheme{}, errors.New("missing slabs")
	}
	for _, item := range slabs {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		slab := internal.SchemeSlab{
			MinQty:      toFloat(m["minQty"]),
			FreeQty:     toFloat(m["freeQty"]),
			DiscountPct: toFloat(m["discountPct"]),
		}
		if slab.MinQty > 0 {
			scheme.Slabs = append(scheme.Slabs, slab)
		}
	}
	if len(scheme.Slabs) == 0 {
		return internal.Scheme{}, errors.New("no usable slabs")
	}

	return scheme, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	}
	return 0
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func toStringPtr(v any) *string {
	s := trimmedString(v)
	if s == "" {
		return nil
	}
	return util.StringPtr(s)
}

func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
