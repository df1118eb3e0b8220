package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"orderconv/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestGetProductsAllWithRetry(t *testing.T) {
	attempt := 0

	cfg, _ := config.Load()
	cfg.ERPAPIToken = "test"
	cfg.ERPAPIBaseURL = "https://example.test/api/v1"
	cfg.ERPRateLimitRPS = 1000

	client := NewClient(cfg)
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/api/v1/product/scroll" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test" {
				t.Fatalf("missing bearer token")
			}
			attempt++
			if attempt == 1 {
				return &http.Response{
					StatusCode: http.StatusInternalServerError,
					Body:       io.NopCloser(strings.NewReader(`{"error":"boom"}`)),
					Header:     make(http.Header),
				}, nil
			}

			payload := map[string]any{"success": true, "data": map[string]any{"items": []map[string]any{}, "scrollId": nil}}
			if attempt == 2 {
				payload = map[string]any{"success": true, "data": map[string]any{"items": []map[string]any{{"code": "D650", "displayName": "DOLO 650 TABLET", "strength": "650"}}, "scrollId": "abc"}}
			}
			if attempt == 3 {
				payload = map[string]any{"success": true, "data": map[string]any{"items": []map[string]any{{"code": "D500", "displayName": "DOLO 500 TABLET", "strength": "500"}}, "scrollId": nil}}
			}
			blob, _ := json.Marshal(payload)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(string(blob))),
				Header:     make(http.Header),
			}, nil
		}),
	}

	products, err := client.GetProductsAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 {
		t.Fatalf("len=%d", len(products))
	}
	if products[0].Code != "D650" || products[0].Strength == nil || *products[0].Strength != "650" {
		t.Fatalf("product 0: %+v", products[0])
	}
}

func TestToSchemeRejectsEmptySlabs(t *testing.T) {
	_, err := toScheme(map[string]any{"productCode": "D650", "slabs": []any{}})
	if err == nil {
		t.Fatal("expected error")
	}

	scheme, err := toScheme(map[string]any{
		"productCode": "D650",
		"active":      true,
		"slabs":       []any{map[string]any{"minQty": 50.0, "freeQty": 10.0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(scheme.Slabs) != 1 || scheme.Slabs[0].MinQty != 50 {
		t.Fatalf("scheme: %+v", scheme)
	}
}
