package pipeline

import (
	"testing"

	"orderconv/internal"
	"orderconv/internal/config"
)

func testProducts() []internal.ProductEntry {
	return []internal.ProductEntry{
		{Code: "D650", DisplayName: "DOLO 650 TABLET", BaseName: "DOLO", Strength: sp("650")},
		{Code: "D500", DisplayName: "DOLO 500 TABLET", BaseName: "DOLO", Strength: sp("500")},
	}
}

func newTestMatcher(t *testing.T, products []internal.ProductEntry) *Matcher {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	return NewMatcher(cfg, NewDecomposer(), products)
}

func TestMatchCanonical(t *testing.T) {
	m := newTestMatcher(t, testProducts())

	res := m.Match("DOLO 650 TABLETS")
	if res.Product == nil || res.Product.Code != "D650" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Strategy != internal.StrategyCanonical {
		t.Fatalf("strategy: %s", res.Strategy)
	}
}

func TestMatchExact(t *testing.T) {
	m := newTestMatcher(t, testProducts())

	res := m.Match("DOLO 650 TABLET")
	if res.Product == nil || res.Product.Code != "D650" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Strategy != internal.StrategyExact || res.Score != 1.0 {
		t.Fatalf("strategy=%s score=%v", res.Strategy, res.Score)
	}
}

// A mismatched potency must never match, no matter how similar the rest
// of the text is.
func TestMatchStrengthGate(t *testing.T) {
	products := []internal.ProductEntry{
		{Code: "S5", DisplayName: "STAMLO 5 TABLET", BaseName: "STAMLO", Strength: sp("5")},
	}
	m := newTestMatcher(t, products)

	res := m.Match("STAMLO 25 TAB")
	if res.Product != nil {
		t.Fatalf("expected no match, got %s", res.Product.Code)
	}
	if res.Strategy != internal.StrategyNone {
		t.Fatalf("strategy: %s", res.Strategy)
	}

	excluded := false
	for _, tr := range res.Trace {
		if tr.Stage == "strength_gate" && tr.Decision == "excluded" {
			excluded = true
		}
	}
	if !excluded {
		t.Fatal("trace missing strength gate exclusion")
	}
}

// A query without a strength is not gated; base-name agreement is
// enough.
func TestMatchNoStrengthQueryIsPermissive(t *testing.T) {
	m := newTestMatcher(t, testProducts())

	res := m.Match("DOLO DROPS")
	if res.Product == nil {
		t.Fatalf("expected base-name match: %+v", res)
	}
	if res.Strategy != internal.StrategyBaseStrength {
		t.Fatalf("strategy: %s", res.Strategy)
	}
	if res.Score != 0.90 {
		t.Fatalf("score: %v", res.Score)
	}
}

func TestMatchRejectsUnrelated(t *testing.T) {
	m := newTestMatcher(t, testProducts())

	res := m.Match("AMOXYCLAV 625 TAB")
	if res.Product != nil {
		t.Fatalf("expected no match, got %s", res.Product.Code)
	}
}

func TestMatchDecomposesDisplayNameWhenNoTriple(t *testing.T) {
	products := []internal.ProductEntry{
		{Code: "C250", DisplayName: "CALPOL 250MG SUSPENSION"},
	}
	m := newTestMatcher(t, products)

	res := m.Match("CALPOL 250 SUSP")
	if res.Product == nil || res.Product.Code != "C250" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
