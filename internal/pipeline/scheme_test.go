package pipeline

import (
	"testing"

	"orderconv/internal"
)

func testSchemes() []internal.Scheme {
	return []internal.Scheme{
		{
			ProductCode: "D650",
			Active:      true,
			Slabs: []internal.SchemeSlab{
				{MinQty: 100, FreeQty: 25},
				{MinQty: 50, FreeQty: 10},
			},
		},
		{
			ProductCode: "OLD1",
			Active:      false,
			Slabs:       []internal.SchemeSlab{{MinQty: 10, FreeQty: 1}},
		},
	}
}

func TestResolveSchemeFloor(t *testing.T) {
	cases := []struct {
		name       string
		qty        float64
		applied    bool
		freeQty    float64
		nextMinQty float64
		shortBy    float64
		wantNext   bool
	}{
		{name: "below lowest slab", qty: 49, applied: false, nextMinQty: 50, shortBy: 1, wantNext: true},
		{name: "exactly at slab", qty: 50, applied: true, freeQty: 10, nextMinQty: 100, shortBy: 50, wantNext: true},
		{name: "between slabs takes lower", qty: 75, applied: true, freeQty: 10, nextMinQty: 100, shortBy: 25, wantNext: true},
		{name: "top slab no multiples", qty: 300, applied: true, freeQty: 25, wantNext: false},
	}

	schemes := testSchemes()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ResolveScheme(schemes, "D650", tc.qty)
			if res.Applied != tc.applied {
				t.Fatalf("applied: got %v", res.Applied)
			}
			if res.FreeQty != tc.freeQty {
				t.Fatalf("freeQty: got %v want %v", res.FreeQty, tc.freeQty)
			}
			if tc.wantNext {
				if res.NextSlab == nil {
					t.Fatal("expected next slab")
				}
				if res.NextSlab.MinQty != tc.nextMinQty || res.ShortBy != tc.shortBy {
					t.Fatalf("next=%v shortBy=%v", res.NextSlab.MinQty, res.ShortBy)
				}
			} else if res.NextSlab != nil {
				t.Fatalf("unexpected next slab %v", res.NextSlab.MinQty)
			}
		})
	}
}

func TestResolveSchemeInactiveAndUnknown(t *testing.T) {
	schemes := testSchemes()

	if res := ResolveScheme(schemes, "OLD1", 100); res.Applied || len(res.AllSlabs) != 0 {
		t.Fatalf("inactive scheme resolved: %+v", res)
	}
	if res := ResolveScheme(schemes, "NOPE", 100); res.Applied || len(res.AllSlabs) != 0 {
		t.Fatalf("unknown product resolved: %+v", res)
	}
}

func TestResolveSchemeSlabsSorted(t *testing.T) {
	res := ResolveScheme(testSchemes(), "D650", 10)
	if len(res.AllSlabs) != 2 || res.AllSlabs[0].MinQty != 50 || res.AllSlabs[1].MinQty != 100 {
		t.Fatalf("slabs not sorted: %+v", res.AllSlabs)
	}
}
