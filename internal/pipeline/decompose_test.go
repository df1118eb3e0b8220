package pipeline

import (
	"testing"

	"orderconv/internal"
	"orderconv/internal/util"
)

func sp(v string) *string { return &v }

func TestDecompose(t *testing.T) {
	dec := NewDecomposer()

	cases := []struct {
		name     string
		input    string
		base     string
		strength *string
		variant  *string
	}{
		{name: "bare known strength", input: "DOLO 650 TABLETS (15'S)", base: "DOLO", strength: sp("650")},
		{name: "unit suffix", input: "CALPOL 250MG SUSP", base: "CALPOL", strength: sp("250")},
		{name: "combination", input: "AMOXYCLAV 500/125 TAB", base: "AMOXYCLAV", strength: sp("500/125")},
		{name: "variant and strength", input: "BETALOC XR 50 TAB", base: "BETALOC", strength: sp("50"), variant: sp("XR")},
		{name: "decimal before form", input: "THYRONORM 7.25 TABLET", base: "THYRONORM", strength: sp("7.25")},
		{name: "unknown bare number kept", input: "VITAMIN B12 TAB", base: "VITAMIN B12"},
		{name: "no strength", input: "DOLO DROPS", base: "DOLO"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dec.Decompose(tc.input)
			if got.BaseName != tc.base {
				t.Fatalf("base: got %q want %q", got.BaseName, tc.base)
			}
			if !ptrEqual(got.Strength, tc.strength) {
				t.Fatalf("strength: got %v want %v", util.DerefString(got.Strength), util.DerefString(tc.strength))
			}
			if !ptrEqual(got.Variant, tc.variant) {
				t.Fatalf("variant: got %v want %v", util.DerefString(got.Variant), util.DerefString(tc.variant))
			}
		})
	}
}

// Decomposing a reassembled identity must return the same identity, so
// canonical comparison is stable no matter which pattern produced the
// strength.
func TestDecomposeReassembleStable(t *testing.T) {
	dec := NewDecomposer()
	inputs := []string{
		"DOLO 650 TABLETS",
		"AMOXYCLAV 500/125 TAB",
		"BETALOC XR 50",
		"CALPOL 250MG SUSP",
		"DOLO DROPS",
	}

	for _, input := range inputs {
		first := dec.Decompose(input)
		second := dec.Decompose(dec.Reassemble(first))
		if !identityEqual(first, second) {
			t.Fatalf("%q: first=%+v second=%+v", input, first, second)
		}
	}
}

func TestStrengthsEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"650", "650", true},
		{"650", "650.0", true},
		{"650", "500", false},
		{"50/500", "50/500", true},
		{"50/500", "50/250", false},
		{"50/500", "50", false},
	}

	for _, tc := range cases {
		if got := StrengthsEqual(tc.a, tc.b); got != tc.want {
			t.Fatalf("StrengthsEqual(%q, %q) = %v", tc.a, tc.b, got)
		}
	}
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func identityEqual(a, b internal.ProductIdentity) bool {
	return a.BaseName == b.BaseName && ptrEqual(a.Strength, b.Strength) && ptrEqual(a.Variant, b.Variant)
}
