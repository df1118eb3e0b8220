package util

import "testing"

func TestParseQty(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "last number wins", input: "DOLO 650 TAB 10", want: 10},
		{name: "unit suffix", input: "CROCIN ADVANCE 5 strips", want: 5},
		{name: "thousand comma", input: "ORS SACHET 1,000", want: 1000},
		{name: "decimal dot", input: "CALPOL SYP 2.5", want: 2.5},
		{name: "decimal comma", input: "CALPOL SYP 2,5", want: 2.5},
		{name: "unit beats trailing rate", input: "AZEE 500 10 nos 78.50", want: 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseQty(tc.input)
			if parsed.Qty == nil {
				t.Fatalf("qty is nil")
			}
			if *parsed.Qty != tc.want {
				t.Fatalf("got %v want %v", *parsed.Qty, tc.want)
			}
		})
	}
}

func TestParseQtyIgnoresGluedNumbers(t *testing.T) {
	parsed := ParseQty("DOLO650")
	if parsed.Qty != nil {
		t.Fatalf("expected nil qty, got %v", *parsed.Qty)
	}
}

func TestParsePackSize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "apostrophe s", input: "DOLO 650 TAB (15'S)", want: 15},
		{name: "backtick s", input: "AZEE 500 10`s", want: 10},
		{name: "multiplier", input: "CROCIN 1X30 TAB", want: 30},
		{name: "no annotation", input: "DOLO 650 TAB", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParsePackSize(tc.input); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
