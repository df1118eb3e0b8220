package pipeline

import (
	"testing"

	"orderconv/internal"
)

func TestResolvePackSize(t *testing.T) {
	cases := []struct {
		name    string
		desc    string
		product *internal.ProductEntry
		want    float64
	}{
		{
			name:    "description wins",
			desc:    "DOLO 650 TAB (15'S)",
			product: &internal.ProductEntry{PackSize: 10},
			want:    15,
		},
		{
			name:    "catalog value",
			desc:    "DOLO 650 TAB",
			product: &internal.ProductEntry{PackSize: 10},
			want:    10,
		},
		{
			name:    "reciprocal ratio",
			desc:    "DOLO 650 TAB",
			product: &internal.ProductEntry{PackSize: 0.1},
			want:    10,
		},
		{
			name:    "display name annotation",
			desc:    "CROCIN TAB",
			product: &internal.ProductEntry{DisplayName: "CROCIN ADVANCE 1X30"},
			want:    30,
		},
		{
			name: "default",
			desc: "DOLO 650 TAB",
			want: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolvePackSize(tc.desc, tc.product); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestBoxPack(t *testing.T) {
	cases := []struct {
		qty, packSize, want float64
	}{
		{30, 10, 3},
		{25, 10, 3},
		{1, 10, 1},
		{10, 0, 10},
	}

	for _, tc := range cases {
		if got := BoxPack(tc.qty, tc.packSize); got != tc.want {
			t.Fatalf("BoxPack(%v, %v) = %v want %v", tc.qty, tc.packSize, got, tc.want)
		}
	}
}
