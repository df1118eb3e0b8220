package pipeline

import (
	"testing"

	pdf "github.com/ledongthuc/pdf"
)

func frag(s string, x, y, w, fontSize float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: fontSize}
}

func TestGroupPageRowsJoinsByBaseline(t *testing.T) {
	texts := []pdf.Text{
		frag("DOLO", 10, 700, 30, 10),
		frag("650", 45, 701.5, 20, 10),
		frag("CROCIN", 10, 680, 40, 10),
	}

	rows := groupPageRows(texts)
	if len(rows) != 2 {
		t.Fatalf("rows: %d", len(rows))
	}
	// Top of page first.
	if rows[0].Text != "DOLO 650" {
		t.Fatalf("row 0: %q", rows[0].Text)
	}
	if rows[1].Text != "CROCIN" {
		t.Fatalf("row 1: %q", rows[1].Text)
	}
}

// A heading in a larger type size must not merge with a data row that
// happens to share its baseline.
func TestGroupPageRowsFontSizeSplit(t *testing.T) {
	texts := []pdf.Text{
		frag("ORDER", 10, 700, 40, 16),
		frag("DOLO", 60, 700, 30, 10),
	}

	rows := groupPageRows(texts)
	if len(rows) != 2 {
		t.Fatalf("rows: %d", len(rows))
	}
}

// A fragment far outside the horizontal span a row has claimed belongs
// to a different column block, not this row.
func TestGroupPageRowsColumnJump(t *testing.T) {
	texts := []pdf.Text{
		frag("DOLO", 10, 700, 30, 10),
		frag("SIDEBAR", 400, 700, 50, 10),
	}

	rows := groupPageRows(texts)
	if len(rows) != 2 {
		t.Fatalf("rows: %d", len(rows))
	}
}

func TestRenderRowGaps(t *testing.T) {
	row := &pdfRow{
		frags: []pdf.Text{
			frag("DO", 10, 700, 10, 10),  // ends at 20
			frag("LO", 21, 700, 10, 10),  // gap 1: glued
			frag("650", 36, 700, 15, 10), // gap 5: word space
			frag("10", 80, 700, 10, 10),  // gap 29: column break
		},
	}

	if got := renderRow(row); got != "DOLO 650  10" {
		t.Fatalf("got %q", got)
	}
}
