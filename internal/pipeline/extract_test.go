package pipeline

import (
	"errors"
	"testing"
)

func TestExtractDocumentUnsupported(t *testing.T) {
	_, err := ExtractDocument([]byte("x"), "order.docx")
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if unsupported.Ext != ".docx" {
		t.Fatalf("ext: %q", unsupported.Ext)
	}
}

func TestExtractDocumentEmpty(t *testing.T) {
	doc, err := ExtractDocument(nil, "order.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Rows) != 0 {
		t.Fatalf("rows: %d", len(doc.Rows))
	}
}

func TestCSVTabularCandidates(t *testing.T) {
	csv := "SUNRISE ORDER SHEET,,\nProduct Name,Qty,Free\nDOLO 650 TAB,10,\nCROCIN SYP,2.5,\n,5,\nBENADRYL,,\n"
	doc, err := ExtractDocument([]byte(csv), "order.csv")
	if err != nil {
		t.Fatal(err)
	}
	if doc.HeaderRow != 1 {
		t.Fatalf("headerRow: %d", doc.HeaderRow)
	}
	if doc.NameCol != 0 || doc.QtyCol != 1 || doc.FreeCol != 2 {
		t.Fatalf("columns: name=%d qty=%d free=%d", doc.NameCol, doc.QtyCol, doc.FreeCol)
	}

	candidates, errs, warns := BuildCandidates(doc)
	if len(candidates) != 2 {
		t.Fatalf("candidates: %d", len(candidates))
	}
	if candidates[0].Description != "DOLO 650 TAB" || candidates[0].Qty != 10 {
		t.Fatalf("candidate 0: %+v", candidates[0])
	}
	// Fractional quantity is kept but rounded up, with a warning.
	if candidates[1].Qty != 3 {
		t.Fatalf("candidate 1 qty: %v", candidates[1].Qty)
	}
	if len(warns) != 1 || warns[0].Field != "quantity" {
		t.Fatalf("warns: %+v", warns)
	}
	// Missing description and missing quantity each produce an error.
	if len(errs) != 2 {
		t.Fatalf("errs: %+v", errs)
	}
}

func TestFreeTextCandidates(t *testing.T) {
	text := "SREE BALAJI MEDICALS\nPIN 678001\nDOLO 650 TAB 10\nCROCIN SYP 2.5\nOK\n"
	doc, err := ExtractDocument([]byte(text), "order.txt")
	if err != nil {
		t.Fatal(err)
	}

	candidates, _, warns := BuildCandidates(doc)
	if len(candidates) != 2 {
		t.Fatalf("candidates: %+v", candidates)
	}
	if candidates[0].Description != "DOLO 650 TAB" || candidates[0].Qty != 10 {
		t.Fatalf("candidate 0: %+v", candidates[0])
	}
	if candidates[1].Description != "CROCIN SYP" || candidates[1].Qty != 3 {
		t.Fatalf("candidate 1: %+v", candidates[1])
	}
	if len(warns) != 1 {
		t.Fatalf("warns: %+v", warns)
	}
}

func TestCSVHeaderlessKeepsLeadingRows(t *testing.T) {
	csv := "DOLO 650,10\nCALPOL 500,5\nAZEE 250,3\n"
	doc, err := ExtractDocument([]byte(csv), "order.csv")
	if err != nil {
		t.Fatal(err)
	}
	// The densest row is plain data here, not a header to skip past.
	if doc.HeaderRow != -1 {
		t.Fatalf("headerRow: %d", doc.HeaderRow)
	}
	if doc.NameCol != 0 || doc.QtyCol != 1 {
		t.Fatalf("columns: name=%d qty=%d", doc.NameCol, doc.QtyCol)
	}

	candidates, errs, _ := BuildCandidates(doc)
	if len(candidates) != 3 {
		t.Fatalf("candidates: %+v", candidates)
	}
	if candidates[0].Description != "DOLO 650" || candidates[0].Qty != 10 {
		t.Fatalf("candidate 0: %+v", candidates[0])
	}
	if len(errs) != 0 {
		t.Fatalf("errs: %+v", errs)
	}
}

func TestCSVFreeColumnOnCandidates(t *testing.T) {
	csv := "Product,Qty,Free\nDOLO 650 TAB,30,5\nCROCIN SYP,10,\n"
	doc, err := ExtractDocument([]byte(csv), "order.csv")
	if err != nil {
		t.Fatal(err)
	}
	if doc.FreeCol != 2 {
		t.Fatalf("freeCol: %d", doc.FreeCol)
	}

	candidates, _, _ := BuildCandidates(doc)
	if len(candidates) != 2 {
		t.Fatalf("candidates: %+v", candidates)
	}
	if candidates[0].FreeQty == nil || *candidates[0].FreeQty != 5 {
		t.Fatalf("candidate 0 freeQty: %+v", candidates[0].FreeQty)
	}
	if candidates[1].FreeQty != nil {
		t.Fatalf("candidate 1 freeQty: %+v", candidates[1].FreeQty)
	}
}

func TestNormalizeHeaderLabels(t *testing.T) {
	got := normalizeHeaderLabels([]string{"Product Name", "QTY.", "Qty", "Qty"})
	want := []string{"product name", "qty", "qty 2", "qty 3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("label %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestLocateHeaderRowSkipsBanner(t *testing.T) {
	rows := [][]string{
		{"ORDER SHEET", "", ""},
		{"", "", ""},
		{"Product", "Qty", "Free"},
		{"DOLO 650", "10", ""},
	}
	if got := locateHeaderRow(rows, 20); got != 2 {
		t.Fatalf("got %d", got)
	}
}
