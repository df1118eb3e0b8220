package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"orderconv/internal"
	"orderconv/internal/config"
	"orderconv/internal/storage"
)

func TestSmokeOrderToXLSX(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	products := []internal.ProductEntry{
		{Code: "D650", DisplayName: "DOLO 650 TABLET", BaseName: "DOLO", Strength: sp("650"), Division: "GEN", PackSize: 15},
		{Code: "C100", DisplayName: "CROCIN ADVANCE 500 TABLET", BaseName: "CROCIN ADVANCE", Strength: sp("500")},
	}
	if err := db.UpsertProducts(products); err != nil {
		t.Fatal(err)
	}
	customers := []internal.CustomerEntry{
		{Code: "CUST1", DisplayName: "SUNRISE MEDICALS"},
	}
	if err := db.UpsertCustomers(customers); err != nil {
		t.Fatal(err)
	}
	schemes := []internal.Scheme{
		{ProductCode: "D650", Active: true, Slabs: []internal.SchemeSlab{{MinQty: 10, FreeQty: 2}}},
	}
	if err := db.UpsertSchemes(schemes); err != nil {
		t.Fatal(err)
	}

	csvBlob := []byte("Product,Qty\nDOLO 650 TAB,30\nUNKNOWN ITEM XYZ,5\n")
	rawPath := filepath.Join(tmp, "sunrise_medicals_order.csv")
	if err := os.WriteFile(rawPath, csvBlob, 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := db.UpsertOrderDoc("imap", "<fixture-1@example.com>", "Order", "customer@example.com", "2026-08-01T00:00:00Z", "sunrise_medicals_order.csv", "hash", rawPath, "fetched")
	if err != nil {
		t.Fatal(err)
	}

	cfg, _ := config.Load()
	proc := NewProcessingService(db, cfg)
	res, err := proc.ProcessOrderDoc(doc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 || res.Failed != 1 {
		t.Fatalf("processed=%d failed=%d", res.Processed, res.Failed)
	}

	rows, err := db.GetExportRows(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("export rows: %d", len(rows))
	}
	// Converted items come first, failures last.
	ok := rows[0]
	if ok.Status != "ok" || ok.ProductCode != "D650" || ok.CustomerName != "SUNRISE MEDICALS" {
		t.Fatalf("row 0: %+v", ok)
	}
	if ok.Qty != 30 || ok.PackSize != 15 || ok.BoxPack != 2 {
		t.Fatalf("row 0 qty/pack: %+v", ok)
	}
	if ok.FreeQty != 2 || !ok.SchemeApplied {
		t.Fatalf("row 0 scheme: %+v", ok)
	}
	if rows[1].Status != "failed" {
		t.Fatalf("row 1: %+v", rows[1])
	}

	out := filepath.Join(tmp, "result.xlsx")
	if err := ExportRowsToXLSX(rows, out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}

	stored, err := db.GetOrderDocByID(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.Status != "processed" {
		t.Fatalf("status: %+v", stored)
	}
}

func TestConvertDocumentFreeColumnCrossCheck(t *testing.T) {
	cfg, _ := config.Load()
	products := []internal.ProductEntry{
		{Code: "D650", DisplayName: "DOLO 650 TABLET", BaseName: "DOLO", Strength: sp("650"), PackSize: 15},
	}
	schemes := []internal.Scheme{
		{ProductCode: "D650", Active: true, Slabs: []internal.SchemeSlab{{MinQty: 10, FreeQty: 2}}},
	}
	buf := []byte("Product,Qty,Free\nDOLO 650 TAB,30,5\n")

	result, err := ConvertDocument(cfg, buf, "order.csv", products, nil, schemes)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items: %+v", result.Items)
	}
	// The scheme table wins; the sheet's free column only raises a flag.
	if result.Items[0].FreeQty != 2 {
		t.Fatalf("freeQty: %v", result.Items[0].FreeQty)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Field != "free_qty" {
		t.Fatalf("warnings: %+v", result.Warnings)
	}
}

func TestConvertDocumentCustomerCode(t *testing.T) {
	cfg, _ := config.Load()
	customers := []internal.CustomerEntry{
		{Code: "CUST1", DisplayName: "SUNRISE MEDICALS"},
		{Code: "CUST2", DisplayName: "KRISHNA AGENCIES"},
	}
	buf := []byte("Product,Qty\nDOLO 650 TAB,10\n")

	result, err := ConvertDocument(cfg, buf, "sunrise_medicals_order.csv", nil, customers, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.CustomerName != "SUNRISE MEDICALS" {
		t.Fatalf("customer: %q", result.CustomerName)
	}
	if result.CustomerCode == nil || *result.CustomerCode != "CUST1" {
		t.Fatalf("code: %v", result.CustomerCode)
	}
	// Empty catalog: the only line lands in failed, not in items.
	if len(result.Items) != 0 || len(result.Failed) != 1 {
		t.Fatalf("items=%d failed=%d", len(result.Items), len(result.Failed))
	}
}
