package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"orderconv/internal"
	"orderconv/internal/storage"
	"orderconv/internal/util"
)

// ImportCounts reports how many master records an XLSX import loaded.
type ImportCounts struct {
	Products  int
	Customers int
	Schemes   int
}

// ImportMasterXLSX loads product, customer and scheme masters from a
// workbook exported by the ERP. Sheets are located by name; a missing
// sheet is skipped so partial masters can be loaded.
func ImportMasterXLSX(db *storage.DB, path string) (ImportCounts, error) {
	var counts ImportCounts

	f, err := excelize.OpenFile(path)
	if err != nil {
		return counts, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if rows, ok := sheetRows(f, "Products"); ok {
		products, err := parseProductRows(rows)
		if err != nil {
			return counts, fmt.Errorf("products sheet: %w", err)
		}
		if err := db.UpsertProducts(products); err != nil {
			return counts, err
		}
		counts.Products = len(products)
	}

	if rows, ok := sheetRows(f, "Customers"); ok {
		customers, err := parseCustomerRows(rows)
		if err != nil {
			return counts, fmt.Errorf("customers sheet: %w", err)
		}
		if err := db.UpsertCustomers(customers); err != nil {
			return counts, err
		}
		counts.Customers = len(customers)
	}

	if rows, ok := sheetRows(f, "Schemes"); ok {
		schemes, err := parseSchemeRows(rows)
		if err != nil {
			return counts, fmt.Errorf("schemes sheet: %w", err)
		}
		if err := db.UpsertSchemes(schemes); err != nil {
			return counts, err
		}
		counts.Schemes = len(schemes)
	}

	if counts.Products == 0 && counts.Customers == 0 && counts.Schemes == 0 {
		return counts, fmt.Errorf("no master sheets found in %s", path)
	}

	return counts, nil
}

func sheetRows(f *excelize.File, name string) ([][]string, bool) {
	for _, sheet := range f.GetSheetList() {
		if strings.EqualFold(sheet, name) {
			rows, err := f.GetRows(sheet)
			if err != nil || len(rows) < 2 {
				return nil, false
			}
			return rows, true
		}
	}
	return nil, false
}

type headerIndex map[string]int

func buildHeaderIndex(header []string) headerIndex {
	idx := headerIndex{}
	for i, label := range header {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" {
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

func (h headerIndex) cell(row []string, names ...string) string {
	for _, name := range names {
		i, ok := h[name]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

func (h headerIndex) floatCell(row []string, names ...string) float64 {
	raw := h.cell(row, names...)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseProductRows(rows [][]string) ([]internal.ProductEntry, error) {
	idx := buildHeaderIndex(rows[0])
	out := make([]internal.ProductEntry, 0, len(rows)-1)

	for _, row := range rows[1:] {
		code := idx.cell(row, "code", "product code", "item code")
		name := idx.cell(row, "name", "product", "product name", "description")
		if code == "" || name == "" {
			continue
		}

		product := internal.ProductEntry{
			Code:        code,
			DisplayName: name,
			BaseName:    idx.cell(row, "base", "base name"),
			Division:    idx.cell(row, "division"),
			PackSize:    idx.floatCell(row, "pack", "pack size"),
			BoxPackSize: idx.floatCell(row, "box", "box pack", "box pack size"),
		}
		if s := idx.cell(row, "strength"); s != "" {
			product.Strength = util.StringPtr(s)
		}
		if v := idx.cell(row, "variant"); v != "" {
			product.Variant = util.StringPtr(v)
		}
		out = append(out, product)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no usable product rows")
	}
	return out, nil
}

func parseCustomerRows(rows [][]string) ([]internal.CustomerEntry, error) {
	idx := buildHeaderIndex(rows[0])
	out := make([]internal.CustomerEntry, 0, len(rows)-1)

	for _, row := range rows[1:] {
		code := idx.cell(row, "code", "customer code")
		name := idx.cell(row, "name", "customer", "customer name")
		if code == "" || name == "" {
			continue
		}

		customer := internal.CustomerEntry{Code: code, DisplayName: name}
		if taxID := idx.cell(row, "gstin", "tax id"); taxID != "" {
			customer.TaxID = util.StringPtr(taxID)
		}
		if licenses := idx.cell(row, "licenses", "license", "dl no"); licenses != "" {
			for _, part := range strings.Split(licenses, ",") {
				if s := strings.TrimSpace(part); s != "" {
					customer.LicenseIDs = append(customer.LicenseIDs, s)
				}
			}
		}
		out = append(out, customer)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no usable customer rows")
	}
	return out, nil
}

// parseSchemeRows groups slab rows by product code, one row per slab.
func parseSchemeRows(rows [][]string) ([]internal.Scheme, error) {
	idx := buildHeaderIndex(rows[0])
	byCode := map[string]*internal.Scheme{}
	order := make([]string, 0)

	for _, row := range rows[1:] {
		code := idx.cell(row, "product code", "code", "item code")
		minQty := idx.floatCell(row, "min qty", "minqty", "qty")
		if code == "" || minQty <= 0 {
			continue
		}

		scheme, ok := byCode[code]
		if !ok {
			scheme = &internal.Scheme{ProductCode: code, Active: true}
			if active := idx.cell(row, "active"); active != "" {
				scheme.Active = !strings.EqualFold(active, "no") && active != "0" && !strings.EqualFold(active, "false")
			}
			byCode[code] = scheme
			order = append(order, code)
		}
		scheme.Slabs = append(scheme.Slabs, internal.SchemeSlab{
			MinQty:      minQty,
			FreeQty:     idx.floatCell(row, "free qty", "freeqty", "free"),
			DiscountPct: idx.floatCell(row, "discount", "discount pct", "disc %"),
		})
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("no usable scheme rows")
	}

	out := make([]internal.Scheme, 0, len(order))
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	return out, nil
}
