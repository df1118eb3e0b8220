package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"orderconv/internal"
)

var exportHeaders = []string{
	"row_no", "file", "customer", "raw_text", "description",
	"product_code", "product_name", "division",
	"qty", "pack_size", "box_pack", "free_qty", "discount_pct",
	"scheme_applied", "confidence", "strategy", "status", "reason",
}

// ExportRowsToXLSX writes the converted order workbook consumed by the
// rendering/dispatch side.
func ExportRowsToXLSX(rows []internal.ExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.RowNo)
		set(2, row.Filename)
		set(3, row.CustomerName)
		set(4, row.RawText)
		set(5, row.Description)
		set(6, row.ProductCode)
		set(7, row.ProductName)
		set(8, row.Division)
		set(9, row.Qty)
		set(10, row.PackSize)
		set(11, row.BoxPack)
		set(12, row.FreeQty)
		set(13, row.DiscountPct)
		set(14, row.SchemeApplied)
		set(15, row.Confidence)
		set(16, row.Strategy)
		set(17, row.Status)
		set(18, row.Reason)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ResultToExportRows flattens a conversion result, items first, then
// failed rows so nothing silently disappears from the workbook.
func ResultToExportRows(filename string, result internal.ConversionResult) []internal.ExportRow {
	rows := make([]internal.ExportRow, 0, len(result.Items)+len(result.Failed))
	for _, item := range result.Items {
		rows = append(rows, internal.ExportRow{
			RowNo:         item.RowNo,
			Filename:      filename,
			CustomerName:  result.CustomerName,
			RawText:       item.RawText,
			Description:   item.Description,
			ProductCode:   item.ProductCode,
			ProductName:   item.ProductName,
			Division:      item.Division,
			Qty:           item.Qty,
			PackSize:      item.PackSize,
			BoxPack:       item.BoxPack,
			FreeQty:       item.FreeQty,
			DiscountPct:   item.DiscountPct,
			SchemeApplied: item.SchemeApplied,
			Confidence:    item.Confidence,
			Strategy:      string(item.Strategy),
			Status:        "ok",
		})
	}
	for _, failed := range result.Failed {
		rows = append(rows, internal.ExportRow{
			RowNo:        failed.RowNo,
			Filename:     filename,
			CustomerName: result.CustomerName,
			Description:  failed.Description,
			Status:       "failed",
			Reason:       failed.Reason,
		})
	}
	return rows
}
