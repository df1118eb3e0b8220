package pipeline

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"orderconv/internal"
	"orderconv/internal/util"
)

// headerScanDepth is how deep the true header row is searched; order
// sheets often open with merged banners and blank spacer rows.
const headerScanDepth = 20

func extractXLSX(buf []byte) (Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		cells, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(cells) == 0 {
			continue
		}
		doc := tabularDocument(cells, internal.SourceXLSX)
		if len(doc.Rows) > 0 {
			return doc, nil
		}
	}

	return nonTabularDocument(nil), nil
}

// tabularDocument locates the header row (the densest of the leading
// rows), resolves its column mapping and wraps every row as a RawRow.
func tabularDocument(cells [][]string, source internal.SourceFormat) Document {
	rows := make([]internal.RawRow, 0, len(cells))
	for _, row := range cells {
		trimmed := make([]string, len(row))
		for i, c := range row {
			trimmed[i] = util.NormalizeSpaces(c)
		}
		rows = append(rows, internal.RawRow{
			Text:   strings.TrimSpace(strings.Join(trimmed, " ")),
			Cells:  trimmed,
			Source: source,
		})
	}

	headerRow := locateHeaderRow(cells, headerScanDepth)
	nameCol, qtyCol, freeCol := -1, -1, -1
	if headerRow >= 0 {
		labels := normalizeHeaderLabels(cells[headerRow])
		nameCol, qtyCol, freeCol = inferColumns(labels)
	}
	if nameCol < 0 && qtyCol < 0 {
		// No recognizable header: assume the classic two-column layout.
		// The densest row is then data like every other row, so nothing
		// may be skipped above it.
		nameCol, qtyCol = 0, 1
		headerRow = -1
	}

	return Document{
		Rows:      rows,
		HeaderRow: headerRow,
		NameCol:   nameCol,
		QtyCol:    qtyCol,
		FreeCol:   freeCol,
	}
}
