package pipeline

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"orderconv/internal"
	"orderconv/internal/util"
)

// UnsupportedFormatError is fatal for the whole document and is raised
// before any parsing begins.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format: %q", e.Ext)
}

// Document is the Row Extractor output: ordered logical rows plus the
// resolved column mapping for tabular sources (-1 when not tabular).
type Document struct {
	Rows      []internal.RawRow
	HeaderRow int
	NameCol   int
	QtyCol    int
	FreeCol   int
}

func nonTabularDocument(rows []internal.RawRow) Document {
	return Document{Rows: rows, HeaderRow: -1, NameCol: -1, QtyCol: -1, FreeCol: -1}
}

// ExtractDocument selects the extraction path from the filename
// extension. An empty document yields zero rows and a nil error; the
// caller decides whether that is an error.
func ExtractDocument(buf []byte, filename string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return extractPDF(buf)
	case ".xlsx", ".xls":
		return extractXLSX(buf)
	case ".csv":
		return extractCSV(buf)
	case ".txt":
		return extractPlainText(buf)
	case ".html", ".htm":
		return extractHTMLTables(buf)
	default:
		return Document{}, &UnsupportedFormatError{Ext: ext}
	}
}

var (
	reHeaderProbe = regexp.MustCompile(`(?i)\b(?:s\.?no|sl\.?no|product|item|description|particulars?|qty|quantity|rate|amount|mrp)\b`)
	reHeaderPunct = regexp.MustCompile(`[^a-z0-9]+`)
)

// maxPlausibleQty filters pincodes, phone numbers and tax ids that
// would otherwise be read as quantities in free-text rows.
const maxPlausibleQty = 100000

// BuildCandidates turns extracted rows into line candidates plus the
// parallel error and warning lists. Errors exclude the row; warnings
// keep it with the corrected value.
func BuildCandidates(doc Document) ([]internal.LineCandidate, []internal.RowIssue, []internal.RowIssue) {
	if doc.NameCol >= 0 || doc.QtyCol >= 0 {
		return tabularCandidates(doc)
	}
	return freeTextCandidates(doc.Rows)
}

func tabularCandidates(doc Document) ([]internal.LineCandidate, []internal.RowIssue, []internal.RowIssue) {
	candidates := []internal.LineCandidate{}
	errs := []internal.RowIssue{}
	warns := []internal.RowIssue{}

	for i, row := range doc.Rows {
		if i <= doc.HeaderRow {
			continue
		}
		rowNo := i + 1
		name := cellAt(row.Cells, doc.NameCol)
		qtyCell := cellAt(row.Cells, doc.QtyCol)

		if name == "" && qtyCell == "" {
			continue
		}
		if reHeaderProbe.MatchString(name) && qtyCell == "" {
			continue
		}

		if name == "" {
			errs = append(errs, internal.RowIssue{
				RowNo: rowNo, Field: "description", Value: row.Text,
				Message: "row has a quantity but no product description",
			})
			continue
		}

		parsed := util.ParseQty(qtyCell)
		if parsed.Qty == nil || *parsed.Qty <= 0 {
			errs = append(errs, internal.RowIssue{
				RowNo: rowNo, Field: "quantity", Value: qtyCell,
				Message: "quantity missing or not a positive number",
			})
			continue
		}

		qty := *parsed.Qty
		if qty != math.Trunc(qty) {
			warns = append(warns, internal.RowIssue{
				RowNo: rowNo, Field: "quantity", Value: qtyCell,
				Message: "fractional quantity rounded up to a whole unit",
			})
			qty = math.Ceil(qty)
		}

		var declaredFree *float64
		if freeCell := cellAt(row.Cells, doc.FreeCol); freeCell != "" {
			if parsedFree := util.ParseQty(freeCell); parsedFree.Qty != nil && *parsedFree.Qty > 0 {
				declaredFree = parsedFree.Qty
			}
		}

		candidates = append(candidates, internal.LineCandidate{
			RowNo:       rowNo,
			Description: name,
			Qty:         qty,
			FreeQty:     declaredFree,
			RawText:     row.Text,
		})
	}

	return candidates, errs, warns
}

// freeTextCandidates handles positioned and delimited rows where the
// quantity is embedded in the line text. Rows without any plausible
// quantity are letterhead or noise and are skipped silently.
func freeTextCandidates(rows []internal.RawRow) ([]internal.LineCandidate, []internal.RowIssue, []internal.RowIssue) {
	candidates := []internal.LineCandidate{}
	errs := []internal.RowIssue{}
	warns := []internal.RowIssue{}

	for i, row := range rows {
		rowNo := i + 1
		text := util.NormalizeSpaces(row.Text)
		if text == "" || reHeaderProbe.MatchString(text) && len(text) < 60 {
			continue
		}

		parsed := util.ParseQty(text)
		if parsed.Qty == nil || *parsed.Qty > maxPlausibleQty {
			continue
		}

		desc := text
		if parsed.QtyRaw != nil {
			if idx := strings.LastIndex(desc, *parsed.QtyRaw); idx >= 0 {
				desc = desc[:idx] + " " + desc[idx+len(*parsed.QtyRaw):]
			}
		}
		desc = util.NormalizeSpaces(desc)

		if util.CountLetters(desc) < 3 {
			continue
		}

		qty := *parsed.Qty
		if qty <= 0 {
			errs = append(errs, internal.RowIssue{
				RowNo: rowNo, Field: "quantity", Value: util.DerefString(parsed.QtyRaw),
				Message: "quantity is not a positive number",
			})
			continue
		}
		if qty != math.Trunc(qty) {
			warns = append(warns, internal.RowIssue{
				RowNo: rowNo, Field: "quantity", Value: util.DerefString(parsed.QtyRaw),
				Message: "fractional quantity rounded up to a whole unit",
			})
			qty = math.Ceil(qty)
		}

		candidates = append(candidates, internal.LineCandidate{
			RowNo:       rowNo,
			Description: desc,
			Qty:         qty,
			RawText:     text,
		})
	}

	return candidates, errs, warns
}

func cellAt(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}

// inferColumns maps normalized header labels to the name, quantity and
// free-quantity columns.
func inferColumns(headers []string) (nameIdx, qtyIdx, freeIdx int) {
	nameIdx = findHeaderIndex(headers, []string{"product", "item", "description", "particular", "medicine", "name"})
	qtyIdx = findHeaderIndex(headers, []string{"qty", "quantity", "order"})
	freeIdx = findHeaderIndex(headers, []string{"free", "scheme"})
	return
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

// locateHeaderRow scans the first maxScan rows and picks the densest
// one, skipping banner titles and blank spacer rows automatically.
func locateHeaderRow(rows [][]string, maxScan int) int {
	best := -1
	bestCount := 1
	limit := len(rows)
	if limit > maxScan {
		limit = maxScan
	}
	for i := 0; i < limit; i++ {
		count := 0
		for _, c := range rows[i] {
			if strings.TrimSpace(c) != "" {
				count++
			}
		}
		if count > bestCount {
			best = i
			bestCount = count
		}
	}
	return best
}

// normalizeHeaderLabels lowercases labels, collapses whitespace and
// punctuation, and disambiguates duplicates with a counter suffix.
func normalizeHeaderLabels(cells []string) []string {
	seen := map[string]int{}
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		label := strings.ToLower(strings.TrimSpace(c))
		label = reHeaderPunct.ReplaceAllString(label, " ")
		label = util.NormalizeSpaces(label)
		seen[label]++
		if n := seen[label]; n > 1 && label != "" {
			label = fmt.Sprintf("%s %d", label, n)
		}
		out = append(out, label)
	}
	return out
}
