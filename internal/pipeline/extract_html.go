package pipeline

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"orderconv/internal"
)

// extractHTMLTables reads order rows out of the largest table in an
// HTML document (exported web orders, forwarded email bodies).
func extractHTMLTables(buf []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf))
	if err != nil {
		return Document{}, err
	}

	var best [][]string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := [][]string{}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			rows = append(rows, cells)
		})
		if len(rows) > len(best) {
			best = rows
		}
	})

	if len(best) == 0 {
		return nonTabularDocument(nil), nil
	}
	return tabularDocument(best, internal.SourceHTMLTable), nil
}
