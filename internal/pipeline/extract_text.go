package pipeline

import (
	"encoding/csv"
	"strings"

	"orderconv/internal"
	"orderconv/internal/util"
)

func extractPlainText(buf []byte) (Document, error) {
	lines := splitLines(string(buf))
	rows := make([]internal.RawRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, internal.RawRow{
			Text:   line,
			Source: internal.SourceDelimited,
		})
	}
	return nonTabularDocument(rows), nil
}

func extractCSV(buf []byte) (Document, error) {
	reader := csv.NewReader(strings.NewReader(string(buf)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Document{}, err
	}
	if len(records) == 0 {
		return nonTabularDocument(nil), nil
	}
	return tabularDocument(records, internal.SourceDelimited), nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = util.NormalizeSpaces(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
