package pipeline

import (
	"bytes"
	"math"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"orderconv/internal"
)

// Row-reconstruction thresholds for positioned page text. Values are in
// PDF text-space units.
const (
	pdfRowTolerance     = 2.5 // max vertical distance to join a row
	pdfFontSizeDelta    = 1.5 // header vs data type-size separation
	pdfCrowdedCells     = 8   // a row this full gets a tighter window
	pdfCrowdedTolerance = 1.0
	pdfColumnJump       = 220.0 // x beyond the row's span means another column
	pdfWordGap          = 1.5   // smaller gaps glue fragments together
	pdfColumnGap        = 14.0  // larger gaps separate table columns
)

type pdfRow struct {
	y        float64
	fontSize float64
	minX     float64
	maxX     float64
	frags    []pdf.Text
}

func extractPDF(buf []byte) (Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return Document{}, err
	}

	rows := []internal.RawRow{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageRows := groupPageRows(p.Content().Text)
		rows = append(rows, pageRows...)
	}

	return nonTabularDocument(rows), nil
}

// groupPageRows clusters positioned fragments into logical rows. A
// fragment refuses to join a row when the font sizes disagree, when
// the row is already crowded and the fragment sits outside a tighter
// vertical window, or when its x position falls far outside the span
// the row has claimed.
func groupPageRows(texts []pdf.Text) []internal.RawRow {
	rows := []*pdfRow{}

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}

		var target *pdfRow
		for _, row := range rows {
			dy := math.Abs(row.y - t.Y)
			if dy >= pdfRowTolerance {
				continue
			}
			if math.Abs(row.fontSize-t.FontSize) > pdfFontSizeDelta {
				continue
			}
			if len(row.frags) >= pdfCrowdedCells && dy > pdfCrowdedTolerance {
				continue
			}
			if t.X > row.maxX+pdfColumnJump || t.X < row.minX-pdfColumnJump {
				continue
			}
			target = row
			break
		}

		if target == nil {
			rows = append(rows, &pdfRow{
				y: t.Y, fontSize: t.FontSize,
				minX: t.X, maxX: t.X + t.W,
				frags: []pdf.Text{t},
			})
			continue
		}

		target.frags = append(target.frags, t)
		if t.X < target.minX {
			target.minX = t.X
		}
		if t.X+t.W > target.maxX {
			target.maxX = t.X + t.W
		}
	}

	// Page coordinates grow upward; top of page first.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	out := make([]internal.RawRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, internal.RawRow{
			Text:     renderRow(row),
			X:        row.minX,
			Y:        row.y,
			FontSize: row.fontSize,
			Source:   internal.SourcePDF,
		})
	}
	return out
}

// renderRow orders fragments left to right and turns horizontal gaps
// into spacing: none inside a word, one space between words, two
// spaces across a column boundary.
func renderRow(row *pdfRow) string {
	frags := row.frags
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].X < frags[j].X })

	var b strings.Builder
	prevEnd := math.Inf(-1)
	for i, f := range frags {
		if i > 0 {
			gap := f.X - prevEnd
			switch {
			case gap > pdfColumnGap:
				b.WriteString("  ")
			case gap > pdfWordGap:
				b.WriteString(" ")
			}
		}
		b.WriteString(f.S)
		prevEnd = f.X + f.W
	}
	return strings.TrimSpace(b.String())
}
