package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern   = regexp.MustCompile(`(?:^|[^0-9.,A-Za-z])(\d{1,3}(?:[\s,]\d{3})+|\d+(?:[.,]\d+)?)`)
	qtyUnitPattern  = regexp.MustCompile(`(?i)(?:^|[^0-9.,a-z])(\d+(?:[.,]\d+)?)\s*(nos|no\.?|pcs|pc|strips?|box(?:es)?|units?|qty)\b`)
	packSizePattern = regexp.MustCompile(`(?i)(\d+)\s*(?:'s|` + "`" + `s|s\b)|\b(\d+)\s*[xX*]\s*(\d+)\b`)
)

type ParsedQty struct {
	Qty    *float64
	QtyRaw *string
}

// ParseQty finds the order quantity in a free-text row. The last
// standalone number wins because order sheets put quantity after the
// product description; numbers glued to letters (DOLO650) are ignored.
func ParseQty(input string) ParsedQty {
	line := strings.ReplaceAll(input, " ", " ")

	qtyToken := ""
	if wm := qtyUnitPattern.FindAllStringSubmatch(line, -1); len(wm) > 0 {
		qtyToken = strings.TrimSpace(wm[len(wm)-1][1])
	} else if nm := numberPattern.FindAllStringSubmatch(line, -1); len(nm) > 0 {
		qtyToken = strings.TrimSpace(nm[len(nm)-1][1])
	}

	if qtyToken == "" {
		return ParsedQty{}
	}

	norm := normalizeNumericToken(qtyToken)
	parsed, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return ParsedQty{}
	}
	return ParsedQty{Qty: FloatPtr(parsed), QtyRaw: StringPtr(qtyToken)}
}

// ParsePackSize recognizes pack annotations like "(30's)", "10`s" or
// "1X30" inside a description or a catalog display name. Returns 0
// when nothing matches.
func ParsePackSize(input string) float64 {
	m := packSizePattern.FindStringSubmatch(input)
	if m == nil {
		return 0
	}
	if m[1] != "" {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	// "N x M" multiplier form: the second factor is the pack count.
	v, _ := strconv.ParseFloat(m[3], 64)
	return v
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`).MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}
