package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"

	"orderconv/internal"
	"orderconv/internal/util"
)

// leadingRows is how far into a document the identifier looks; party
// names live in the letterhead region.
const leadingRows = 10

var (
	reStreetNumber  = regexp.MustCompile(`\b\d+\s*/\s*\d+`)
	rePlotParen     = regexp.MustCompile(`\([^)]*\d[^)]*\)`)
	reNewOldNo      = regexp.MustCompile(`(?i)\b(?:new|old)\s+no\b`)
	reFileSeparator = regexp.MustCompile(`[-_.\s]+`)
	reHasDigit      = regexp.MustCompile(`\d`)
	reTrailingOrder = regexp.MustCompile(`(?i)[\s,-]*\b(?:(?:order|po|invoice|inv|indent|req)(?:\s+no)?|no)\.?\s*[:#-]?\s*\w*\d\w*\s*$`)
	reTrailingPhone = regexp.MustCompile(`(?i)[\s,-]*\b(?:ph|phone|mob|mobile|tel|gstin|gst|tin|dl\s*no)\b\.?\s*[:#-]?.*$`)
	reLabelLine     = regexp.MustCompile(`(?i)^\s*(?:M/S\.?|TO|BILL\s+TO|CUSTOMER|PARTY|BUYER|SOLD\s+TO|SHIP\s+TO)\s*[:.\-]\s*(.+)$`)
	reMsLine        = regexp.MustCompile(`(?i)^\s*M/S\.?\s+(.+)$`)
)

// CustomerIdentifier guesses the ordering party's name from a
// document's leading rows and its filename. Returns
// internal.UnknownCustomer when every heuristic fails.
type CustomerIdentifier struct {
	blacklist []string
}

func NewCustomerIdentifier(extraBlacklist []string) *CustomerIdentifier {
	bl := append([]string{}, supplierBlacklist...)
	for _, s := range extraBlacklist {
		if strings.TrimSpace(s) != "" {
			bl = append(bl, strings.ToUpper(strings.TrimSpace(s)))
		}
	}
	return &CustomerIdentifier{blacklist: bl}
}

// Identify runs the heuristic cascade and short-circuits on the first
// strategy that yields a valid name.
func (ci *CustomerIdentifier) Identify(filename string, rows []internal.RawRow) string {
	lines := leadingLines(rows)

	strategies := []func() string{
		func() string { return ci.fromFilename(filename) },
		func() string { return ci.uppercaseEntityLine(lines) },
		func() string { return ci.labeledLine(lines) },
		func() string { return ci.keywordScoredLine(lines) },
		func() string { return ci.fallbackLine(lines) },
	}
	for _, strategy := range strategies {
		if name := strategy(); name != "" {
			return name
		}
	}
	return internal.UnknownCustomer
}

func leadingLines(rows []internal.RawRow) []string {
	out := make([]string, 0, leadingRows)
	for _, row := range rows {
		text := util.NormalizeSpaces(row.Text)
		if text == "" {
			continue
		}
		out = append(out, text)
		if len(out) >= leadingRows {
			break
		}
	}
	return out
}

// fromFilename takes filename tokens up to the first digit-bearing or
// order-keyword token: "sunrise_medicals_order_123.pdf" -> "sunrise
// medicals".
func (ci *CustomerIdentifier) fromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	tokens := reFileSeparator.Split(base, -1)

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if reHasDigit.MatchString(tok) || isOrderKeyword(tok) {
			break
		}
		kept = append(kept, tok)
	}

	name := strings.Join(kept, " ")
	if util.CountLetters(name) < 5 {
		return ""
	}
	return ci.acceptAndClean(name)
}

func (ci *CustomerIdentifier) uppercaseEntityLine(lines []string) string {
	limit := 5
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		if util.UppercaseRatio(line) < 0.8 {
			continue
		}
		if !containsEntityTerm(line) {
			continue
		}
		if isAddressLine(line) {
			continue
		}
		if name := ci.acceptAndClean(line); name != "" {
			return name
		}
	}
	return ""
}

func (ci *CustomerIdentifier) labeledLine(lines []string) string {
	for _, line := range lines {
		var captured string
		if m := reLabelLine.FindStringSubmatch(line); m != nil {
			captured = m[1]
		} else if m := reMsLine.FindStringSubmatch(line); m != nil {
			captured = m[1]
		}
		if captured == "" {
			continue
		}
		if name := ci.acceptAndClean(captured); name != "" {
			return name
		}
	}
	return ""
}

func (ci *CustomerIdentifier) keywordScoredLine(lines []string) string {
	bestScore := 0
	best := ""
	for _, line := range lines {
		if isAddressLine(line) {
			continue
		}
		score := 0
		upper := strings.ToUpper(line)
		for _, term := range businessEntityTerms {
			if containsWord(upper, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = line
		}
	}
	if bestScore < 1 {
		return ""
	}
	return ci.acceptAndClean(best)
}

func (ci *CustomerIdentifier) fallbackLine(lines []string) string {
	for _, line := range lines {
		if len(line) < 10 || util.UppercaseRatio(line) < 0.6 {
			continue
		}
		if isAddressLine(line) {
			continue
		}
		if name := ci.acceptAndClean(line); name != "" {
			return name
		}
	}
	return ""
}

// isAddressLine rejects letterhead address rows. Two weak indicators,
// or a line that starts with an address label, mark an address.
func isAddressLine(line string) bool {
	upper := strings.ToUpper(line)

	for _, label := range addressLabels {
		if strings.HasPrefix(upper, label+":") || strings.HasPrefix(upper, label+" :") || strings.HasPrefix(upper, label+".") {
			return true
		}
	}

	indicators := 0
	if reStreetNumber.MatchString(line) {
		indicators++
	}
	for _, kw := range addressKeywords {
		if containsWord(upper, kw) {
			indicators++
			break
		}
	}
	if rePlotParen.MatchString(line) {
		indicators++
	}
	if reNewOldNo.MatchString(line) {
		indicators++
	}
	return indicators >= 2
}

// acceptAndClean runs the validation gate, then the cleaning pipeline.
// Empty means rejected.
func (ci *CustomerIdentifier) acceptAndClean(candidate string) string {
	upper := strings.ToUpper(util.NormalizeSpaces(candidate))
	for _, bad := range ci.blacklist {
		if strings.Contains(upper, bad) {
			return ""
		}
	}
	if util.CountLetters(upper) < 5 {
		return ""
	}

	cleaned := cleanCustomerName(upper)
	if util.CountLetters(cleaned) < 5 {
		return ""
	}
	return cleaned
}

func cleanCustomerName(name string) string {
	s := name
	for _, prefix := range customerLabelPrefixes {
		p := prefix
		for _, sep := range []string{":", ".", "-", " "} {
			if strings.HasPrefix(s, p+sep) {
				s = strings.TrimSpace(s[len(p+sep):])
			}
		}
	}
	s = reTrailingOrder.ReplaceAllString(s, "")
	s = reTrailingPhone.ReplaceAllString(s, "")
	s = strings.TrimRight(s, " .,:;-_")
	return util.NormalizeSpaces(s)
}

func containsEntityTerm(line string) bool {
	upper := strings.ToUpper(line)
	for _, term := range businessEntityTerms {
		if containsWord(upper, term) {
			return true
		}
	}
	return false
}

func isOrderKeyword(tok string) bool {
	upper := strings.ToUpper(tok)
	for _, kw := range orderFilenameKeywords {
		if upper == kw {
			return true
		}
	}
	return false
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
