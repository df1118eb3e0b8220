package intake

import "strings"

type DetectResult struct {
	IsOrder bool
	Score   float64
	Reason  string
}

var orderKeywords = []string{
	"order", "purchase", "po ", "indent", "requirement", "required",
	"qty", "supply", "dispatch",
}

// DetectOrderMail scores whether a message is an order request at all,
// so newsletters and payment reminders landing in the same inbox are
// skipped before extraction.
func DetectOrderMail(subject, text string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)

	score := 0.0
	for _, kw := range orderKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
		if strings.Contains(text, kw) {
			score += 0.1
		}
	}

	for _, name := range attachmentNames {
		if hasSupportedExt(name) {
			score += 0.35
			break
		}
	}

	if qtyHits := countNumberRuns(text); qtyHits >= 3 {
		score += 0.3
	} else if qtyHits > 0 {
		score += 0.15
	}

	if score > 1 {
		score = 1
	}

	isOrder := score >= 0.45
	reason := "rules_negative"
	if isOrder {
		reason = "rules_positive"
	}
	return DetectResult{IsOrder: isOrder, Score: score, Reason: reason}
}

func countNumberRuns(text string) int {
	count := 0
	for i := 0; i < len(text); i++ {
		if text[i] >= '0' && text[i] <= '9' {
			count++
			for i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
				i++
			}
		}
	}
	return count
}
