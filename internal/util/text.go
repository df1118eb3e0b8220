package util

import (
	"regexp"
	"strings"
)

var (
	reQuotes     = regexp.MustCompile(`["'` + "`" + `«»]`)
	reNonAllowed = regexp.MustCompile(`[^A-Z0-9/.\-\s]`)
	reSpaces     = regexp.MustCompile(`\s+`)
	reLetter     = regexp.MustCompile(`[A-Z]`)
)

// NormalizeName uppercases a product or customer string and strips
// everything outside the characters that carry identity. "/" and "."
// survive because combination strengths and decimals depend on them.
func NormalizeName(input string) string {
	s := strings.ToUpper(input)
	s = reQuotes.ReplaceAllString(s, " ")
	s = strings.NewReplacer(",", " ", "&", " ", "+", " ").Replace(s)
	s = reNonAllowed.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// Tokenize splits a normalized name into tokens of at least two runes.
func Tokenize(input string) []string {
	var out []string
	for _, p := range strings.Fields(NormalizeName(input)) {
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

// Keywords returns the alphabetic tokens of a name, dropping pure
// numbers so strength digits do not inflate keyword overlap.
func Keywords(input string) []string {
	tokens := Tokenize(input)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if reLetter.MatchString(t) {
			out = append(out, t)
		}
	}
	return out
}

// DiceCoefficient compares two strings by their character bigram
// multisets, 0 for disjoint and 1 for identical.
func DiceCoefficient(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	aBigrams, aTotal := bigramCounts(a)
	bBigrams, bTotal := bigramCounts(b)
	if aTotal == 0 || bTotal == 0 {
		return 0
	}

	inter := 0
	for bg, n := range aBigrams {
		if m := bBigrams[bg]; m < n {
			inter += m
		} else {
			inter += n
		}
	}
	return float64(2*inter) / float64(aTotal+bTotal)
}

func bigramCounts(s string) (map[string]int, int) {
	r := []rune(s)
	if len(r) < 2 {
		return nil, 0
	}
	counts := make(map[string]int, len(r)-1)
	for i := 0; i+1 < len(r); i++ {
		counts[string(r[i:i+2])]++
	}
	return counts, len(r) - 1
}

// LevenshteinSimilarity is 1 - dist/maxLen, in [0, 1].
func LevenshteinSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	dist := prev[len(rb)]
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1 - float64(dist)/float64(maxLen)
}

// JaccardTokens is the token-set overlap ratio of two token slices.
func JaccardTokens(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := map[string]struct{}{}
	for _, t := range a {
		set[t] = struct{}{}
	}
	union := len(set)
	inter := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			inter++
			delete(set, t)
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// CountLetters counts ASCII letters, used by the customer-name
// validation gate.
func CountLetters(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			n++
		}
	}
	return n
}

// UppercaseRatio is the share of letters that are uppercase.
func UppercaseRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			letters++
		}
		if r >= 'A' && r <= 'Z' {
			letters++
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
