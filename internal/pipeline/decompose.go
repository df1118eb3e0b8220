package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"orderconv/internal"
	"orderconv/internal/util"
)

var (
	reBracketed   = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	reCombination = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)\s*(MG|MCG|ML|GM|G|IU)?\b`)
	reUnitDose    = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(MG|MCG|ML|GM|G|IU)\b`)
	reNumberTok   = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Decomposer splits a product description into {baseName, strength,
// variant}. The vocabularies are injected so deployments can extend
// them without touching the extraction order.
type Decomposer struct {
	variants  []string
	forms     []string
	strengths map[float64]struct{}
	noise     []string
}

func NewDecomposer() *Decomposer {
	return &Decomposer{
		variants:  variantTokens,
		forms:     dosageFormWords,
		strengths: knownStrengths,
		noise:     noiseTokens,
	}
}

// Decompose extracts the identity triple. The order is load-bearing:
// noise first, then variant, then strength, so a variant token can
// never be consumed by a strength pattern.
func (d *Decomposer) Decompose(desc string) internal.ProductIdentity {
	// Bracketed pack annotations like "(30'S)" are noise and must go
	// before normalization flattens the brackets away.
	s := reBracketed.ReplaceAllString(desc, " ")
	s = util.NormalizeName(s)
	s = d.dropTokens(s, d.noise)

	var variant *string
	s, variant = d.extractVariant(s)

	var strength *string
	s, strength = d.extractStrength(s)

	s = d.dropTokens(s, d.forms)

	return internal.ProductIdentity{
		BaseName: util.NormalizeSpaces(s),
		Strength: strength,
		Variant:  variant,
	}
}

// Reassemble renders a canonical description for an identity. Strength
// is emitted with an explicit MG unit so re-decomposition takes the
// unit-suffixed path regardless of which pattern produced the value.
func (d *Decomposer) Reassemble(id internal.ProductIdentity) string {
	parts := []string{id.BaseName}
	if id.Strength != nil {
		parts = append(parts, *id.Strength+"MG")
	}
	if id.Variant != nil {
		parts = append(parts, *id.Variant)
	}
	return util.NormalizeSpaces(strings.Join(parts, " "))
}

func (d *Decomposer) extractVariant(s string) (string, *string) {
	tokens := strings.Split(s, " ")
	for i, tok := range tokens {
		for _, v := range d.variants {
			if tok == v {
				rest := append(append([]string{}, tokens[:i]...), tokens[i+1:]...)
				return strings.Join(rest, " "), util.StringPtr(v)
			}
		}
	}
	return s, nil
}

// extractStrength runs the pattern cascade and removes the matched
// substring. Returned strengths are numeric-only: "650", "2.5",
// "50/500".
func (d *Decomposer) extractStrength(s string) (string, *string) {
	if m := reCombination.FindStringSubmatchIndex(s); m != nil {
		first := normalizeNumber(s[m[2]:m[3]])
		second := normalizeNumber(s[m[4]:m[5]])
		out := s[:m[0]] + " " + s[m[1]:]
		return out, util.StringPtr(first + "/" + second)
	}

	if m := reUnitDose.FindStringSubmatchIndex(s); m != nil {
		value := normalizeNumber(s[m[2]:m[3]])
		out := s[:m[0]] + " " + s[m[1]:]
		return out, util.StringPtr(value)
	}

	if out, v := d.decimalBeforeForm(s); v != nil {
		return out, v
	}

	// Bare number, only if it is a known pharmaceutical strength.
	tokens := strings.Split(s, " ")
	for i, tok := range tokens {
		if !reNumberTok.MatchString(tok) {
			continue
		}
		value, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		if _, known := d.strengths[value]; !known {
			continue
		}
		rest := append(append([]string{}, tokens[:i]...), tokens[i+1:]...)
		return strings.Join(rest, " "), util.StringPtr(normalizeNumber(tok))
	}

	return s, nil
}

func (d *Decomposer) decimalBeforeForm(s string) (string, *string) {
	tokens := strings.Split(s, " ")
	for i := 0; i+1 < len(tokens); i++ {
		if !strings.Contains(tokens[i], ".") || !reNumberTok.MatchString(tokens[i]) {
			continue
		}
		if !d.isForm(tokens[i+1]) {
			continue
		}
		value := normalizeNumber(tokens[i])
		rest := append(append([]string{}, tokens[:i]...), tokens[i+1:]...)
		return strings.Join(rest, " "), util.StringPtr(value)
	}
	return s, nil
}

func (d *Decomposer) isForm(tok string) bool {
	for _, f := range d.forms {
		if tok == f {
			return true
		}
	}
	return false
}

func (d *Decomposer) dropTokens(s string, vocab []string) string {
	tokens := strings.Split(s, " ")
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		drop := false
		for _, v := range vocab {
			if tok == v {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, tok)
		}
	}
	return strings.Join(out, " ")
}

// StrengthsEqual compares numeric strength strings component-wise so
// "40" and "40.0" agree and "500/125" requires both parts to agree.
func StrengthsEqual(a, b string) bool {
	aParts := strings.Split(a, "/")
	bParts := strings.Split(b, "/")
	if len(aParts) != len(bParts) {
		return false
	}
	for i := range aParts {
		av, errA := strconv.ParseFloat(aParts[i], 64)
		bv, errB := strconv.ParseFloat(bParts[i], 64)
		if errA != nil || errB != nil {
			if aParts[i] != bParts[i] {
				return false
			}
			continue
		}
		if av != bv {
			return false
		}
	}
	return true
}

func normalizeNumber(tok string) string {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return tok
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
