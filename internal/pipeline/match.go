package pipeline

import (
	"strings"

	"orderconv/internal"
	"orderconv/internal/config"
	"orderconv/internal/util"
)

const (
	scoreExact        = 1.0
	scoreCanonical    = 0.98
	scoreBaseStrength = 0.90
	fuzzyCeiling      = 0.88
	containCeiling    = 0.85
	keywordCeiling    = 0.80
)

type matchCandidate struct {
	product   internal.ProductEntry
	normName  string
	cleanName string
	identity  internal.ProductIdentity
	tokens    []string
	keywords  []string
}

// Matcher resolves descriptions against a catalog snapshot. The scan is
// a deliberate linear pass over all candidates; catalogs in the low
// thousands do not justify an index.
type Matcher struct {
	cfg        config.Config
	dec        *Decomposer
	candidates []matchCandidate
}

func NewMatcher(cfg config.Config, dec *Decomposer, products []internal.ProductEntry) *Matcher {
	m := &Matcher{cfg: cfg, dec: dec, candidates: make([]matchCandidate, 0, len(products))}
	for _, p := range products {
		identity := candidateIdentity(dec, p)
		m.candidates = append(m.candidates, matchCandidate{
			product:   p,
			normName:  util.NormalizeName(p.DisplayName),
			cleanName: util.NormalizeName(dec.Reassemble(identity)),
			identity:  identity,
			tokens:    util.Tokenize(p.DisplayName),
			keywords:  util.Keywords(p.DisplayName),
		})
	}
	return m
}

// candidateIdentity prefers the catalog's stored triple and falls back
// to decomposing the display name the same way query text is handled.
func candidateIdentity(dec *Decomposer, p internal.ProductEntry) internal.ProductIdentity {
	if p.BaseName != "" {
		return internal.ProductIdentity{
			BaseName: util.NormalizeName(p.BaseName),
			Strength: p.Strength,
			Variant:  p.Variant,
		}
	}
	return dec.Decompose(p.DisplayName)
}

// Match returns the best catalog entry for a description, or a result
// with Strategy NONE when nothing clears the acceptance threshold.
func (m *Matcher) Match(desc string) internal.MatchResult {
	query := util.NormalizeName(desc)
	identity := m.dec.Decompose(desc)
	clean := util.NormalizeName(m.dec.Reassemble(identity))
	queryTokens := util.Tokenize(desc)
	queryKeywords := util.Keywords(desc)

	// Information-rich descriptions already proved they parse cleanly,
	// so they are accepted at a lower floor than bare text.
	hasSignal := identity.Strength != nil || identity.Variant != nil
	threshold := m.cfg.MatchPlainThreshold
	if hasSignal {
		threshold = m.cfg.MatchSignalThreshold
	}

	trace := make([]internal.MatchTrace, 0, 8)
	var best *matchCandidate
	bestScore := 0.0
	bestStrategy := internal.StrategyNone

	for i := range m.candidates {
		cand := &m.candidates[i]

		// Strength safety gate. Unconditional: a mismatched potency is
		// never scored, no matter how well the rest of the text agrees.
		if identity.Strength != nil {
			cs := cand.identity.Strength
			if cs == nil || !StrengthsEqual(*identity.Strength, *cs) {
				trace = append(trace, internal.MatchTrace{
					Stage:     "strength_gate",
					Candidate: cand.product.DisplayName,
					Decision:  "excluded",
				})
				continue
			}
		}

		score, strategy := m.scoreCandidate(cand, query, clean, identity, queryTokens, queryKeywords)
		if score <= 0 {
			continue
		}
		if score >= m.cfg.MatchFuzzyFloor {
			trace = append(trace, internal.MatchTrace{
				Stage:     string(strategy),
				Candidate: cand.product.DisplayName,
				Score:     score,
				Decision:  "scored",
			})
		}
		if score > bestScore {
			best = cand
			bestScore = score
			bestStrategy = strategy
		}
		if bestScore >= scoreExact {
			break
		}
	}

	if best == nil || bestScore < threshold {
		trace = append(trace, internal.MatchTrace{
			Stage:    "threshold",
			Score:    bestScore,
			Decision: "rejected",
		})
		return internal.MatchResult{Score: bestScore, Strategy: internal.StrategyNone, Trace: trace}
	}

	trace = append(trace, internal.MatchTrace{
		Stage:     string(bestStrategy),
		Candidate: best.product.DisplayName,
		Score:     bestScore,
		Decision:  "accepted",
	})
	product := best.product
	return internal.MatchResult{Product: &product, Score: bestScore, Strategy: bestStrategy, Trace: trace}
}

// scoreCandidate runs the strategy cascade in priority order; the first
// strategy that produces a non-zero score decides this candidate's entry.
func (m *Matcher) scoreCandidate(cand *matchCandidate, query, clean string, identity internal.ProductIdentity, queryTokens, queryKeywords []string) (float64, internal.MatchStrategy) {
	strategies := []struct {
		strategy internal.MatchStrategy
		score    func() float64
	}{
		{internal.StrategyExact, func() float64 {
			if query == cand.normName {
				return scoreExact
			}
			return 0
		}},
		{internal.StrategyCanonical, func() float64 {
			if clean != "" && clean == cand.cleanName {
				return scoreCanonical
			}
			return 0
		}},
		{internal.StrategyBaseStrength, func() float64 {
			if identity.BaseName != "" && identity.BaseName == cand.identity.BaseName {
				return scoreBaseStrength
			}
			return 0
		}},
		{internal.StrategyFuzzy, func() float64 {
			if fuzzy := m.fuzzyScore(query, cand, queryTokens, queryKeywords); fuzzy >= m.cfg.MatchFuzzyFloor {
				return fuzzy * fuzzyCeiling
			}
			return 0
		}},
		{internal.StrategyContainment, func() float64 {
			return containmentScore(query, cand.normName) * containCeiling
		}},
		{internal.StrategyKeyword, func() float64 {
			return keywordScore(queryKeywords, cand.keywords) * keywordCeiling
		}},
	}

	for _, s := range strategies {
		if score := s.score(); score > 0 {
			return score, s.strategy
		}
	}
	return 0, internal.StrategyNone
}

func (m *Matcher) fuzzyScore(query string, cand *matchCandidate, queryTokens, queryKeywords []string) float64 {
	jaccard := util.JaccardTokens(queryKeywords, cand.keywords)
	wordOverlap := overlapRatio(queryTokens, cand.tokens)
	partial := prefixRatio(queryTokens, cand.tokens)
	edit := util.LevenshteinSimilarity(query, cand.normName)
	return 0.30*jaccard + 0.25*wordOverlap + 0.20*partial + 0.25*edit
}

func overlapRatio(query, cand []string) float64 {
	if len(query) == 0 {
		return 0
	}
	set := map[string]struct{}{}
	for _, t := range cand {
		set[t] = struct{}{}
	}
	n := 0
	for _, t := range query {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(query))
}

func prefixRatio(query, cand []string) float64 {
	if len(query) == 0 {
		return 0
	}
	n := 0
	for _, q := range query {
		if len(q) < 3 {
			continue
		}
		for _, c := range cand {
			if strings.HasPrefix(c, q) || strings.HasPrefix(q, c) {
				n++
				break
			}
		}
	}
	return float64(n) / float64(len(query))
}

func containmentScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if !strings.Contains(long, short) {
		return 0
	}
	return float64(len(short)) / float64(len(long))
}

func keywordScore(query, cand []string) float64 {
	if len(query) == 0 || len(cand) == 0 {
		return 0
	}
	set := map[string]struct{}{}
	for _, t := range cand {
		set[t] = struct{}{}
	}
	n := 0
	for _, t := range query {
		if _, ok := set[t]; ok {
			n++
		}
	}
	denom := len(query)
	if len(cand) > denom {
		denom = len(cand)
	}
	return float64(n) / float64(denom)
}
