package memory

import (
	"strings"
	"unicode"
)

// Default BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75

	// pivotDocLen is the document length at which length normalization is
	// neutral. Scoring is per document rather than per corpus, so a fixed
	// pivot stands in for the usual average document length.
	pivotDocLen = 100.0
)

// Scorer rates how well a single document matches a query, using BM25
// term-frequency saturation with length normalization. Scores land in
// [0, 1): zero means no shared vocabulary, and every additional matched
// query term raises the score. There is no corpus state, so documents
// can be scored independently and concurrently.
type Scorer struct {
	k1 float64
	b  float64
}

// NewScorer creates a Scorer. Out-of-range parameters fall back to the
// defaults: k1 must be positive, b must be in [0, 1].
func NewScorer(k1, b float64) *Scorer {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b < 0 || b > 1 {
		b = DefaultB
	}
	return &Scorer{k1: k1, b: b}
}

// Score rates document against the query tokens. Each distinct query
// term contributes its saturated term frequency; the result is the mean
// contribution, so matching more distinct terms always scores higher
// and a document sharing no terms scores exactly zero.
func (s *Scorer) Score(queryTokens []string, document string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	docTokens := Tokenize(document)
	if len(docTokens) == 0 {
		return 0
	}

	freqs := make(map[string]int, len(docTokens))
	for _, token := range docTokens {
		freqs[token]++
	}

	distinct := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		distinct[token] = struct{}{}
	}

	docLen := float64(len(docTokens))
	norm := s.k1 * (1 - s.b + s.b*docLen/pivotDocLen)

	total := 0.0
	for term := range distinct {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}
		total += tf / (tf + norm)
	}

	return total / float64(len(distinct))
}

// Tokenize splits text into lowercase alphanumeric tokens. Punctuation
// and whitespace are separators; CJK characters become single-rune
// tokens so queries work without word boundaries.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	tokens := make([]string, 0, len(text)/4)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}
