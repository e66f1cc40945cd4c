package memory

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			text: "Acme Corp. raised $40M, Series-B!",
			want: []string{"acme", "corp", "raised", "40m", "series", "b"},
		},
		{
			name: "collapses repeated separators",
			text: "alpha   --  beta",
			want: []string{"alpha", "beta"},
		},
		{
			name: "cjk characters become single tokens",
			text: "部署Kubernetes集群",
			want: []string{"部", "署", "kubernetes", "集", "群"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "punctuation only",
			text: "?!... ---",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestScorer_DisjointVocabularyScoresZero(t *testing.T) {
	s := NewScorer(DefaultK1, DefaultB)

	query := Tokenize("quantum entanglement research")
	score := s.Score(query, "acme corporation closed a funding round")
	if score != 0 {
		t.Errorf("expected 0 for disjoint vocabulary, got %f", score)
	}
}

func TestScorer_MoreMatchedTermsScoreHigher(t *testing.T) {
	s := NewScorer(DefaultK1, DefaultB)
	query := Tokenize("acme series funding")

	one := s.Score(query, "acme corporation")
	two := s.Score(query, "acme series b")
	three := s.Score(query, "acme series funding round")

	if one <= 0 {
		t.Fatalf("expected positive score for partial match, got %f", one)
	}
	if two <= one {
		t.Errorf("two matched terms (%f) should beat one (%f)", two, one)
	}
	if three <= two {
		t.Errorf("three matched terms (%f) should beat two (%f)", three, two)
	}
}

func TestScorer_ExactMatchScoresHigh(t *testing.T) {
	s := NewScorer(DefaultK1, DefaultB)

	query := Tokenize("acme series funding")
	score := s.Score(query, "acme series funding")
	if score <= 0.5 {
		t.Errorf("exact multi-term match should score well above 0.5, got %f", score)
	}
	if score >= 1 {
		t.Errorf("score must stay below 1, got %f", score)
	}
}

func TestScorer_TermFrequencySaturates(t *testing.T) {
	s := NewScorer(DefaultK1, DefaultB)
	query := Tokenize("acme")

	low := s.Score(query, "acme")
	high := s.Score(query, "acme acme acme acme acme")

	if high <= low {
		t.Errorf("repeated term should score higher: %f vs %f", high, low)
	}
	if high >= 1 {
		t.Errorf("saturated score must stay below 1, got %f", high)
	}
}

func TestScorer_EmptyInputs(t *testing.T) {
	s := NewScorer(DefaultK1, DefaultB)

	if got := s.Score(nil, "some document"); got != 0 {
		t.Errorf("empty query should score 0, got %f", got)
	}
	if got := s.Score(Tokenize("query"), ""); got != 0 {
		t.Errorf("empty document should score 0, got %f", got)
	}
	if got := s.Score(Tokenize("query"), "... !!!"); got != 0 {
		t.Errorf("tokenless document should score 0, got %f", got)
	}
}

func TestScorer_CaseAndPunctuationInsensitive(t *testing.T) {
	s := NewScorer(DefaultK1, DefaultB)

	a := s.Score(Tokenize("ACME Funding!"), "acme funding")
	b := s.Score(Tokenize("acme funding"), "Acme, funding.")
	if a != b {
		t.Errorf("case and punctuation should not change the score: %f vs %f", a, b)
	}
	if a <= 0 {
		t.Errorf("expected a positive score, got %f", a)
	}
}

func TestNewScorer_FallsBackOnBadParams(t *testing.T) {
	s := NewScorer(-1, 2)
	if s.k1 != DefaultK1 || s.b != DefaultB {
		t.Errorf("expected defaults for out-of-range params, got k1=%f b=%f", s.k1, s.b)
	}
}
