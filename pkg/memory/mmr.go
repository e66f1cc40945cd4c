package memory

import (
	"math"
	"sort"
)

// DefaultLambda weights relevance against diversity in reranking.
// Values near 1 reproduce plain score order; values near 0 chase
// novelty at any cost.
const DefaultLambda = 0.7

// Reranker selects a bounded result set by maximal marginal relevance:
// each pick maximizes lambda*relevance - (1-lambda)*similarity to what
// was already picked, so near-duplicate results give way to material
// that covers different ground.
type Reranker struct {
	lambda float64
}

// NewReranker creates a Reranker. Lambda outside (0, 1) falls back to
// the default.
func NewReranker(lambda float64) *Reranker {
	if lambda <= 0 || lambda >= 1 {
		lambda = DefaultLambda
	}
	return &Reranker{lambda: lambda}
}

// Rerank returns up to limit candidates in selection order. When the
// pool already fits the limit it is returned in descending score order,
// original order breaking ties, and no diversity math runs.
func (r *Reranker) Rerank(candidates []SearchCandidate, limit int) []SearchCandidate {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	ordered := make([]SearchCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	if len(ordered) <= limit {
		return ordered
	}

	tokenSets := make([]map[string]struct{}, len(ordered))
	for i, c := range ordered {
		tokenSets[i] = tokenSet(c.Summary)
	}

	selected := make([]SearchCandidate, 0, limit)
	selectedSets := make([]map[string]struct{}, 0, limit)
	used := make([]bool, len(ordered))

	// The top-scored candidate always seeds the selection.
	selected = append(selected, ordered[0])
	selectedSets = append(selectedSets, tokenSets[0])
	used[0] = true

	for len(selected) < limit {
		bestIdx := -1
		bestValue := math.Inf(-1)

		for i, c := range ordered {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, sel := range selectedSets {
				if sim := jaccard(tokenSets[i], sel); sim > maxSim {
					maxSim = sim
				}
			}
			value := r.lambda*c.Score - (1-r.lambda)*maxSim
			if value > bestValue {
				bestValue = value
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			break
		}
		selected = append(selected, ordered[bestIdx])
		selectedSets = append(selectedSets, tokenSets[bestIdx])
		used[bestIdx] = true
	}

	return selected
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range Tokenize(text) {
		set[token] = struct{}{}
	}
	return set
}

// jaccard measures token-set overlap in [0, 1].
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for token := range small {
		if _, ok := large[token]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
