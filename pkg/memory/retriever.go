package memory

import "context"

// DefaultSearchLimit bounds searches that do not name their own limit.
const DefaultSearchLimit = 5

// Retriever runs the hybrid search pipeline over a session's reachable
// material: gather candidates, score them lexically, discount by age,
// then rerank for diversity. Components are stateless, so one Retriever
// serves every session concurrently.
type Retriever struct {
	scorer   *Scorer
	decay    *DecayModel
	reranker *Reranker
}

// NewRetriever assembles the pipeline. Nil components fall back to
// defaults.
func NewRetriever(scorer *Scorer, decay *DecayModel, reranker *Reranker) *Retriever {
	if scorer == nil {
		scorer = NewScorer(DefaultK1, DefaultB)
	}
	if decay == nil {
		decay = NewDecayModel(DefaultHalfLifeDays, DefaultDecayFloor)
	}
	if reranker == nil {
		reranker = NewReranker(DefaultLambda)
	}
	return &Retriever{scorer: scorer, decay: decay, reranker: reranker}
}

// Search returns at most limit candidates relevant to query, in the
// order the reranker selected them. Candidates that share no vocabulary
// with the query are dropped, so the result can be shorter than limit
// or empty. A non-positive limit selects the default.
func (r *Retriever) Search(ctx context.Context, store *SessionStore, query string, limit int) []SearchCandidate {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	candidates := r.gather(ctx, store)
	if len(candidates) == 0 {
		return nil
	}

	scored := make([]SearchCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		base := r.scorer.Score(queryTokens, candidate.Summary)
		if base <= 0 {
			continue
		}
		candidate.Score = r.decay.Apply(base, candidate.Timestamp)
		scored = append(scored, candidate)
	}

	return r.reranker.Rerank(scored, limit)
}

// gather collects everything searchable from the store's scope: its own
// session records, the bot's shared set members, and the bot's compacted
// summaries. Persistence failures shrink the pool instead of aborting.
func (r *Retriever) gather(ctx context.Context, store *SessionStore) []SearchCandidate {
	var out []SearchCandidate

	for _, record := range store.SessionActivity() {
		out = append(out, SearchCandidate{
			Summary:   record.SummaryText(),
			Timestamp: record.Timestamp,
			Source:    SourceSession,
		})
	}

	for _, setName := range store.SharedSetNames(ctx) {
		for _, member := range store.SharedMembers(ctx, setName) {
			out = append(out, SearchCandidate{
				Summary: setName + " " + member,
				Source:  SourceSharedSet,
			})
		}
	}

	for _, compacted := range store.CompactedSummaries(ctx) {
		out = append(out, SearchCandidate{
			Summary:   compacted.Summary,
			Timestamp: compacted.Timestamp,
			Source:    SourceCompacted,
		})
	}

	return out
}
