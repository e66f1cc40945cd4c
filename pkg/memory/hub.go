package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/engram/engram/config"
	"github.com/engram/engram/pkg/storage"
)

// Hub owns every SessionStore and the shared retrieval pipeline. Callers
// address sessions by (bot, thread); the hub creates, hydrates, and
// caches stores on first use and routes searches through one Retriever.
type Hub struct {
	mu sync.RWMutex

	store     storage.Storage
	retriever *Retriever
	logger    hubLogger

	sessions map[string]*SessionStore

	summarizer Summarizer

	sessionTTL   time.Duration
	sharedTTL    time.Duration
	defaultLimit int
	maxLimit     int

	started bool
}

// NewHub creates a Hub from configuration and a storage backend. Nil
// configs select defaults; a nil logger discards output.
func NewHub(retrieval *config.RetrievalConfig, session *config.SessionConfig, store storage.Storage, logger hubLogger) *Hub {
	if logger == nil {
		logger = nopHubLogger{}
	}

	scorer := NewScorer(DefaultK1, DefaultB)
	decay := NewDecayModel(DefaultHalfLifeDays, DefaultDecayFloor)
	reranker := NewReranker(DefaultLambda)
	defaultLimit := DefaultSearchLimit
	maxLimit := 0

	if retrieval != nil {
		scorer = NewScorer(retrieval.K1, retrieval.B)
		decay = NewDecayModel(retrieval.HalfLifeDays, retrieval.DecayFloor)
		reranker = NewReranker(retrieval.Lambda)
		if retrieval.DefaultLimit > 0 {
			defaultLimit = retrieval.DefaultLimit
		}
		maxLimit = retrieval.MaxLimit
	}

	sessionTTL := DefaultSessionTTL
	sharedTTL := DefaultSharedTTL
	if session != nil {
		if session.ActivityTTL > 0 {
			sessionTTL = session.ActivityTTL
		}
		if session.SharedTTL > 0 {
			sharedTTL = session.SharedTTL
		}
	}

	return &Hub{
		store:        store,
		retriever:    NewRetriever(scorer, decay, reranker),
		logger:       logger,
		sessions:     make(map[string]*SessionStore),
		sessionTTL:   sessionTTL,
		sharedTTL:    sharedTTL,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// SetSummarizer installs the compaction collaborator on the hub and on
// every session it has already created.
func (h *Hub) SetSummarizer(summarizer Summarizer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summarizer = summarizer
	for _, session := range h.sessions {
		session.SetSummarizer(summarizer)
	}
}

// Start verifies the storage backend and marks the hub ready. A backend
// that does not answer is logged, not fatal: sessions run local-only
// until it recovers.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return fmt.Errorf("memory hub already started")
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("memory persistence unavailable at startup", "error", err)
	}

	h.started = true
	h.logger.Info("memory hub started",
		"session_ttl", h.sessionTTL,
		"shared_ttl", h.sharedTTL,
	)
	return nil
}

// Stop marks the hub stopped. Session state already lives in storage or
// with the callers, so there is nothing to flush.
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return nil
	}
	h.started = false
	h.logger.Info("memory hub stopped", "sessions", len(h.sessions))
	return nil
}

// Session returns the store for (botID, threadID), creating and
// hydrating it on first use.
func (h *Hub) Session(ctx context.Context, botID, threadID string) (*SessionStore, error) {
	if botID == "" {
		return nil, ErrInvalidBotID
	}
	if threadID == "" {
		return nil, ErrInvalidThreadID
	}

	key := sessionActivityKey(botID, threadID)

	h.mu.RLock()
	session, ok := h.sessions[key]
	h.mu.RUnlock()
	if ok {
		return session, nil
	}

	h.mu.Lock()
	if session, ok = h.sessions[key]; !ok {
		session = NewSessionStore(botID, threadID, h.store, h.logger)
		session.SetTTLs(h.sessionTTL, h.sharedTTL)
		if h.summarizer != nil {
			session.SetSummarizer(h.summarizer)
		}
		h.sessions[key] = session
	}
	h.mu.Unlock()

	session.Hydrate(ctx)
	return session, nil
}

// SharedScope returns a store bound only to botID, for bot-wide set and
// summary operations arriving outside any thread. Shared scopes are
// cached like sessions but never hold activity records.
func (h *Hub) SharedScope(botID string) (*SessionStore, error) {
	if botID == "" {
		return nil, ErrInvalidBotID
	}

	key := "bot:" + botID

	h.mu.RLock()
	scope, ok := h.sessions[key]
	h.mu.RUnlock()
	if ok {
		return scope, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if scope, ok = h.sessions[key]; !ok {
		scope = NewSessionStore(botID, "", h.store, h.logger)
		scope.SetTTLs(h.sessionTTL, h.sharedTTL)
		if h.summarizer != nil {
			scope.SetSummarizer(h.summarizer)
		}
		h.sessions[key] = scope
	}
	return scope, nil
}

// UpdateRetrieval swaps the retrieval pipeline parameters. Searches in
// flight finish on the old pipeline.
func (h *Hub) UpdateRetrieval(retrieval *config.RetrievalConfig) {
	if retrieval == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.retriever = NewRetriever(
		NewScorer(retrieval.K1, retrieval.B),
		NewDecayModel(retrieval.HalfLifeDays, retrieval.DecayFloor),
		NewReranker(retrieval.Lambda),
	)
	if retrieval.DefaultLimit > 0 {
		h.defaultLimit = retrieval.DefaultLimit
	}
	h.maxLimit = retrieval.MaxLimit
}

// Search runs the hybrid retrieval pipeline for one scope. A query that
// tokenizes to nothing returns empty results; a blank query is a caller
// error. Limits are clamped to the configured maximum.
func (h *Hub) Search(ctx context.Context, botID, threadID, query string, limit int) ([]SearchCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}

	session, err := h.Session(ctx, botID, threadID)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	retriever := h.retriever
	defaultLimit := h.defaultLimit
	maxLimit := h.maxLimit
	h.mu.RUnlock()

	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	start := time.Now()
	results := retriever.Search(ctx, session, query, limit)
	h.logger.Debug("memory search",
		"bot_id", botID,
		"thread_id", threadID,
		"results", len(results),
		"duration", time.Since(start),
	)
	return results, nil
}

// HubStats describes the hub's in-process state.
type HubStats struct {
	Sessions int `json:"sessions"`
	Records  int `json:"records"`
}

// Stats counts the sessions and records currently held in process.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HubStats{Sessions: len(h.sessions)}
	for _, session := range h.sessions {
		stats.Records += session.Len()
	}
	return stats
}
