// Package memory provides session-scoped activity recording and hybrid
// retrieval for conversational agents. Each (bot, thread) pair owns a
// SessionStore of typed activity records; a Retriever ranks stored
// material with BM25 term matching, recency decay, and diversity
// reranking. Persistence is write-through and best-effort: a dead
// backend degrades the system to local state, it never takes it down.
package memory

import (
	"context"
	"errors"
)

// Sentinel errors for the memory system.
var (
	ErrInvalidBotID    = errors.New("memory: invalid bot ID")
	ErrInvalidThreadID = errors.New("memory: invalid thread ID")
	ErrInvalidQuery    = errors.New("memory: invalid query (no searchable tokens)")
	ErrNotStarted      = errors.New("memory: hub not started")
)

// Summarizer condenses a finished session into a short piece of prose
// that later searches can match on. Implementations typically call a
// language model; errors trigger the deterministic fallback extractor.
type Summarizer interface {
	Summarize(ctx context.Context, activities []MemoryRecord, outcome, goal string) (string, error)
}

// hubLogger is the minimal logging interface the memory system needs.
// pkg/logger satisfies it; tests may pass nil to discard output.
type hubLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopHubLogger discards all log output.
type nopHubLogger struct{}

func (nopHubLogger) Debug(msg string, args ...any) {}
func (nopHubLogger) Info(msg string, args ...any)  {}
func (nopHubLogger) Warn(msg string, args ...any)  {}
func (nopHubLogger) Error(msg string, args ...any) {}
