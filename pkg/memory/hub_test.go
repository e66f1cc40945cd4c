package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/engram/engram/config"
	memstorage "github.com/engram/engram/pkg/storage/memory"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(nil, nil, memstorage.NewMemoryStorage(), nil)
}

func TestHub_SessionValidation(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	if _, err := hub.Session(ctx, "", "thread-1"); !errors.Is(err, ErrInvalidBotID) {
		t.Errorf("expected ErrInvalidBotID, got %v", err)
	}
	if _, err := hub.Session(ctx, "bot-1", ""); !errors.Is(err, ErrInvalidThreadID) {
		t.Errorf("expected ErrInvalidThreadID, got %v", err)
	}
}

func TestHub_SessionReuse(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	first, err := hub.Session(ctx, "bot-1", "thread-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := hub.Session(ctx, "bot-1", "thread-1")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("same scope should return the same store")
	}

	other, err := hub.Session(ctx, "bot-1", "thread-2")
	if err != nil {
		t.Fatal(err)
	}
	if other == first {
		t.Error("different threads should get different stores")
	}
}

func TestHub_SessionHydratesOnFirstUse(t *testing.T) {
	ctx := context.Background()
	backend := memstorage.NewMemoryStorage()

	seed := NewSessionStore("bot-1", "thread-1", backend, nil)
	seed.LogActivity(ctx, "web_search", map[string]any{"query": "acme"}, true)

	hub := NewHub(nil, nil, backend, nil)
	session, err := hub.Session(ctx, "bot-1", "thread-1")
	if err != nil {
		t.Fatal(err)
	}
	if session.Len() != 1 {
		t.Errorf("expected the persisted record after hydration, got %d", session.Len())
	}
}

func TestHub_Search(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	session, err := hub.Session(ctx, "bot-1", "thread-1")
	if err != nil {
		t.Fatal(err)
	}
	session.LogActivity(ctx, "web_search", map[string]any{"query": "acme robotics funding"}, false)

	results, err := hub.Search(ctx, "bot-1", "thread-1", "acme robotics", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestHub_Search_BlankQuery(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	if _, err := hub.Search(ctx, "bot-1", "thread-1", "   ", 5); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestHub_Search_TokenlessQueryReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	results, err := hub.Search(ctx, "bot-1", "thread-1", "!!!", 5)
	if err != nil {
		t.Fatalf("tokenless query should not error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestHub_Search_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	retrieval := &config.RetrievalConfig{
		K1:           DefaultK1,
		B:            DefaultB,
		Lambda:       DefaultLambda,
		HalfLifeDays: DefaultHalfLifeDays,
		DecayFloor:   DefaultDecayFloor,
		DefaultLimit: 5,
		MaxLimit:     2,
	}
	hub := NewHub(retrieval, nil, memstorage.NewMemoryStorage(), nil)

	session, err := hub.Session(ctx, "bot-1", "thread-1")
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range []string{"alpha", "beta", "gamma", "delta"} {
		session.LogActivity(ctx, "web_search", map[string]any{"query": "acme " + topic}, false)
	}

	results, err := hub.Search(ctx, "bot-1", "thread-1", "acme", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("limit should clamp to the configured maximum, got %d results", len(results))
	}
}

func TestHub_StartStop(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	if err := hub.Start(ctx); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if err := hub.Start(ctx); err == nil {
		t.Error("second start should fail")
	}
	if err := hub.Stop(ctx); err != nil {
		t.Errorf("stop failed: %v", err)
	}
	if err := hub.Stop(ctx); err != nil {
		t.Errorf("stop should be idempotent, got %v", err)
	}
}

func TestHub_Stats(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	a, _ := hub.Session(ctx, "bot-1", "thread-a")
	b, _ := hub.Session(ctx, "bot-1", "thread-b")
	a.LogActivity(ctx, "one", nil, false)
	a.LogActivity(ctx, "two", nil, false)
	b.LogActivity(ctx, "three", nil, false)

	stats := hub.Stats()
	if stats.Sessions != 2 {
		t.Errorf("expected 2 sessions, got %d", stats.Sessions)
	}
	if stats.Records != 3 {
		t.Errorf("expected 3 records, got %d", stats.Records)
	}
}

func TestHub_SetSummarizer_ReachesExistingSessions(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	session, err := hub.Session(ctx, "bot-1", "thread-1")
	if err != nil {
		t.Fatal(err)
	}

	summarizer := &stubSummarizer{text: "summarized by the model"}
	hub.SetSummarizer(summarizer)

	if got := session.Compact(ctx, nil, "done", "goal"); got != "summarized by the model" {
		t.Errorf("existing session should use the installed summarizer, got %q", got)
	}

	late, err := hub.Session(ctx, "bot-1", "thread-2")
	if err != nil {
		t.Fatal(err)
	}
	if got := late.Compact(ctx, nil, "done", "goal"); got != "summarized by the model" {
		t.Errorf("new session should inherit the summarizer, got %q", got)
	}
}
