package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/engram/engram/config"
	"github.com/engram/engram/pkg/api/handlers"
	"github.com/engram/engram/pkg/logger"
	"github.com/engram/engram/pkg/memory"
	memstorage "github.com/engram/engram/pkg/storage/memory"
)

// setupBenchmarkServer creates a test server for benchmarking
func setupBenchmarkServer(b *testing.B) (*httptest.Server, *config.Config, func()) {
	cfg := config.DefaultConfig()
	cfg.Server.CORS.Enabled = false
	cfg.Tracing.Enabled = false

	log := logger.New(&logger.Config{
		Level:  logger.ErrorLevel, // Reduce logging noise in benchmarks
		Format: "json",
		Output: "stdout",
	})

	// Create and start the memory hub
	ctx := context.Background()
	store := memstorage.NewMemoryStorage()
	hub := memory.NewHub(&cfg.Retrieval, &cfg.Session, store, log)
	if err := hub.Start(ctx); err != nil {
		b.Fatalf("Failed to start memory hub: %v", err)
	}

	// Create handlers
	testHandlers := &Handlers{
		Session: handlers.NewSessionHandler(hub, log, nil, nil),
		Prune:   handlers.NewPruneHandler(&cfg.Prune, log, nil),
		Health:  handlers.NewHealthHandler(hub, store, "bench"),
	}

	// Create router
	router := NewRouter(cfg, log, testHandlers)

	// Create test server
	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		hub.Stop(ctx)
		store.Close()
	}

	return server, cfg, cleanup
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func BenchmarkHealthEndpoint(b *testing.B) {
	server, _, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := http.Get(server.URL + "/health")
		if err != nil {
			b.Fatalf("Health request failed: %v", err)
		}
		drain(resp)
	}
}

func BenchmarkPruneEndpoint(b *testing.B) {
	server, cfg, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	// One oversized unprotected message plus a protected window of small ones.
	messages := []map[string]any{
		{"role": "tool", "content": strings.Repeat("x", cfg.Prune.SoftTrimThreshold+5000), "tool_call_id": "call-0"},
	}
	for i := 1; i <= cfg.Prune.KeepLastToolResults; i++ {
		messages = append(messages, map[string]any{
			"role":         "tool",
			"content":      "small",
			"tool_call_id": fmt.Sprintf("call-%d", i),
		})
	}
	payload, err := json.Marshal(map[string]any{"messages": messages})
	if err != nil {
		b.Fatalf("Failed to marshal payload: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := http.Post(server.URL+"/api/v1/prune", "application/json", bytes.NewReader(payload))
		if err != nil {
			b.Fatalf("Prune request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			b.Fatalf("Prune returned status %d", resp.StatusCode)
		}
		drain(resp)
	}
}

func BenchmarkSearchEndpoint(b *testing.B) {
	server, _, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	// Seed a session with activity records to rank.
	for i := 0; i < 50; i++ {
		payload, _ := json.Marshal(map[string]any{
			"type": "web_search",
			"data": map[string]any{
				"company": fmt.Sprintf("company-%d", i),
				"finding": "market share and revenue analysis",
			},
		})
		resp, err := http.Post(server.URL+"/api/v1/sessions/bot-1/thread-1/activities", "application/json", bytes.NewReader(payload))
		if err != nil {
			b.Fatalf("Seed request failed: %v", err)
		}
		drain(resp)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := http.Get(server.URL + "/api/v1/sessions/bot-1/thread-1/search?query=revenue+analysis&limit=5")
		if err != nil {
			b.Fatalf("Search request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			b.Fatalf("Search returned status %d", resp.StatusCode)
		}
		drain(resp)
	}
}

func BenchmarkLogActivityEndpoint(b *testing.B) {
	server, _, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	payload, _ := json.Marshal(map[string]any{
		"type": "note",
		"data": map[string]any{"text": "benchmark activity"},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := http.Post(server.URL+"/api/v1/sessions/bot-1/thread-1/activities", "application/json", bytes.NewReader(payload))
		if err != nil {
			b.Fatalf("LogActivity request failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			b.Fatalf("LogActivity returned status %d", resp.StatusCode)
		}
		drain(resp)
	}
}
