package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true

	m := NewManager(cfg)
	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	if !m.Enabled() {
		t.Error("Expected metrics to be enabled")
	}
}

func TestNewManager_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	m := NewManager(cfg)
	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	if m.Enabled() {
		t.Error("Expected metrics to be disabled")
	}
}

func TestMetricsHandler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true

	m := NewManager(cfg)

	// Record some metrics
	m.RecordPruneRequest("ok", 5*time.Millisecond)
	m.RecordPruneAction(PruneActionSoftTrimmed)
	m.AddPruneCharsSaved(48000)
	m.RecordSearch("ok", 3, 2*time.Millisecond)

	// Create test request
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	// Serve metrics
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if body == "" {
		t.Error("Expected non-empty metrics output")
	}

	// Check for expected metrics
	expectedMetrics := []string{
		"prune_requests_total",
		"prune_actions_total",
		"prune_chars_saved_total",
		"memory_search_requests_total",
		"memory_search_duration_seconds",
	}

	for _, metric := range expectedMetrics {
		if !contains(body, metric) {
			t.Errorf("Expected metric %s not found in output", metric)
		}
	}
}

func TestMetricsHandler_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	m := NewManager(cfg)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when disabled, got %d", w.Code)
	}
}

func TestStartServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Port = 19091 // Use different port for testing

	m := NewManager(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		err := m.StartServer(ctx, cfg.Port, cfg.Path)
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	// Try to fetch metrics
	resp, err := http.Get("http://localhost:19091/metrics")
	if err != nil {
		t.Fatalf("Failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	// Cancel context to stop server
	cancel()

	// Check for errors
	select {
	case err := <-errCh:
		t.Errorf("Server error: %v", err)
	case <-time.After(1 * time.Second):
		// Server stopped cleanly
	}
}

func TestNoOpManager(t *testing.T) {
	m := NoOpManager()

	if m.Enabled() {
		t.Error("NoOpManager should not be enabled")
	}

	// These should not panic
	m.RecordPruneRequest("ok", time.Second)
	m.RecordPruneAction(PruneActionKept)
	m.AddPruneCharsSaved(100)
	m.RecordSearch("ok", 5, time.Second)
	m.RecordActivity(true)
	m.SetActiveSessions(3)
	m.RecordCompaction(CompactionModeFallback)
	m.RecordSharedSetWrite(false)
	m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
	m.IncActiveConnections()
	m.DecActiveConnections()
	m.IncWSConnections()
	m.DecWSConnections()
}

func TestSessionMetricsRegistered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	m := NewManager(cfg)

	m.RecordActivity(true)
	m.RecordActivity(false)
	m.SetActiveSessions(2)
	m.RecordCompaction(CompactionModeSummarizer)
	m.RecordCompaction(CompactionModeFallback)
	m.RecordSharedSetWrite(true)
	m.RecordSharedSetWrite(false)
	m.IncWSConnections()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	expected := []string{
		"session_activities_total",
		"sessions_active",
		"session_compactions_total",
		"shared_set_writes_total",
		"websocket_active_connections",
	}
	for _, metric := range expected {
		if !contains(body, metric) {
			t.Errorf("expected metric %s not found in output", metric)
		}
	}
}

func TestMetricsMemoryUsage(t *testing.T) {
	m := NewManager(DefaultConfig())

	// Simulate heavy metrics recording with bounded label values
	statuses := []string{"ok", "invalid", "error"}
	actions := []string{PruneActionKept, PruneActionProtected, PruneActionSoftTrimmed, PruneActionHardCleared}
	methods := []string{"GET", "POST", "PUT", "DELETE"}
	paths := []string{"/api/v1/prune", "/api/v1/sessions/{botID}/{threadID}/search", "/health", "/ready"}

	for i := 0; i < 100000; i++ {
		m.RecordPruneRequest(statuses[i%len(statuses)], time.Duration(i)*time.Microsecond)
		m.RecordPruneAction(actions[i%len(actions)])
		m.RecordSearch(statuses[i%len(statuses)], i%10, time.Duration(i)*time.Microsecond)
		m.RecordActivity(i%2 == 0)
		m.RecordHTTPRequest(methods[i%len(methods)], paths[i%len(paths)], "200", time.Duration(i)*time.Microsecond)
	}

	// Verify metrics endpoint still responds correctly after heavy load
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 after heavy load, got %d", w.Code)
	}

	body := w.Body.String()
	// Verify cardinality is bounded: label combinations should be small
	// 3 statuses for prune_requests_total, 4 actions for prune_actions_total,
	// 4 methods * 4 paths for http_requests_total
	if len(body) > 10*1024*1024 { // 10MB sanity check
		t.Errorf("Metrics output too large: %d bytes", len(body))
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > len(substr) &&
		(s[:len(substr)] == substr || contains(s[1:], substr)))
}

// --- Benchmarks for metrics collection overhead ---

func BenchmarkRecordPruneRequest(b *testing.B) {
	m := NewManager(DefaultConfig())
	d := 100 * time.Microsecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordPruneRequest("ok", d)
	}
}

func BenchmarkRecordPruneAction(b *testing.B) {
	m := NewManager(DefaultConfig())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordPruneAction(PruneActionSoftTrimmed)
	}
}

func BenchmarkRecordSearch(b *testing.B) {
	m := NewManager(DefaultConfig())
	d := 2 * time.Millisecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordSearch("ok", 5, d)
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	m := NewManager(DefaultConfig())
	d := 5 * time.Millisecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordHTTPRequest("POST", "/api/v1/prune", "200", d)
	}
}

func BenchmarkNoOpRecording(b *testing.B) {
	m := NoOpManager()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordPruneRequest("ok", time.Millisecond)
		m.RecordSearch("ok", 5, time.Millisecond)
		m.RecordActivity(true)
	}
}
