package badger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/engram/engram/pkg/storage"
)

// TestBadgerStorageSuite runs the full storage test suite against BadgerStorage.
func TestBadgerStorageSuite(t *testing.T) {
	suite := &storage.StorageTestSuite{
		NewStorage: func(t *testing.T) storage.Storage {
			tmpDir, err := os.MkdirTemp("", "badger-test-*")
			if err != nil {
				t.Fatalf("Failed to create temp dir: %v", err)
			}

			t.Cleanup(func() {
				os.RemoveAll(tmpDir)
			})

			config := &Config{
				Path:              tmpDir,
				SyncWrites:        false,
				ValueLogFileSize:  1 << 20,
				NumVersionsToKeep: 1,
			}

			db, err := NewBadgerStorage(config)
			if err != nil {
				t.Fatalf("Failed to create BadgerStorage: %v", err)
			}

			return db
		},
		SupportsTTL: true,
	}

	suite.RunAllTests(t)
}

func setupTestDB(t *testing.T) (*BadgerStorage, func()) {
	tmpDir, err := os.MkdirTemp("", "badger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	config := &Config{
		Path:              tmpDir,
		SyncWrites:        false,   // Faster for tests
		ValueLogFileSize:  1 << 20, // 1MB
		NumVersionsToKeep: 1,
	}

	db, err := NewBadgerStorage(config)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create BadgerStorage: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func TestBadgerStorage_Get_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := db.Get(ctx, "nonexistent")
	if err == nil {
		t.Fatal("Expected error for nonexistent key")
	}

	if _, ok := err.(*storage.NotFoundError); !ok {
		t.Errorf("Expected NotFoundError, got %T", err)
	}
}

func TestBadgerStorage_PersistenceAcrossReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "badger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	config := &Config{
		Path:              tmpDir,
		SyncWrites:        true,
		ValueLogFileSize:  1 << 20,
		NumVersionsToKeep: 1,
	}

	ctx := context.Background()

	db, err := NewBadgerStorage(config)
	if err != nil {
		t.Fatalf("Failed to create BadgerStorage: %v", err)
	}

	if err := db.Set(ctx, "durable", []byte("survives restart"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewBadgerStorage(config)
	if err != nil {
		t.Fatalf("Failed to reopen BadgerStorage: %v", err)
	}
	defer reopened.Close()

	value, err := reopened.Get(ctx, "durable")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(value) != "survives restart" {
		t.Errorf("Expected %q, got %q", "survives restart", value)
	}
}

func TestBadgerStorage_TTLSurvivesImmediateRead(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// Badger tracks expiry at second granularity; a 2s TTL must survive
	// an immediate read.
	if err := db.Set(ctx, "ttl-key", []byte("value"), 2*time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := db.Get(ctx, "ttl-key"); err != nil {
		t.Fatalf("Get immediately after Set failed: %v", err)
	}
}

func TestBadgerStorage_PingAfterClose(t *testing.T) {
	db, cleanup := setupTestDB(t)

	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping on open database failed: %v", err)
	}

	cleanup()

	err := db.Ping(ctx)
	if err == nil {
		t.Fatal("Expected error pinging closed database")
	}
	if _, ok := err.(*storage.StorageUnavailableError); !ok {
		t.Errorf("Expected StorageUnavailableError, got %T", err)
	}
}

func TestBadgerStorage_OverwriteKeepsLatest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for _, v := range []string{"v1", "v2", "v3"} {
		if err := db.Set(ctx, "versioned", []byte(v), 0); err != nil {
			t.Fatalf("Set %s failed: %v", v, err)
		}
	}

	value, err := db.Get(ctx, "versioned")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "v3" {
		t.Errorf("Expected %q, got %q", "v3", value)
	}
}
