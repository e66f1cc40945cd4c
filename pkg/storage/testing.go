package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// FailingStorage is a Storage stub whose operations always fail. Tests use
// it to exercise degraded-persistence paths.
type FailingStorage struct {
	Err error
}

func (f *FailingStorage) failure() error {
	if f.Err != nil {
		return f.Err
	}
	return &StorageUnavailableError{Cause: errors.New("storage down")}
}

func (f *FailingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, f.failure()
}

func (f *FailingStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return f.failure()
}

func (f *FailingStorage) Delete(ctx context.Context, key string) error {
	return f.failure()
}

func (f *FailingStorage) Ping(ctx context.Context) error {
	return f.failure()
}

func (f *FailingStorage) Close() error {
	return nil
}

// StorageTestSuite defines a test suite that can be run against any Storage implementation.
type StorageTestSuite struct {
	NewStorage func(t *testing.T) Storage

	// SupportsTTL disables the expiry tests for backends without TTL support.
	SupportsTTL bool
}

// RunAllTests runs all storage tests against the provided storage implementation.
func (s *StorageTestSuite) RunAllTests(t *testing.T) {
	t.Run("SetAndGet", s.TestSetAndGet)
	t.Run("GetMissing", s.TestGetMissing)
	t.Run("Overwrite", s.TestOverwrite)
	t.Run("DeleteIdempotent", s.TestDeleteIdempotent)
	t.Run("EmptyValue", s.TestEmptyValue)
	t.Run("BinaryValue", s.TestBinaryValue)
	t.Run("ConcurrentAccess", s.TestConcurrentAccess)
	t.Run("Ping", s.TestPing)
	if s.SupportsTTL {
		t.Run("TTLExpiry", s.TestTTLExpiry)
		t.Run("ZeroTTLNeverExpires", s.TestZeroTTLNeverExpires)
	}
}

// TestSetAndGet tests a basic round trip.
func (s *StorageTestSuite) TestSetAndGet(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	err := store.Set(ctx, "session_activity:bot-1:thread-1", []byte(`[{"type":"message"}]`), 0)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := store.Get(ctx, "session_activity:bot-1:thread-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(value) != `[{"type":"message"}]` {
		t.Errorf("expected stored value, got %q", value)
	}
}

// TestGetMissing tests that Get on a missing key returns a typed NotFoundError.
func (s *StorageTestSuite) TestGetMissing(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	_, err := store.Get(ctx, "missing-key")
	if err == nil {
		t.Fatal("expected error when getting missing key")
	}
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %T: %v", err, err)
	}
}

// TestOverwrite tests that the last write wins.
func (s *StorageTestSuite) TestOverwrite(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.Set(ctx, "key", []byte("first"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "key", []byte("second"), 0); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}

	value, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "second" {
		t.Errorf("expected %q, got %q", "second", value)
	}
}

// TestDeleteIdempotent tests that Delete removes keys and tolerates missing keys.
func (s *StorageTestSuite) TestDeleteIdempotent(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := store.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := store.Get(ctx, "key")
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}

	// Deleting again must succeed.
	if err := store.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete (missing key) failed: %v", err)
	}
	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete (never existed) failed: %v", err)
	}
}

// TestEmptyValue tests that an empty value round trips without becoming not-found.
func (s *StorageTestSuite) TestEmptyValue(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.Set(ctx, "empty", []byte{}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := store.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(value) != 0 {
		t.Errorf("expected empty value, got %q", value)
	}
}

// TestBinaryValue tests that arbitrary bytes survive a round trip.
func (s *StorageTestSuite) TestBinaryValue(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	payload := []byte{0x00, 0xff, 0x10, 0x00, 0x7f, 0x80, '\n', '\t'}
	if err := store.Set(ctx, "binary", payload, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := store.Get(ctx, "binary")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(value, payload) {
		t.Errorf("expected %v, got %v", payload, value)
	}
}

// TestConcurrentAccess tests concurrent read/write operations on distinct keys.
func (s *StorageTestSuite) TestConcurrentAccess(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	errors := make(chan error, 20)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			key := fmt.Sprintf("concurrent-%d", idx)
			value := []byte(fmt.Sprintf("value-%d", idx))

			if err := store.Set(ctx, key, value, 0); err != nil {
				errors <- err
				return
			}

			got, err := store.Get(ctx, key)
			if err != nil {
				errors <- err
				return
			}
			if !bytes.Equal(got, value) {
				errors <- fmt.Errorf("key %s: expected %q, got %q", key, value, got)
			}
		}(i)
	}

	wg.Wait()
	close(errors)

	for err := range errors {
		t.Errorf("concurrent operation failed: %v", err)
	}
}

// TestPing tests that a healthy backend responds to Ping.
func (s *StorageTestSuite) TestPing(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

// TestTTLExpiry tests that values disappear after their TTL lapses.
// Backends may track expiry at second granularity, so this test polls.
func (s *StorageTestSuite) TestTTLExpiry(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.Set(ctx, "expiring", []byte("soon gone"), 2*time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Must be readable right away.
	if _, err := store.Get(ctx, "expiring"); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, err := store.Get(ctx, "expiring")
		if IsNotFound(err) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Error("value did not expire within deadline")
}

// TestZeroTTLNeverExpires tests that a zero TTL means no expiry.
func (s *StorageTestSuite) TestZeroTTLNeverExpires(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.Set(ctx, "persistent", []byte("still here"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	value, err := store.Get(ctx, "persistent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "still here" {
		t.Errorf("expected %q, got %q", "still here", value)
	}
}
