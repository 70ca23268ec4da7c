package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
)

type memoryEntry struct {
	flag      engine.Flag
	expiresAt time.Time
}

// MemoryStore is an in-process SnapshotStore. It is the default when no
// Redis address is configured, and the store the service tests run
// against.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func snapshotKey(tenantID int64, flagKey string) string {
	return fmt.Sprintf("%d:%s", tenantID, flagKey)
}

func (s *MemoryStore) Get(ctx context.Context, tenantID int64, flagKey string) (*engine.Flag, bool, error) {
	_ = ctx

	s.mu.RLock()
	entry, ok := s.entries[snapshotKey(tenantID, flagKey)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.ttl > 0 && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, snapshotKey(tenantID, flagKey))
		s.mu.Unlock()
		return nil, false, nil
	}

	flag := entry.flag
	return &flag, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, tenantID int64, flagKey string, flag *engine.Flag) error {
	_ = ctx
	if flag == nil {
		return nil
	}

	s.mu.Lock()
	s.entries[snapshotKey(tenantID, flagKey)] = memoryEntry{
		flag:      *flag,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, tenantID int64, flagKey string) error {
	_ = ctx

	s.mu.Lock()
	delete(s.entries, snapshotKey(tenantID, flagKey))
	s.mu.Unlock()
	return nil
}
