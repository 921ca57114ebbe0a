package storage

import (
	"context"
	"sync"
	"time"

	"github.com/poiesic/draftkit/core"
)

// memoryCheckpointStore is a map-backed CheckpointStore. It is the
// fallback when a durable store cannot be opened; checkpoints do not
// survive process restarts.
type memoryCheckpointStore struct {
	mu       sync.RWMutex
	byThread map[string]*core.RunCheckpoint
	closed   bool
}

var _ CheckpointStore = (*memoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an in-process CheckpointStore.
func NewMemoryCheckpointStore() CheckpointStore {
	return &memoryCheckpointStore{
		byThread: make(map[string]*core.RunCheckpoint),
	}
}

func (s *memoryCheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *core.RunCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageClosed
	}
	cp := *checkpoint
	cp.UpdatedAt = time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	s.byThread[cp.ThreadID] = &cp
	checkpoint.CreatedAt = cp.CreatedAt
	checkpoint.UpdatedAt = cp.UpdatedAt
	return nil
}

func (s *memoryCheckpointStore) LoadCheckpoint(ctx context.Context, threadID string) (*core.RunCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStorageClosed
	}
	cp, ok := s.byThread[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *cp
	return &out, nil
}

func (s *memoryCheckpointStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
