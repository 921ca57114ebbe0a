// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/storage"
)

// CheckpointStore implements storage.CheckpointStore for BadgerDB.
type CheckpointStore struct {
	backend *Backend
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a BadgerDB-backed checkpoint store.
func NewCheckpointStore(backend *Backend) storage.CheckpointStore {
	return &CheckpointStore{
		backend: backend,
	}
}

// Close releases resources. The shared backend is closed by its owner.
func (s *CheckpointStore) Close() error {
	return nil
}

// SaveCheckpoint persists the latest checkpoint for a thread.
func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *core.RunCheckpoint) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint.UpdatedAt = time.Now().UTC()
		if checkpoint.CreatedAt.IsZero() {
			checkpoint.CreatedAt = checkpoint.UpdatedAt
		}
		key := makeCheckpointKey(checkpoint.ThreadID)
		value, err := storage.MarshalCheckpoint(checkpoint)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint retrieves the checkpoint for a thread.
func (s *CheckpointStore) LoadCheckpoint(ctx context.Context, threadID string) (*core.RunCheckpoint, error) {
	var checkpoint *core.RunCheckpoint
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCheckpointKey(threadID)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			checkpoint, unmarshalErr = storage.UnmarshalCheckpoint(val)
			return unmarshalErr
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return checkpoint, nil
}
