package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/storage"
)

// ReviewRepository implements storage.ReviewRepository for BadgerDB.
type ReviewRepository struct {
	backend *Backend
}

var _ storage.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a BadgerDB-backed review repository.
func NewReviewRepository(backend *Backend) storage.ReviewRepository {
	return &ReviewRepository{
		backend: backend,
	}
}

// Close releases resources. The shared backend is closed by its owner.
func (r *ReviewRepository) Close() error {
	return nil
}

// AddReview stores a new review record with owner and status indices.
func (r *ReviewRepository) AddReview(ctx context.Context, record *core.ReviewRecord) (*core.ReviewRecord, error) {
	if err := core.ValidateReviewRecord(record); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		key := makeReviewKey(record.ID)

		existing, err := readReview(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrDuplicateKey
		}

		record.CreatedAt = time.Now().UTC()
		record.UpdatedAt = record.CreatedAt

		value, err := storage.MarshalReviewRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		// Owner index
		userKey := makeReviewUserKey(record.UserID, record.ID)
		if err := tx.Set(userKey, []byte(record.ID)); err != nil {
			return err
		}

		// Status index
		statusKey := makeReviewStatusKey(string(record.Status), record.ID)
		if err := tx.Set(statusKey, []byte(record.ID)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateReview replaces an existing record, moving the status index entry
// if the status changed.
func (r *ReviewRepository) UpdateReview(ctx context.Context, record *core.ReviewRecord) (*core.ReviewRecord, error) {
	if err := core.ValidateReviewRecord(record); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeReviewKey(record.ID)

		old, err := readReview(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		record.CreatedAt = old.CreatedAt
		record.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalReviewRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		if old.Status != record.Status {
			oldStatusKey := makeReviewStatusKey(string(old.Status), record.ID)
			if err := tx.Delete(oldStatusKey); err != nil {
				return err
			}
			newStatusKey := makeReviewStatusKey(string(record.Status), record.ID)
			if err := tx.Set(newStatusKey, []byte(record.ID)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetReview retrieves a single review record by ID.
func (r *ReviewRepository) GetReview(ctx context.Context, id string) (*core.ReviewRecord, error) {
	var result *core.ReviewRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeReviewKey(id)
		var err error
		result, err = readReview(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListReviewsByUser retrieves records owned by a user, most recent first.
func (r *ReviewRepository) ListReviewsByUser(ctx context.Context, userID string, limit int) ([]*core.ReviewRecord, error) {
	return r.listByIndex(makePartialReviewUserKey(userID), limit)
}

// ListReviewsByStatus retrieves records in a status, most recent first.
func (r *ReviewRepository) ListReviewsByStatus(ctx context.Context, status core.ReviewStatus, limit int) ([]*core.ReviewRecord, error) {
	return r.listByIndex(makePartialReviewStatusKey(string(status)), limit)
}

// listByIndex scans an index prefix, resolves the referenced records, and
// returns them sorted by creation time descending.
func (r *ReviewRepository) listByIndex(prefix []byte, limit int) ([]*core.ReviewRecord, error) {
	var results []*core.ReviewRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id string
			err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			})
			if err != nil {
				return err
			}

			record, err := readReview(tx, makeReviewKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.ReviewRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// readReview reads a record from the transaction. Returns nil, nil when missing.
func readReview(tx *badger.Txn, key []byte) (*core.ReviewRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ReviewRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalReviewRecord(val)
		return err
	})
	return record, err
}
