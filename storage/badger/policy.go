package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/storage"
)

// PolicyRepository implements storage.PolicyRepository for BadgerDB.
type PolicyRepository struct {
	backend *Backend
}

var _ storage.PolicyRepository = (*PolicyRepository)(nil)

// NewPolicyRepository creates a BadgerDB-backed policy repository.
func NewPolicyRepository(backend *Backend) storage.PolicyRepository {
	return &PolicyRepository{
		backend: backend,
	}
}

// Close releases resources. The shared backend is closed by its owner.
func (r *PolicyRepository) Close() error {
	return nil
}

// PutPolicy validates and stores a policy, replacing any existing one.
func (r *PolicyRepository) PutPolicy(ctx context.Context, policy *core.WorkspacePolicy) (*core.WorkspacePolicy, error) {
	if err := core.ValidatePolicy(policy); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePolicyKey(policy.WorkspaceID)

		// Preserve the original creation time across rewrites
		old, err := readPolicy(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old != nil {
			policy.CreatedAt = old.CreatedAt
		} else if policy.CreatedAt.IsZero() {
			policy.CreatedAt = now
		}
		policy.UpdatedAt = now

		value, err := storage.MarshalPolicy(policy)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return policy, nil
}

// GetPolicy retrieves the policy for a workspace.
func (r *PolicyRepository) GetPolicy(ctx context.Context, workspaceID string) (*core.WorkspacePolicy, error) {
	var result *core.WorkspacePolicy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePolicyKey(workspaceID)
		var err error
		result, err = readPolicy(tx, key)
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

// ListPolicies retrieves all stored policies ordered by workspace ID.
func (r *PolicyRepository) ListPolicies(ctx context.Context) ([]*core.WorkspacePolicy, error) {
	var results []*core.WorkspacePolicy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(policyPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var policy *core.WorkspacePolicy
			err := iter.Item().Value(func(val []byte) error {
				var err error
				policy, err = storage.UnmarshalPolicy(val)
				return err
			})
			if err != nil {
				return err
			}
			if policy != nil {
				results = append(results, policy)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// readPolicy reads a policy from the transaction. Returns nil, nil when missing.
func readPolicy(tx *badger.Txn, key []byte) (*core.WorkspacePolicy, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var policy *core.WorkspacePolicy
	err = item.Value(func(val []byte) error {
		var err error
		policy, err = storage.UnmarshalPolicy(val)
		return err
	})
	return policy, err
}
