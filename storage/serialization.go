package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/draftkit/core"
)

// Persisted values cross the HTTP API as JSON, so the same encoding is
// used for storage to keep one codec end to end.

// MarshalPolicy serializes a workspace policy for storage.
func MarshalPolicy(policy *core.WorkspacePolicy) ([]byte, error) {
	return marshal(policy)
}

// UnmarshalPolicy deserializes a workspace policy from storage.
func UnmarshalPolicy(data []byte) (*core.WorkspacePolicy, error) {
	return unmarshal[core.WorkspacePolicy](data)
}

// MarshalReviewRecord serializes a review record for storage.
func MarshalReviewRecord(record *core.ReviewRecord) ([]byte, error) {
	return marshal(record)
}

// UnmarshalReviewRecord deserializes a review record from storage.
func UnmarshalReviewRecord(data []byte) (*core.ReviewRecord, error) {
	return unmarshal[core.ReviewRecord](data)
}

// MarshalCheckpoint serializes a run checkpoint for storage.
func MarshalCheckpoint(checkpoint *core.RunCheckpoint) ([]byte, error) {
	return marshal(checkpoint)
}

// UnmarshalCheckpoint deserializes a run checkpoint from storage.
func UnmarshalCheckpoint(data []byte) (*core.RunCheckpoint, error) {
	return unmarshal[core.RunCheckpoint](data)
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &v, nil
}
