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


package core

import "fmt"

const (
	// MaxBlocklistEntries caps the number of phrases in a workspace blocklist.
	MaxBlocklistEntries = 100
	// MaxBlocklistPhraseLen caps the length of a single blocklist phrase.
	MaxBlocklistPhraseLen = 200
	// MinToneLevel is the most formal end of the tone scale.
	MinToneLevel = 1
	// MaxToneLevel is the most casual end of the tone scale.
	MaxToneLevel = 5
)

// ValidatePolicy validates a WorkspacePolicy according to domain rules.
//
// Validation rules:
//   - ToneLevel must be within the 1-5 scale
//   - Blocklist must hold at most MaxBlocklistEntries phrases
//   - Each blocklist phrase must be at most MaxBlocklistPhraseLen characters
//
// NOT validated:
//   - ApprovalThreshold (reserved, never read by enforcement)
//   - StyleHints (free-form brand voice hints)
func ValidatePolicy(policy *WorkspacePolicy) error {
	if policy == nil {
		return fmt.Errorf("%w: policy is nil", ErrInvalidPolicy)
	}

	if policy.ToneLevel < MinToneLevel || policy.ToneLevel > MaxToneLevel {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidPolicy, ErrInvalidToneLevel, policy.ToneLevel)
	}

	if len(policy.Blocklist) > MaxBlocklistEntries {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidPolicy, ErrBlocklistTooLarge, len(policy.Blocklist))
	}

	for _, phrase := range policy.Blocklist {
		if len(phrase) > MaxBlocklistPhraseLen {
			return fmt.Errorf("%w: %w (%q...)", ErrInvalidPolicy, ErrBlocklistEntryTooLong, truncate(phrase, 50))
		}
	}

	return nil
}

// ValidateReviewRecord validates a ReviewRecord according to domain rules.
//
// Validation rules:
//   - UserID and ThreadID must not be empty
//   - DraftHTML must not be empty
//   - Status must be a known ReviewStatus
func ValidateReviewRecord(record *ReviewRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidReviewRecord)
	}

	if record.UserID == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidReviewRecord)
	}

	if record.ThreadID == "" {
		return fmt.Errorf("%w: thread id cannot be empty", ErrInvalidReviewRecord)
	}

	if record.DraftHTML == "" {
		return fmt.Errorf("%w: %w", ErrInvalidReviewRecord, ErrEmptyDraft)
	}

	if err := ValidateReviewStatus(record.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReviewRecord, err)
	}

	return nil
}

// ValidateReviewStatus validates that a ReviewStatus has a known value.
func ValidateReviewStatus(status ReviewStatus) error {
	switch status {
	case ReviewPending, ReviewApproved, ReviewRejected, ReviewEditing:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidReviewStatus, status)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
