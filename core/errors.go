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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPolicy indicates a WorkspacePolicy failed validation.
	ErrInvalidPolicy = errors.New("invalid workspace policy")

	// ErrInvalidReviewRecord indicates a ReviewRecord failed validation.
	ErrInvalidReviewRecord = errors.New("invalid review record")

	// ErrEmptySummary indicates the message summary is empty.
	ErrEmptySummary = errors.New("message summary cannot be empty")

	// ErrEmptyDraft indicates the draft content is empty.
	ErrEmptyDraft = errors.New("draft content cannot be empty")

	// ErrBlocklistTooLarge indicates the blocklist exceeds the entry cap.
	ErrBlocklistTooLarge = errors.New("blocklist cannot exceed 100 entries")

	// ErrBlocklistEntryTooLong indicates a blocklist phrase exceeds the length cap.
	ErrBlocklistEntryTooLong = errors.New("blocklist phrase cannot exceed 200 characters")

	// ErrInvalidToneLevel indicates a tone level outside the 1-5 scale.
	ErrInvalidToneLevel = errors.New("tone level must be between 1 and 5")

	// ErrInvalidReviewStatus indicates an unknown ReviewStatus value.
	ErrInvalidReviewStatus = errors.New("invalid review status")
)
