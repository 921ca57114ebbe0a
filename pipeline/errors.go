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


package pipeline

import "errors"

var (
	// ErrGeneratorRequired indicates a nil generation client was supplied.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrResolverRequired indicates a nil policy resolver was supplied.
	ErrResolverRequired = errors.New("policy resolver is required")

	// ErrRunNotFound indicates no checkpoint exists for the thread.
	ErrRunNotFound = errors.New("run not found")

	// ErrClassification indicates the classifier's generation call failed.
	ErrClassification = errors.New("classification failed")

	// ErrDraftGeneration indicates the drafter's generation call failed.
	ErrDraftGeneration = errors.New("draft generation failed")
)
