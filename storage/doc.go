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


// Package storage provides the storage abstraction layer for draftkit.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. It allows for different storage backends (BadgerDB, in-memory,
// etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Backend packages follow a "return interface" pattern for public constructors
// so consumers never couple to a concrete store:
//
//	repo, err := badger.NewPolicyRepository(backend)  // returns storage.PolicyRepository
//
// # Repositories
//
// Three persisted concerns exist:
//
//   - CheckpointStore: latest pipeline run state per thread, so a caller
//     can poll or resume a run after a disconnect.
//   - PolicyRepository: per-workspace draft settings (tone, style hints,
//     blocklist).
//   - ReviewRepository: generated drafts moving through human review,
//     with secondary indexes by owner and by status.
//
// Serialization is JSON throughout. The same record shapes cross the HTTP
// API, so a single codec covers both surfaces.
package storage
