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


// Package pipeline implements the draft generation workflow.
//
// Four stages run in strict order over a shared state record:
//
//	classifier -> context builder -> drafter -> policy guard
//
// Each stage receives the state by value and returns an updated copy, so
// a stage's inputs are always the previous stage's committed outputs.
// The classifier and context builder degrade on soft failures (bad model
// output, unreachable index); the drafter propagates failures because a
// run must never fabricate a draft.
//
// The orchestrator checkpoints the state under the caller's thread
// identifier after every stage, which makes runs inspectable while in
// flight and recoverable afterward. The terminal routing decision is
// "halt" when the policy guard recorded violations and "continue"
// otherwise; both end the automated workflow.
package pipeline
