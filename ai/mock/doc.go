// Package mock provides test doubles for the ai package interfaces.
//
// Mocks default to deterministic behavior (hash-derived vectors, canned
// completions) and support behavior injection via exported function fields,
// so tests can exercise failure paths without external AI services.
package mock
