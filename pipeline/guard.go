package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/draftkit/core"
)

// Route is the terminal decision of a pipeline run.
type Route string

const (
	// RouteHalt means the draft is blocked pending human remediation.
	RouteHalt Route = "halt"
	// RouteContinue means the draft is ready for review.
	RouteContinue Route = "continue"
)

// PolicyGuard screens the generated draft against the workspace
// blocklist. Deterministic and side-effect-free; every matching phrase
// is recorded, not just the first.
type PolicyGuard struct{}

// NewPolicyGuard creates the policy guard stage.
func NewPolicyGuard() *PolicyGuard {
	return &PolicyGuard{}
}

// Run scans the draft and records one violation per matching phrase.
func (g *PolicyGuard) Run(ctx context.Context, state core.DraftState) (core.DraftState, error) {
	state.Violations = ScanBlocklist(state.DraftHTML, state.Blocklist)
	return state, nil
}

// ScanBlocklist performs a case-insensitive substring match of each
// non-empty blocklist phrase against the draft.
func ScanBlocklist(draftHTML string, blocklist []string) []string {
	violations := []string{}
	draftLower := strings.ToLower(draftHTML)

	for _, phrase := range blocklist {
		trimmed := strings.TrimSpace(phrase)
		if trimmed == "" {
			continue
		}
		if strings.Contains(draftLower, strings.ToLower(trimmed)) {
			violations = append(violations, fmt.Sprintf("Blocklisted phrase detected: '%s'", trimmed))
		}
	}

	return violations
}

// DecideRoute maps the guard outcome to the terminal routing decision.
func DecideRoute(state core.DraftState) Route {
	if state.Blocked() {
		return RouteHalt
	}
	return RouteContinue
}
