package core

import (
	"time"
)

// Intent is the classified purpose category of an inbound message.
type Intent string

const (
	// IntentSupport covers technical support and troubleshooting requests.
	IntentSupport Intent = "support"
	// IntentCS covers customer service, billing, and account questions.
	IntentCS Intent = "cs"
	// IntentExec covers executive, partnership, and press inquiries.
	IntentExec Intent = "exec"
	// IntentOther is the fallback for uncategorized messages.
	IntentOther Intent = "other"
)

// ParseIntent maps a raw classifier label to a known Intent.
// Unknown labels fall back to IntentOther.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentSupport, IntentCS, IntentExec, IntentOther:
		return Intent(s)
	default:
		return IntentOther
	}
}

// DraftState is the record threaded through the draft generation pipeline.
// Stages receive it by value and return an updated copy, so every stage's
// inputs are the previous stage's committed outputs.
type DraftState struct {
	// Input
	MessageSummary string `json:"message_summary"`
	WorkspaceID    string `json:"workspace_id,omitempty"` // empty means no workspace context

	// Populated by stages
	Intent          Intent   `json:"intent,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	ContextSnippets []string `json:"context_snippets,omitempty"`
	DraftHTML       string   `json:"draft_html,omitempty"`
	Violations      []string `json:"violations"`

	// Configuration carried alongside, never mutated by stages
	ToneLevel  int               `json:"tone_level"`
	StyleHints map[string]string `json:"style_hints,omitempty"`
	Blocklist  []string          `json:"blocklist,omitempty"`
}

// Blocked reports whether the draft was judged non-compliant.
func (s DraftState) Blocked() bool {
	return len(s.Violations) > 0
}

// WorkspacePolicy holds per-workspace draft generation settings.
type WorkspacePolicy struct {
	WorkspaceID string            `json:"workspace_id"`
	ToneLevel   int               `json:"tone_level"` // 1=very formal .. 5=very casual
	StyleHints  map[string]string `json:"style_hints,omitempty"`
	Blocklist   []string          `json:"blocklist"`

	// ApprovalThreshold is persisted and surfaced but not read by any
	// enforcement path. Reserved for auto-approval logic.
	ApprovalThreshold float64 `json:"approval_threshold,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewStatus identifies the human disposition of a generated draft.
type ReviewStatus string

const (
	// ReviewPending is the initial status at creation.
	ReviewPending ReviewStatus = "pending"
	// ReviewApproved is terminal.
	ReviewApproved ReviewStatus = "approved"
	// ReviewRejected is terminal.
	ReviewRejected ReviewStatus = "rejected"
	// ReviewEditing indicates the reviewer replaced the draft content.
	ReviewEditing ReviewStatus = "editing"
)

// ReviewRecord tracks a generated draft through the human review workflow.
type ReviewRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email,omitempty"`

	ThreadID    string `json:"thread_id"`
	RunID       string `json:"run_id,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`

	MessageSummary string  `json:"message_summary"`
	Intent         Intent  `json:"intent,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`

	DraftHTML    string   `json:"draft_html"`
	DraftVersion int      `json:"draft_version"` // starts at 1, +1 per edit
	Violations   []string `json:"violations"`

	Status    ReviewStatus `json:"status"`
	Feedback  string       `json:"feedback,omitempty"`
	EditNotes string       `json:"edit_notes,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// Terminal reports whether no further review transitions are defined.
func (r *ReviewRecord) Terminal() bool {
	return r.Status == ReviewApproved || r.Status == ReviewRejected
}

// Stage names recorded in run checkpoints, in pipeline order.
const (
	StageClassify = "classify"
	StageContext  = "context"
	StageDraft    = "draft"
	StageGuard    = "guard"
	StageDone     = "done"
)

// RunStatus is the derived state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunCheckpoint is the persisted progress record for a pipeline run,
// keyed by thread so a reconnecting caller can recover the latest state.
type RunCheckpoint struct {
	RunID    string `json:"run_id"`
	ThreadID string `json:"thread_id"`

	Stage string     `json:"stage"`
	State DraftState `json:"state"`
	Error string     `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status derives the run state from the checkpoint contents. A blocked
// draft counts as failed; a clean draft counts as completed.
func (c *RunCheckpoint) Status() RunStatus {
	switch {
	case c.Error != "" || c.State.Blocked():
		return RunFailed
	case c.State.DraftHTML != "":
		return RunCompleted
	default:
		return RunRunning
	}
}
