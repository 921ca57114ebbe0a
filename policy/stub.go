package policy

import "github.com/poiesic/draftkit/core"

// stubPolicies is the built-in last-resort table. The first entry is the
// ultimate default returned for any workspace not listed.
var stubPolicies = []core.WorkspacePolicy{
	{
		WorkspaceID:       "default",
		ToneLevel:         4,
		Blocklist:         []string{"free trial", "money back guarantee", "limited time offer"},
		ApprovalThreshold: 0.85,
	},
	{
		WorkspaceID:       "ws-test",
		ToneLevel:         2,
		Blocklist:         []string{"click here", "act now", "special offer"},
		ApprovalThreshold: 0.90,
	},
}

// StubPolicy returns the built-in policy for a workspace. Unlisted
// workspaces get a copy of the first table entry with the requested
// workspace ID stamped on it.
func StubPolicy(workspaceID string) *core.WorkspacePolicy {
	for _, p := range stubPolicies {
		if p.WorkspaceID == workspaceID {
			out := clonePolicy(p)
			return &out
		}
	}
	out := clonePolicy(stubPolicies[0])
	if workspaceID != "" {
		out.WorkspaceID = workspaceID
	}
	return &out
}

func clonePolicy(p core.WorkspacePolicy) core.WorkspacePolicy {
	out := p
	out.Blocklist = append([]string(nil), p.Blocklist...)
	if p.StyleHints != nil {
		out.StyleHints = make(map[string]string, len(p.StyleHints))
		for k, v := range p.StyleHints {
			out.StyleHints[k] = v
		}
	}
	return out
}
