package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/draftkit/ai"
	"github.com/poiesic/draftkit/core"
)

// toneInstructions maps the 1-5 tone scale to generation guidance.
// 1 is the most formal end, 5 the most casual.
var toneInstructions = map[int]string{
	1: "Use strictly formal, ceremonious language. No contractions. Be precise, deferential, and impeccably polite.",
	2: "Use professional, formal language. Avoid contractions. Be respectful and precise.",
	3: "Use warm, professional language. Contractions are fine. Be helpful and approachable.",
	4: "Use friendly, conversational language. Contractions and a light personal touch are welcome.",
	5: "Use conversational, relaxed language. Be personable and authentic.",
}

// neutralToneLevel is the fallback for missing or out-of-range levels.
const neutralToneLevel = 3

const drafterSystemPrompt = "You write HTML email replies for customer-facing teams."

// Drafter generates the HTML reply body.
type Drafter struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewDrafter creates a drafter stage backed by the given generator.
func NewDrafter(generator ai.Generator) *Drafter {
	return &Drafter{
		generator: generator,
		logger:    slog.Default().With("component", "drafter"),
	}
}

// Run generates the draft and returns the updated state. A generation
// failure aborts the run; the pipeline never fabricates a draft.
func (d *Drafter) Run(ctx context.Context, state core.DraftState) (core.DraftState, error) {
	prompt := ai.Prompt{
		System:      drafterSystemPrompt,
		User:        buildDraftPrompt(state),
		Temperature: 0.7,
	}

	response, err := d.generator.Generate(ctx, prompt)
	if err != nil {
		return state, fmt.Errorf("%w: %w", ErrDraftGeneration, err)
	}

	state.DraftHTML = stripCodeFences(response)
	return state, nil
}

// ToneInstruction returns the generation guidance for a tone level,
// falling back to the neutral entry when the level is out of range.
func ToneInstruction(level int) string {
	if instruction, ok := toneInstructions[level]; ok {
		return instruction
	}
	return toneInstructions[neutralToneLevel]
}

func buildDraftPrompt(state core.DraftState) string {
	var b strings.Builder

	b.WriteString("Generate an HTML email response for this customer inquiry.\n\n")
	fmt.Fprintf(&b, "Intent: %s\n", state.Intent)
	fmt.Fprintf(&b, "Tone: %s\n", ToneInstruction(state.ToneLevel))

	if len(state.StyleHints) > 0 {
		b.WriteString("Brand voice:\n")
		keys := make([]string, 0, len(state.StyleHints))
		for k := range state.StyleHints {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, state.StyleHints[k])
		}
	}

	fmt.Fprintf(&b, "Message summary: %s\n", state.MessageSummary)

	if len(state.ContextSnippets) > 0 {
		b.WriteString("\nRelevant context:\n")
		for _, snippet := range state.ContextSnippets {
			fmt.Fprintf(&b, "- %s\n", snippet)
		}
	}

	b.WriteString(`
Requirements:
- Return valid HTML (use <p>, <br>, <strong>, <em>, etc.)
- Be concise but complete
- Match the requested tone
- Address the customer's needs based on the intent
- Do NOT include any code blocks or markdown - just raw HTML

Generate the HTML email body:`)

	return b.String()
}
