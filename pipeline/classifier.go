package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/draftkit/ai"
	"github.com/poiesic/draftkit/core"
)

const classifierSystemPrompt = "You classify inbound email summaries. Respond with JSON only."

const classifierPromptTemplate = `Classify the intent of this email summary into one of these categories:
- support: Technical support or troubleshooting
- cs: Customer service, billing, or account questions
- exec: Executive/partnership/press inquiry
- other: General inquiries or uncategorized

Email summary: %s

Respond with JSON only:
{"intent": "<category>", "confidence": <0.0-1.0>}`

// classification matches the JSON shape expected from the model.
// Confidence is a pointer so a missing field is distinguishable from zero.
type classification struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
}

// Classifier determines the intent category of an inbound message.
//
// Parsing failures never abort a run: malformed or out-of-set output
// degrades to IntentOther with confidence 0.5. A hard failure of the
// generation call itself does propagate.
type Classifier struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewClassifier creates a classifier stage backed by the given generator.
func NewClassifier(generator ai.Generator) *Classifier {
	return &Classifier{
		generator: generator,
		logger:    slog.Default().With("component", "classifier"),
	}
}

// Run classifies the message summary and returns the updated state.
func (c *Classifier) Run(ctx context.Context, state core.DraftState) (core.DraftState, error) {
	prompt := ai.Prompt{
		System:      classifierSystemPrompt,
		User:        fmt.Sprintf(classifierPromptTemplate, state.MessageSummary),
		JSONMode:    true,
		Temperature: 0.0,
	}

	response, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return state, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	intent, confidence := c.parse(response)
	state.Intent = intent
	state.Confidence = confidence
	return state, nil
}

// parse extracts the intent and confidence from the model output,
// degrading to the other/0.5 default on any malformed response.
func (c *Classifier) parse(response string) (core.Intent, float64) {
	text := stripCodeFences(response)

	var result classification
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		c.logger.Warn("unparseable classifier response, using fallback",
			"response", truncateForLog(text), "err", err)
		return core.IntentOther, 0.5
	}

	if core.ParseIntent(result.Intent) != core.Intent(result.Intent) {
		c.logger.Warn("classifier returned unknown intent, using fallback",
			"intent", result.Intent)
		return core.IntentOther, 0.5
	}

	confidence := 0.5
	if result.Confidence != nil {
		confidence = *result.Confidence
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return core.Intent(result.Intent), confidence
}

// stripCodeFences removes markdown code fences some models wrap around
// their output despite instructions.
func stripCodeFences(s string) string {
	text := strings.TrimSpace(s)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```html")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func truncateForLog(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}
