package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

const (
	classifyTranscriptRunes = 500
	verifyTranscriptRunes   = 300

	untitled = "untitled"

	// verifyPenalty is subtracted from the initial confidence when verification fails,
	// with verifyFloor as the lower bound.
	verifyPenalty = 0.2
	verifyFloor   = 0.3
)

// DegradedAssessment is returned when initial classification fails.
var DegradedAssessment = CuisineAssessment{Label: CuisineOther, Confidence: 0, Rationale: "classification failed"}

// Classifier assigns a cuisine label and re-checks it. Neither call returns an error.
type Classifier struct {
	llm Completer
}

// NewClassifier returns a Classifier backed by llm.
func NewClassifier(llm Completer) *Classifier {
	return &Classifier{llm: llm}
}

// Classify labels the dish from the first 500 runes of transcript, the ingredients and title.
// Any failure yields DegradedAssessment.
func (c *Classifier) Classify(ctx context.Context, transcript string, ingredients []string, title string) CuisineAssessment {
	if strings.TrimSpace(title) == "" {
		title = untitled
	}
	prompt := fmt.Sprintf(classifyPrompt,
		engine.TruncateRunes(transcript, classifyTranscriptRunes, ""),
		strings.Join(ingredients, ", "),
		title,
		labelList(),
	)

	reply, err := completeStructured[cuisineReply](ctx, c.llm, systemPrompt, prompt, nil)
	if err != nil {
		engine.IncrClassificationDegraded()
		slog.Warn("classify: degraded to Other", slog.Any("error", err))
		return DegradedAssessment
	}
	return reply.assessment()
}

// Verify re-checks initial as a hypothesis. The result never carries more
// confidence than initial. On failure it keeps initial's label with a penalized confidence.
func (c *Classifier) Verify(ctx context.Context, initial CuisineAssessment, transcript string, ingredients []string) CuisineAssessment {
	prompt := fmt.Sprintf(verifyPrompt,
		initial.Label,
		initial.Confidence,
		initial.Rationale,
		strings.Join(ingredients, ", "),
		engine.TruncateRunes(transcript, verifyTranscriptRunes, ""),
		labelList(),
	)

	reply, err := completeStructured[cuisineReply](ctx, c.llm, systemPrompt, prompt, nil)
	if err != nil {
		engine.IncrClassificationDegraded()
		slog.Warn("verify: keeping initial assessment", slog.Any("error", err))
		return verificationFallback(initial)
	}

	verified := reply.assessment()
	return newAssessment(
		verified.Label,
		math.Min(verified.Confidence, clamp01(initial.Confidence)),
		"verification: "+verified.Rationale,
	)
}

// verificationFallback penalizes initial by verifyPenalty, floored at verifyFloor
// but never above initial itself.
func verificationFallback(initial CuisineAssessment) CuisineAssessment {
	base := clamp01(initial.Confidence)
	conf := math.Min(base, math.Max(verifyFloor, base-verifyPenalty))
	return newAssessment(initial.Label, conf, "verification failed, original: "+initial.Rationale)
}
