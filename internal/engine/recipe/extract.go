package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

// ErrEmptyTranscript is returned when extraction is asked to read nothing.
var ErrEmptyTranscript = errors.New("empty transcript")

// maxTranscriptRunes bounds the extraction prompt for very long videos.
const maxTranscriptRunes = 20000

// Extractor pulls candidate ingredient names out of a transcript.
type Extractor struct {
	llm Completer
}

// NewExtractor returns an Extractor backed by llm.
func NewExtractor(llm Completer) *Extractor {
	return &Extractor{llm: llm}
}

// Extract returns the deduplicated ingredient names in transcript order.
// Any malformed reply fails the stage; no partial list is returned.
func (e *Extractor) Extract(ctx context.Context, transcript string) ([]string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}

	prompt := fmt.Sprintf(extractionPrompt, engine.TruncateRunes(transcript, maxTranscriptRunes, ""))
	reply, err := completeStructured(ctx, e.llm, systemPrompt, prompt, validateExtraction)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	return dedupeNames(*reply.Ingredients), nil
}
