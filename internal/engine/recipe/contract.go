package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

// ErrMalformedOutput means the model reply did not match the stage's output contract.
var ErrMalformedOutput = errors.New("malformed model output")

// Completer is the language-model capability every stage is built on.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// completeStructured runs one completion and decodes the reply into T.
// Decode and validation failures are reported as ErrMalformedOutput.
func completeStructured[T any](ctx context.Context, llm Completer, system, prompt string, validate func(*T) error) (T, error) {
	var out T
	raw, err := llm.Complete(ctx, system, prompt)
	if err != nil {
		return out, fmt.Errorf("complete: %w", err)
	}
	if err := engine.DecodeLLMJSON(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if validate != nil {
		if err := validate(&out); err != nil {
			return out, fmt.Errorf("%w: %v (payload: %s)", ErrMalformedOutput, err, engine.SummarizePayload(raw))
		}
	}
	return out, nil
}

// --- extraction: {"ingredients": ["..."]} ---

type extractionReply struct {
	Ingredients *[]string `json:"ingredients"`
}

func validateExtraction(r *extractionReply) error {
	if r.Ingredients == nil {
		return errors.New(`missing "ingredients"`)
	}
	return nil
}

// --- normalization: {"normalized_ingredients": ["..."]} ---

type normalizationReply struct {
	Normalized *[]string `json:"normalized_ingredients"`
}

func validateNormalization(r *normalizationReply) error {
	if r.Normalized == nil {
		return errors.New(`missing "normalized_ingredients"`)
	}
	return nil
}

// --- tracked normalization: {"normalized_ingredients": [{"name": "...", "from": [1, 2]}]} ---

type trackedItem struct {
	Name string `json:"name"`
	From []int  `json:"from"`
}

type trackedReply struct {
	Normalized *[]trackedItem `json:"normalized_ingredients"`
}

func validateTracked(r *trackedReply) error {
	if r.Normalized == nil {
		return errors.New(`missing "normalized_ingredients"`)
	}
	return nil
}

// --- classification: {"cuisine_type": "...", "confidence": 0.8, "reasoning": "..."} ---

type cuisineReply struct {
	CuisineType string     `json:"cuisine_type"`
	Confidence  confidence `json:"confidence"`
	Reasoning   string     `json:"reasoning"`
}

func (r cuisineReply) assessment() CuisineAssessment {
	return newAssessment(ParseCuisineLabel(r.CuisineType), float64(r.Confidence), strings.TrimSpace(r.Reasoning))
}

// confidence accepts 0.85, "0.85" and "85%". Unparseable values decode as 0
// instead of failing the whole reply; the result is clamped later.
type confidence float64

func (c *confidence) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if b[0] != '"' {
		v, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			*c = 0
			return nil
		}
		*c = confidence(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*c = 0
		return nil
	}
	*c = confidence(parseConfidence(s))
	return nil
}

func parseConfidence(s string) float64 {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if percent {
		v /= 100
	}
	return v
}

// dedupeNames trims names, drops empties and keeps the first spelling of
// case-insensitive duplicates, preserving order.
func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := engine.NormalizeKey(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
