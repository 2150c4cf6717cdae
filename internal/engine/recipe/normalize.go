package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

// Pass selects how aggressive a normalization run is.
type Pass int

const (
	PassFirst  Pass = 1
	PassSecond Pass = 2
)

func (p Pass) prompt() string {
	if p == PassSecond {
		return normalizeSecondPrompt
	}
	return normalizeFirstPrompt
}

// Normalizer cleans and consolidates ingredient names.
type Normalizer struct {
	llm Completer
}

// NewNormalizer returns a Normalizer backed by llm.
func NewNormalizer(llm Completer) *Normalizer {
	return &Normalizer{llm: llm}
}

// Normalize runs one pass over names. The result is deduplicated and never
// longer than the deduplicated input: a reply that grows the list is discarded
// and the input is kept. Empty input returns empty without calling the model.
func (n *Normalizer) Normalize(ctx context.Context, names []string, pass Pass) ([]string, error) {
	in := dedupeNames(names)
	if len(in) == 0 {
		return []string{}, nil
	}

	prompt := fmt.Sprintf(pass.prompt(), bulletList(in)) + normalizeShape
	reply, err := completeStructured(ctx, n.llm, systemPrompt, prompt, validateNormalization)
	if err != nil {
		return nil, fmt.Errorf("normalization pass %d: %w", pass, err)
	}

	out := dedupeNames(*reply.Normalized)
	if len(out) > len(in) {
		slog.Warn("normalize: reply longer than input, keeping input",
			slog.Int("pass", int(pass)), slog.Int("in", len(in)), slog.Int("out", len(out)))
		return in, nil
	}
	if len(out) == 0 {
		slog.Warn("normalize: reply dropped every ingredient, keeping input", slog.Int("pass", int(pass)))
		return in, nil
	}
	return out, nil
}

// removedKeys returns the keys of extracted names that the first pass dropped
// or merged away.
func removedKeys(extracted, first []string) map[string]bool {
	kept := make(map[string]bool, len(first))
	for _, n := range first {
		kept[engine.NormalizeKey(n)] = true
	}
	removed := make(map[string]bool)
	for _, n := range extracted {
		if k := engine.NormalizeKey(n); k != "" && !kept[k] {
			removed[k] = true
		}
	}
	return removed
}

// dropReintroduced filters second-pass names that the first pass had removed.
// If nothing survives, the first-pass output is kept.
func dropReintroduced(second []string, removed map[string]bool, first []string) []string {
	if len(removed) == 0 {
		return second
	}
	out := make([]string, 0, len(second))
	for _, n := range second {
		if removed[engine.NormalizeKey(n)] {
			slog.Warn("normalize: second pass reintroduced a removed ingredient, dropping", slog.String("name", n))
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return first
	}
	return out
}

func bulletList(names []string) string {
	var sb strings.Builder
	for _, n := range names {
		sb.WriteString("- ")
		sb.WriteString(n)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func numberedList(names []string) string {
	var sb strings.Builder
	for i, n := range names {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, n)
	}
	return strings.TrimRight(sb.String(), "\n")
}
