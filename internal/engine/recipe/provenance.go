package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

// Provenance ties a working ingredient name to the surface forms it was derived from.
type Provenance struct {
	Name      string   `json:"name"`
	Originals []string `json:"originals"`
}

// Original returns the first surface form, or the name itself.
func (p Provenance) Original() string {
	if len(p.Originals) > 0 {
		return p.Originals[0]
	}
	return p.Name
}

func provenanceFromNames(names []string) []Provenance {
	out := make([]Provenance, len(names))
	for i, n := range names {
		out[i] = Provenance{Name: n, Originals: []string{n}}
	}
	return out
}

func provenanceNames(items []Provenance) []string {
	names := make([]string, len(items))
	for i, p := range items {
		names[i] = p.Name
	}
	return names
}

// NormalizeTracked is Normalize over an indexed list: the model reports which
// input lines each output name came from, so originals survive both passes.
// Indices outside the input are ignored. Same cardinality guard as Normalize.
func (n *Normalizer) NormalizeTracked(ctx context.Context, items []Provenance, pass Pass) ([]Provenance, error) {
	in := mergeProvenance(items)
	if len(in) == 0 {
		return []Provenance{}, nil
	}

	prompt := fmt.Sprintf(pass.prompt(), numberedList(provenanceNames(in))) + trackedSuffix
	reply, err := completeStructured(ctx, n.llm, systemPrompt, prompt, validateTracked)
	if err != nil {
		return nil, fmt.Errorf("normalization pass %d: %w", pass, err)
	}

	out := make([]Provenance, 0, len(*reply.Normalized))
	for _, item := range *reply.Normalized {
		p := Provenance{Name: strings.TrimSpace(item.Name)}
		for _, idx := range item.From {
			if idx < 1 || idx > len(in) {
				continue
			}
			p.Originals = append(p.Originals, in[idx-1].Originals...)
		}
		out = append(out, p)
	}
	out = mergeProvenance(out)

	if len(out) > len(in) || len(out) == 0 {
		slog.Warn("normalize: tracked reply rejected, keeping input",
			slog.Int("pass", int(pass)), slog.Int("in", len(in)), slog.Int("out", len(out)))
		return in, nil
	}
	return out, nil
}

// dropReintroducedTracked is dropReintroduced over provenance records.
func dropReintroducedTracked(second []Provenance, removed map[string]bool, first []Provenance) []Provenance {
	if len(removed) == 0 {
		return second
	}
	out := make([]Provenance, 0, len(second))
	for _, p := range second {
		if removed[engine.NormalizeKey(p.Name)] {
			slog.Warn("normalize: second pass reintroduced a removed ingredient, dropping", slog.String("name", p.Name))
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return first
	}
	return out
}

// mergeProvenance drops empty names and folds case-insensitive duplicates,
// concatenating their originals without repeats.
func mergeProvenance(items []Provenance) []Provenance {
	index := make(map[string]int, len(items))
	out := make([]Provenance, 0, len(items))
	for _, p := range items {
		name := strings.TrimSpace(p.Name)
		key := engine.NormalizeKey(name)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, Provenance{Name: name})
			i = len(out) - 1
		}
		out[i].Originals = appendUnique(out[i].Originals, p.Originals...)
	}
	return out
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
