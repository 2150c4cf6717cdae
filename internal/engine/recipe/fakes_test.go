package recipe

import (
	"context"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

func init() {
	engine.Init(engine.Config{})
}

type stageKind string

const (
	stageExtract  stageKind = "extract"
	stageNorm1    stageKind = "normalize_1"
	stageNorm2    stageKind = "normalize_2"
	stageClassify stageKind = "classify"
	stageVerify   stageKind = "verify"
)

func stageOf(prompt string) stageKind {
	switch {
	case strings.Contains(prompt, "Extract the ingredients"):
		return stageExtract
	case strings.Contains(prompt, "more strictly"):
		return stageNorm2
	case strings.Contains(prompt, "Normalize the following"):
		return stageNorm1
	case strings.Contains(prompt, "first-pass classifier"):
		return stageVerify
	case strings.Contains(prompt, "Classify the cuisine"):
		return stageClassify
	}
	return ""
}

// scriptedLLM answers each stage with a canned reply and records prompts.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[stageKind]string
	errs    map[stageKind]error
	block   map[stageKind]bool
	prompts map[stageKind][]string
}

func newScriptedLLM(replies map[stageKind]string) *scriptedLLM {
	return &scriptedLLM{
		replies: replies,
		errs:    map[stageKind]error{},
		block:   map[stageKind]bool{},
		prompts: map[stageKind][]string{},
	}
}

func (s *scriptedLLM) Complete(ctx context.Context, _, prompt string) (string, error) {
	kind := stageOf(prompt)
	s.mu.Lock()
	s.prompts[kind] = append(s.prompts[kind], prompt)
	reply, err, block := s.replies[kind], s.errs[kind], s.block[kind]
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (s *scriptedLLM) calls(kind stageKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts[kind])
}

func (s *scriptedLLM) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.prompts {
		n += len(p)
	}
	return n
}

func (s *scriptedLLM) lastPrompt(kind stageKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.prompts[kind]
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// echoLLM returns its bullet-list input unchanged, i.e. a model that finds nothing to fix.
type echoLLM struct{}

func (echoLLM) Complete(_ context.Context, _, prompt string) (string, error) {
	var items []string
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "- ") {
			items = append(items, `"`+strings.TrimPrefix(line, "- ")+`"`)
		}
	}
	return `{"normalized_ingredients": [` + strings.Join(items, ", ") + `]}`, nil
}

// fakeTranscripts returns errs in order, then text.
type fakeTranscripts struct {
	mu    sync.Mutex
	text  string
	errs  []error
	langs []string
	calls int
}

func (f *fakeTranscripts) FetchTranscript(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= len(f.errs) {
		return "", f.errs[f.calls-1]
	}
	return f.text, nil
}

func (f *fakeTranscripts) ListLanguages(context.Context, string) ([]string, error) {
	return f.langs, nil
}

func (f *fakeTranscripts) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMetadata struct {
	mu    sync.Mutex
	meta  *VideoMetadata
	err   error
	calls int
}

func (f *fakeMetadata) FetchMetadata(context.Context, string) (*VideoMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}

func (f *fakeMetadata) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
