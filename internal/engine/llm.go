package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// LLM adapts a go-kit llm.Client to the single completion call every recipe
// stage is built on. It carries no per-call state and is safe for concurrent use
// as long as the underlying client is.
type LLM struct {
	client      *llm.Client
	temperature float64
	maxTokens   int
}

// NewLLM builds the shared model connection from config.
func NewLLM(c Config) *LLM {
	timeout := c.LLMTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &LLM{client: client, temperature: c.LLMTemperature, maxTokens: c.LLMMaxTokens}
}

// Complete sends one system+user prompt pair and returns the reply with code fences removed.
func (l *LLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	metrics.LLMCalls.Add(1)
	resp, err := l.client.Complete(ctx, system, prompt,
		llm.WithChatTemperature(l.temperature),
		llm.WithChatMaxTokens(l.maxTokens),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeLLMJSON decodes JSON from an LLM response, handling common formatting quirks:
// code fences and prose around a single JSON object or array.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, SummarizePayload(trimmed))
	}

	sanitizedErr := json.Unmarshal([]byte(sanitized), target)
	if sanitizedErr == nil {
		return nil
	}
	return fmt.Errorf("%w (sanitized payload snippet: %s)", sanitizedErr, SummarizePayload(sanitized))
}

func sanitizeJSONPayload(content string) string {
	trimmed := stripFences(content)
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

// SummarizePayload flattens whitespace and caps s at 160 runes for log and error messages.
func SummarizePayload(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	return TruncateRunes(clean, 160, "...")
}
