package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContract(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []string
		wantErr error
	}{
		{"plain", `{"ingredients": ["onion", "garlic", "soy sauce"]}`, []string{"onion", "garlic", "soy sauce"}, nil},
		{"fenced", "```json\n{\"ingredients\": [\"김치\", \"두부\"]}\n```", []string{"김치", "두부"}, nil},
		{"prose around", `Sure! Here you go: {"ingredients": ["onion"]} Enjoy.`, []string{"onion"}, nil},
		{"dedupe and trim", `{"ingredients": [" Onion ", "onion", "", "garlic", "GARLIC"]}`, []string{"Onion", "garlic"}, nil},
		{"empty list", `{"ingredients": []}`, []string{}, nil},
		{"missing field", `{"items": ["onion"]}`, nil, ErrMalformedOutput},
		{"null field", `{"ingredients": null}`, nil, ErrMalformedOutput},
		{"wrong type", `{"ingredients": "onion, garlic"}`, nil, ErrMalformedOutput},
		{"wrong element type", `{"ingredients": [1, 2]}`, nil, ErrMalformedOutput},
		{"not json", `onion, garlic, soy sauce`, nil, ErrMalformedOutput},
		{"truncated", `{"ingredients": ["onion", "gar`, nil, ErrMalformedOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newScriptedLLM(map[stageKind]string{stageExtract: tt.reply})
			got, err := NewExtractor(llm).Extract(context.Background(), "I used onion, garlic, and soy sauce to make stew")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractEmptyTranscript(t *testing.T) {
	llm := newScriptedLLM(nil)
	_, err := NewExtractor(llm).Extract(context.Background(), "  \n ")
	require.ErrorIs(t, err, ErrEmptyTranscript)
	assert.Zero(t, llm.totalCalls())
}

func TestExtractModelError(t *testing.T) {
	llm := newScriptedLLM(nil)
	boom := errors.New("upstream 500")
	llm.errs[stageExtract] = boom
	_, err := NewExtractor(llm).Extract(context.Background(), "some transcript")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMalformedOutput)
}

func TestExtractPromptCarriesTranscript(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{stageExtract: `{"ingredients": []}`})
	_, err := NewExtractor(llm).Extract(context.Background(), "김치 200g 넣고 볶아요")
	require.NoError(t, err)
	prompt := llm.lastPrompt(stageExtract)
	assert.Contains(t, prompt, "김치 200g 넣고 볶아요")
	assert.Contains(t, prompt, `{"ingredients":`)
}

func TestNormalizeEmptyInputSkipsModel(t *testing.T) {
	llm := newScriptedLLM(nil)
	got, err := NewNormalizer(llm).Normalize(context.Background(), []string{" ", ""}, PassFirst)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, llm.totalCalls())
}

func TestNormalizePasses(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{
		stageNorm1: `{"normalized_ingredients": ["양파", "파", "파", "마늘"]}`,
		stageNorm2: `{"normalized_ingredients": ["양파", "파"]}`,
	})
	n := NewNormalizer(llm)

	first, err := n.Normalize(context.Background(), []string{"영파", "대파", "쪽파", "다진 마늘"}, PassFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"양파", "파", "마늘"}, first)
	assert.Contains(t, llm.lastPrompt(stageNorm1), "- 영파\n- 대파")

	second, err := n.Normalize(context.Background(), first, PassSecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"양파", "파"}, second)
	assert.LessOrEqual(t, len(second), len(first))
}

func TestNormalizeCardinalityGuard(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{
		stageNorm2: `{"normalized_ingredients": ["onion", "garlic", "salt", "pepper"]}`,
	})
	in := []string{"onion", "garlic"}
	got, err := NewNormalizer(llm).Normalize(context.Background(), in, PassSecond)
	require.NoError(t, err)
	assert.Equal(t, in, got, "a reply that grows the list must be discarded")
}

func TestNormalizeEmptyReplyKeepsInput(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{stageNorm1: `{"normalized_ingredients": []}`})
	got, err := NewNormalizer(llm).Normalize(context.Background(), []string{"onion"}, PassFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"onion"}, got)
}

func TestNormalizeMalformed(t *testing.T) {
	for _, reply := range []string{
		`{"ingredients": ["onion"]}`,
		`{"normalized_ingredients": "onion"}`,
		`not json at all`,
	} {
		llm := newScriptedLLM(map[stageKind]string{stageNorm1: reply})
		_, err := NewNormalizer(llm).Normalize(context.Background(), []string{"onion"}, PassFirst)
		assert.ErrorIs(t, err, ErrMalformedOutput, "reply %q", reply)
	}
}

func TestNormalizeIdempotentOnCleanList(t *testing.T) {
	clean := []string{"onion", "garlic", "soy sauce"}
	n := NewNormalizer(echoLLM{})
	for _, pass := range []Pass{PassFirst, PassSecond} {
		once, err := n.Normalize(context.Background(), clean, pass)
		require.NoError(t, err)
		twice, err := n.Normalize(context.Background(), once, pass)
		require.NoError(t, err)
		assert.Equal(t, clean, once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeTracked(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{
		stageNorm1: `{"normalized_ingredients": [{"name": "파", "from": [1, 2]}, {"name": "돼지고기", "from": [3, 9]}]}`,
	})
	in := []Provenance{
		{Name: "대파", Originals: []string{"대파"}},
		{Name: "쪽파", Originals: []string{"쪽파"}},
		{Name: "삼겹살", Originals: []string{"삼겹살"}},
	}
	got, err := NewNormalizer(llm).NormalizeTracked(context.Background(), in, PassFirst)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "파", got[0].Name)
	assert.Equal(t, []string{"대파", "쪽파"}, got[0].Originals)
	assert.Equal(t, "삼겹살", got[1].Original(), "out-of-range index 9 is ignored")
	assert.Contains(t, llm.lastPrompt(stageNorm1), "1. 대파\n2. 쪽파\n3. 삼겹살")
}

func TestNormalizeTrackedGuard(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{
		stageNorm2: `{"normalized_ingredients": [{"name": "a", "from": [1]}, {"name": "b", "from": [1]}, {"name": "c", "from": [1]}]}`,
	})
	in := []Provenance{{Name: "a", Originals: []string{"A"}}}
	got, err := NewNormalizer(llm).NormalizeTracked(context.Background(), in, PassSecond)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestClassifyCoercion(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantLabel CuisineLabel
		wantConf  float64
	}{
		{"canonical", `{"cuisine_type": "Korean", "confidence": 0.9, "reasoning": "kimchi"}`, CuisineKorean, 0.9},
		{"lowercase", `{"cuisine_type": "japanese", "confidence": 0.8, "reasoning": "miso"}`, CuisineJapanese, 0.8},
		{"korean alias", `{"cuisine_type": "한식", "confidence": "0.75", "reasoning": "김치"}`, CuisineKorean, 0.75},
		{"unknown label", `{"cuisine_type": "Klingon", "confidence": 0.6, "reasoning": "?"}`, CuisineOther, 0.6},
		{"missing label", `{"confidence": 0.6, "reasoning": "?"}`, CuisineOther, 0.6},
		{"percent", `{"cuisine_type": "Thai", "confidence": "85%", "reasoning": "fish sauce"}`, CuisineThai, 0.85},
		{"above one", `{"cuisine_type": "Indian", "confidence": 1.7, "reasoning": "garam masala"}`, CuisineIndian, 1},
		{"negative", `{"cuisine_type": "Mexican", "confidence": -3, "reasoning": "tortilla"}`, CuisineMexican, 0},
		{"word confidence", `{"cuisine_type": "Italian", "confidence": "high", "reasoning": "pasta"}`, CuisineItalian, 0},
		{"null confidence", `{"cuisine_type": "Italian", "confidence": null, "reasoning": "pasta"}`, CuisineItalian, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newScriptedLLM(map[stageKind]string{stageClassify: tt.reply})
			got := NewClassifier(llm).Classify(context.Background(), "transcript", []string{"onion"}, "title")
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.True(t, got.Label.Valid())
		})
	}
}

func TestClassifyDegrades(t *testing.T) {
	for name, llm := range map[string]*scriptedLLM{
		"garbage":     newScriptedLLM(map[stageKind]string{stageClassify: "I think it's Korean"}),
		"model error": func() *scriptedLLM { l := newScriptedLLM(nil); l.errs[stageClassify] = errors.New("503"); return l }(),
	} {
		t.Run(name, func(t *testing.T) {
			got := NewClassifier(llm).Classify(context.Background(), "transcript", nil, "")
			assert.Equal(t, DegradedAssessment, got)
		})
	}
}

func TestClassifyPromptInputs(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{stageClassify: `{"cuisine_type": "Other", "confidence": 0.1, "reasoning": "-"}`})
	transcript := strings.Repeat("가", 600) + "TAIL"
	NewClassifier(llm).Classify(context.Background(), transcript, []string{"onion", "garlic"}, "")

	prompt := llm.lastPrompt(stageClassify)
	assert.Contains(t, prompt, strings.Repeat("가", 500))
	assert.NotContains(t, prompt, strings.Repeat("가", 501))
	assert.NotContains(t, prompt, "TAIL")
	assert.Contains(t, prompt, "onion, garlic")
	assert.Contains(t, prompt, untitled)
}

func TestVerifyNeverRaisesConfidence(t *testing.T) {
	initials := []float64{0, 0.1, 0.35, 0.5, 0.8, 1}
	replies := []string{
		`{"cuisine_type": "Korean", "confidence": 1.0, "reasoning": "sure"}`,
		`{"cuisine_type": "Korean", "confidence": 0.2, "reasoning": "unsure"}`,
		`{"cuisine_type": "Chinese", "confidence": "99%", "reasoning": "changed"}`,
		`garbage`,
	}
	for _, ic := range initials {
		for _, reply := range replies {
			llm := newScriptedLLM(map[stageKind]string{stageVerify: reply})
			initial := CuisineAssessment{Label: CuisineKorean, Confidence: ic, Rationale: "kimchi"}
			got := NewClassifier(llm).Verify(context.Background(), initial, "transcript", []string{"김치"})
			assert.LessOrEqual(t, got.Confidence, ic, "initial=%v reply=%q", ic, reply)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
		}
	}
}

func TestVerifySuccess(t *testing.T) {
	llm := newScriptedLLM(map[stageKind]string{stageVerify: `{"cuisine_type": "Korean", "confidence": 0.7, "reasoning": "gochugaru and kimchi"}`})
	initial := CuisineAssessment{Label: CuisineKorean, Confidence: 0.9, Rationale: "kimchi"}
	got := NewClassifier(llm).Verify(context.Background(), initial, strings.Repeat("x", 400), []string{"김치"})

	assert.Equal(t, CuisineKorean, got.Label)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
	assert.Equal(t, "verification: gochugaru and kimchi", got.Rationale)

	prompt := llm.lastPrompt(stageVerify)
	assert.Contains(t, prompt, "- cuisine: Korean")
	assert.Contains(t, prompt, "- confidence: 0.90")
	assert.Contains(t, prompt, strings.Repeat("x", 300))
	assert.NotContains(t, prompt, strings.Repeat("x", 301))
}

func TestVerifyFallback(t *testing.T) {
	tests := []struct {
		initial float64
		want    float64
	}{
		{0.9, 0.7},
		{0.45, 0.3},
		{0.3, 0.3},
		{0.2, 0.2},
		{0, 0},
	}
	for _, tt := range tests {
		llm := newScriptedLLM(nil)
		llm.errs[stageVerify] = errors.New("timeout")
		initial := CuisineAssessment{Label: CuisineJapanese, Confidence: tt.initial, Rationale: "miso"}
		got := NewClassifier(llm).Verify(context.Background(), initial, "t", nil)

		assert.Equal(t, CuisineJapanese, got.Label)
		assert.InDelta(t, tt.want, got.Confidence, 1e-9, "initial %v", tt.initial)
		assert.Equal(t, "verification failed, original: miso", got.Rationale)
	}
}
