package recipe

import (
	"math"
	"time"

	"github.com/anatolykoptev/go_recipe/internal/engine/sources"
	"github.com/google/uuid"
)

// VideoMetadata is the descriptive record of the source video.
type VideoMetadata = sources.VideoMetadata

// Ingredient is one extracted food item. Treat it as a value: stages build new
// Ingredients instead of editing existing ones.
type Ingredient struct {
	Name           string  `json:"name"`
	OriginalName   string  `json:"original_name"`
	NormalizedName string  `json:"normalized_name"`
	Confidence     float64 `json:"confidence"`
}

// NewIngredient clamps confidence to [0,1]; empty original/normalized names default to name.
func NewIngredient(name, original, normalized string, confidence float64) Ingredient {
	if original == "" {
		original = name
	}
	if normalized == "" {
		normalized = name
	}
	return Ingredient{
		Name:           name,
		OriginalName:   original,
		NormalizedName: normalized,
		Confidence:     clamp01(confidence),
	}
}

// CuisineAssessment is one classification verdict.
type CuisineAssessment struct {
	Label      CuisineLabel `json:"cuisine_type"`
	Confidence float64      `json:"confidence"`
	Rationale  string       `json:"reasoning"`
}

func newAssessment(label CuisineLabel, confidence float64, rationale string) CuisineAssessment {
	return CuisineAssessment{Label: label, Confidence: clamp01(confidence), Rationale: rationale}
}

// Status is the lifecycle state of a RecipeResult.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is completed or failed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RecipeResult is the output of one pipeline run.
type RecipeResult struct {
	ID              string             `json:"id"`
	SourceReference string             `json:"source_reference"`
	VideoID         string             `json:"video_id,omitempty"`
	Title           string             `json:"title,omitempty"`
	Metadata        *VideoMetadata     `json:"metadata,omitempty"`
	Ingredients     []Ingredient       `json:"ingredients"`
	Cuisine         *CuisineAssessment `json:"cuisine,omitempty"`
	InitialCuisine  *CuisineAssessment `json:"initial_cuisine,omitempty"`
	Transcript      string             `json:"transcript,omitempty"`
	Status          Status             `json:"status"`
	Error           string             `json:"error,omitempty"`
	Demo            bool               `json:"demo,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newResult(ref string) *RecipeResult {
	now := time.Now().UTC()
	return &RecipeResult{
		ID:              uuid.NewString(),
		SourceReference: ref,
		Ingredients:     []Ingredient{},
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// transition moves r to s. Terminal states are absorbing: the call is ignored.
func (r *RecipeResult) transition(s Status) bool {
	if r.Status.Terminal() {
		return false
	}
	r.Status = s
	r.UpdatedAt = time.Now().UTC()
	return true
}

func (r *RecipeResult) fail(err error) {
	if r.transition(StatusFailed) {
		r.Error = err.Error()
		r.Ingredients = []Ingredient{}
	}
}

// IngredientNames returns the ingredient names in order.
func (r *RecipeResult) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
