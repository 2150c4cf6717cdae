package recipeserver

import (
	"time"

	"github.com/anatolykoptev/go_recipe/internal/engine/recipe"
	"github.com/anatolykoptev/go_recipe/internal/service"
)

// RecipeView is the tool-facing form of a RecipeResult with RFC 3339 timestamps.
type RecipeView struct {
	ID              string                    `json:"id"`
	SourceReference string                    `json:"source_reference"`
	VideoID         string                    `json:"video_id,omitempty"`
	Title           string                    `json:"title,omitempty"`
	Metadata        *recipe.VideoMetadata     `json:"metadata,omitempty"`
	Ingredients     []recipe.Ingredient       `json:"ingredients"`
	Cuisine         *recipe.CuisineAssessment `json:"cuisine,omitempty"`
	CuisineKorean   string                    `json:"cuisine_ko,omitempty"`
	InitialCuisine  *recipe.CuisineAssessment `json:"initial_cuisine,omitempty"`
	Transcript      string                    `json:"transcript,omitempty"`
	Status          string                    `json:"status"`
	Error           string                    `json:"error,omitempty"`
	Demo            bool                      `json:"demo,omitempty"`
	CreatedAt       string                    `json:"created_at"`
	UpdatedAt       string                    `json:"updated_at"`
}

// ExtractView is the response of recipe_extract.
type ExtractView struct {
	Recipe       *RecipeView `json:"recipe"`
	Cached       bool        `json:"cached,omitempty"`
	Published    bool        `json:"published,omitempty"`
	PublishError string      `json:"publish_error,omitempty"`
}

func viewOf(r *recipe.RecipeResult) *RecipeView {
	if r == nil {
		return nil
	}
	v := &RecipeView{
		ID:              r.ID,
		SourceReference: r.SourceReference,
		VideoID:         r.VideoID,
		Title:           r.Title,
		Metadata:        r.Metadata,
		Ingredients:     r.Ingredients,
		Cuisine:         r.Cuisine,
		InitialCuisine:  r.InitialCuisine,
		Transcript:      r.Transcript,
		Status:          string(r.Status),
		Error:           r.Error,
		Demo:            r.Demo,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if v.Ingredients == nil {
		v.Ingredients = []recipe.Ingredient{}
	}
	if r.Cuisine != nil {
		v.CuisineKorean = r.Cuisine.Label.Korean()
	}
	return v
}

func extractViewOf(out *service.ExtractOutput) *ExtractView {
	return &ExtractView{
		Recipe:       viewOf(out.Recipe),
		Cached:       out.Cached,
		Published:    out.Published,
		PublishError: out.PublishError,
	}
}
