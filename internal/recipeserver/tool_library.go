package recipeserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine/recipe"
	"github.com/anatolykoptev/go_recipe/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RecipeGetInput is the request for recipe_get.
type RecipeGetInput struct {
	ID string `json:"id" jsonschema:"Result ID returned by recipe_extract or recipe_list"`
}

// RecipeListInput is the request for recipe_list.
type RecipeListInput struct {
	Status  string `json:"status,omitempty" jsonschema:"Filter by status: completed, failed"`
	Cuisine string `json:"cuisine,omitempty" jsonschema:"Filter by cuisine label (e.g. Korean, Italian) or its Korean name (e.g. 한식)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max results (default 20, max 200)"`
}

// RecipeListOutput is the response of recipe_list.
type RecipeListOutput struct {
	Recipes []*RecipeView `json:"recipes"`
	Count   int           `json:"count"`
}

// RecipeStatsInput is the request for recipe_stats.
type RecipeStatsInput struct {
	CheckPublisher bool `json:"check_publisher,omitempty" jsonschema:"Also ping the Foody API server"`
}

func registerRecipeGet(server *mcp.Server, svc *service.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recipe_get",
		Description: "Load a stored recipe analysis by ID, including ingredients, cuisine, transcript and metadata.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RecipeGetInput) (*mcp.CallToolResult, *RecipeView, error) {
		if input.ID == "" {
			return nil, nil, errors.New("id is required")
		}
		r, err := svc.Get(ctx, input.ID)
		if errors.Is(err, recipe.ErrNotFound) {
			return nil, nil, fmt.Errorf("recipe %s not found", input.ID)
		}
		if err != nil {
			return nil, nil, err
		}
		return nil, viewOf(r), nil
	})
}

func registerRecipeList(server *mcp.Server, svc *service.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recipe_list",
		Description: "List stored recipe analyses, newest first. Optionally filter by status (completed, failed) and cuisine.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RecipeListInput) (*mcp.CallToolResult, *RecipeListOutput, error) {
		f, err := listFilter(input)
		if err != nil {
			return nil, nil, err
		}
		list, err := svc.List(ctx, f)
		if err != nil {
			return nil, nil, err
		}
		views := make([]*RecipeView, len(list))
		for i, r := range list {
			views[i] = viewOf(r)
		}
		return nil, &RecipeListOutput{Recipes: views, Count: len(views)}, nil
	})
}

func listFilter(in RecipeListInput) (recipe.ListFilter, error) {
	f := recipe.ListFilter{Limit: in.Limit}
	switch st := recipe.Status(strings.ToLower(strings.TrimSpace(in.Status))); st {
	case "":
	case recipe.StatusCompleted, recipe.StatusFailed:
		f.Status = st
	default:
		return f, fmt.Errorf("unknown status %q: use completed or failed", in.Status)
	}
	if c := strings.TrimSpace(in.Cuisine); c != "" {
		f.Cuisine = recipe.ParseCuisineLabel(c)
	}
	return f, nil
}

func registerRecipeStats(server *mcp.Server, svc *service.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recipe_stats",
		Description: "Session statistics: runs, completed, failed, demo runs, success rate and counts per cuisine.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RecipeStatsInput) (*mcp.CallToolResult, service.StatsOutput, error) {
		return nil, svc.Stats(ctx, input.CheckPublisher), nil
	})
}
