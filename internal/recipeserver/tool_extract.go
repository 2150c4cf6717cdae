package recipeserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerRecipeExtract(server *mcp.Server, svc *service.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recipe_extract",
		Description: "Extract the ingredient list and cuisine of a YouTube cooking video. Fetches captions (Korean preferred, then English), extracts ingredients with an LLM, normalizes them in two passes, classifies the cuisine (Korean, Chinese, Japanese, Western, Italian, Thai, Vietnamese, Indian, Mexican, Fusion, Baking, Dessert, Other) and verifies it. A reference containing 'demo' returns a canned kimchi stew result without network calls. Failed runs are returned with status=failed and an error message.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input service.ExtractInput) (*mcp.CallToolResult, *ExtractView, error) {
		input.URL = strings.TrimSpace(input.URL)
		if input.URL == "" {
			return nil, nil, errors.New("url is required")
		}
		out, err := svc.Extract(ctx, input)
		if err != nil {
			// A failed run is still a result: status=failed with the error message.
			slog.Warn("recipe_extract: run failed", slog.String("url", input.URL), slog.Any("error", err))
		}
		return nil, extractViewOf(out), nil
	})
}
