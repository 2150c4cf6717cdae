package recipeserver

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// VideoInfoInput is the request for video_info.
type VideoInfoInput struct {
	URL string `json:"url" jsonschema:"YouTube video URL or a reference containing 'demo'"`
}

func registerVideoInfo(server *mcp.Server, svc *service.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_info",
		Description: "Look up a YouTube video without analyzing it: video ID, available caption languages, whether a transcript exists, and oEmbed metadata (title, channel, thumbnail). Use before recipe_extract to check that captions are available.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input VideoInfoInput) (*mcp.CallToolResult, *service.VideoInfo, error) {
		if strings.TrimSpace(input.URL) == "" {
			return nil, nil, errors.New("url is required")
		}
		info, err := svc.VideoInfo(ctx, input.URL)
		if err != nil {
			return nil, nil, err
		}
		return nil, info, nil
	})
}
