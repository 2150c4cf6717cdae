// go_recipe: YouTube recipe analysis MCP server.
//
// Exposes five MCP tools: recipe_extract, video_info, recipe_get, recipe_list, recipe_stats.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_recipe/internal/engine"
	"github.com/anatolykoptev/go_recipe/internal/recipeserver"
	"github.com/anatolykoptev/go_recipe/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	c := initEngine()

	svc, err := service.FromConfig(context.Background(), c)
	if err != nil {
		slog.Error("service init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer svc.Close()

	slog.Info("starting go_recipe",
		slog.String("port", c.MCPPort),
		slog.String("model", c.LLMModel),
		slog.String("language", c.TranscriptLanguage),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_recipe",
		Version: version,
	}, nil)

	recipeserver.RegisterTools(server, svc)
	slog.Info("tools registered", slog.Int("count", recipeserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_recipe",
		Version:      version,
		Port:         c.MCPPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() engine.Config {
	c := engine.LoadConfig()
	if c.LLMAPIKey == "" {
		slog.Warn("LLM_API_KEY is not set; only demo references will complete")
	}
	c.BrowserClient = engine.NewBrowserClient(c.WebshareAPIKey)

	engine.Init(c)
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	return c
}
