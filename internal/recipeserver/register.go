// Package recipeserver exposes the recipe service as MCP tools.
package recipeserver

import (
	"github.com/anatolykoptev/go_recipe/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 5

// RegisterTools registers recipe_extract, video_info, recipe_get, recipe_list
// and recipe_stats on server.
func RegisterTools(server *mcp.Server, svc *service.Service) {
	registerRecipeExtract(server, svc)
	registerVideoInfo(server, svc)
	registerRecipeGet(server, svc)
	registerRecipeList(server, svc)
	registerRecipeStats(server, svc)
}
