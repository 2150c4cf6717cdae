package main

import (
	"context"

	"github.com/anatolykoptev/go_recipe/internal/engine"
	"github.com/anatolykoptev/go_recipe/internal/service"
)

// commandContext builds the service once per invocation from env config and flags.
type commandContext struct {
	dbPath *string
	svc    *service.Service
}

func newCommandContext(dbPath *string) *commandContext {
	return &commandContext{dbPath: dbPath}
}

func (c *commandContext) service(ctx context.Context) (*service.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	cfg := engine.LoadConfig()
	if *c.dbPath != "" {
		cfg.RecipeDBPath = *c.dbPath
		cfg.DatabaseURL = ""
	}
	if cfg.BrowserClient == nil {
		cfg.BrowserClient = engine.NewBrowserClient(cfg.WebshareAPIKey)
	}
	engine.Init(cfg)
	engine.InitCache(cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheCleanupInterval)

	svc, err := service.FromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func (c *commandContext) close() {
	if c.svc != nil {
		c.svc.Close()
	}
}
