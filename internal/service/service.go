// Package service composes the recipe pipeline with the result cache, the
// recipe store, downstream publishing and session statistics.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/anatolykoptev/go_recipe/internal/engine"
	"github.com/anatolykoptev/go_recipe/internal/engine/recipe"
	"github.com/anatolykoptev/go_recipe/internal/engine/sources"
	"github.com/anatolykoptev/go_recipe/internal/foodyapi"
)

// Publisher sends finished recipes downstream.
type Publisher interface {
	Submit(ctx context.Context, r *recipe.RecipeResult) (json.RawMessage, error)
	Ping(ctx context.Context) bool
}

// Service is safe for concurrent use.
type Service struct {
	pipeline  *recipe.Pipeline
	store     recipe.Store // nil = results are not persisted
	publisher Publisher    // nil = publishing disabled
	stats     *recipe.Stats
	cacheTag  string
}

// Deps are the collaborators of a Service. Only Pipeline is required.
type Deps struct {
	Pipeline  *recipe.Pipeline
	Store     recipe.Store
	Publisher Publisher
	Stats     *recipe.Stats
	CacheTag  string // distinguishes cache entries produced under different options
}

// New builds a Service from explicit collaborators.
func New(d Deps) *Service {
	if d.Stats == nil {
		d.Stats = recipe.NewStats()
	}
	return &Service{
		pipeline:  d.Pipeline,
		store:     d.Store,
		publisher: d.Publisher,
		stats:     d.Stats,
		cacheTag:  d.CacheTag,
	}
}

// FromConfig wires the production stack: YouTube source, the model, the
// configured store (postgres when DatabaseURL is set, otherwise sqlite) and
// the Foody publisher when FoodyAPIURL is set. engine.Init must run first.
func FromConfig(ctx context.Context, c engine.Config) (*Service, error) {
	yt := sources.NewYouTube()
	opts := recipe.OptionsFromConfig(c)
	p := recipe.NewPipeline(engine.NewLLM(c), yt, yt, opts)

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	var pub Publisher
	if c.FoodyAPIURL != "" {
		pub = foodyapi.NewClient(c.FoodyAPIURL, c.FoodyAPIToken)
		slog.Info("foody publisher configured", slog.String("url", c.FoodyAPIURL))
	}

	return New(Deps{
		Pipeline:  p,
		Store:     store,
		Publisher: pub,
		CacheTag:  opts.Language + "|provenance=" + strconv.FormatBool(opts.TrackProvenance),
	}), nil
}

func openStore(ctx context.Context, c engine.Config) (recipe.Store, error) {
	if c.DatabaseURL != "" {
		s, err := recipe.ConnectPostgresStore(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("recipe store: %w", err)
		}
		return s, nil
	}
	s, err := recipe.OpenSQLiteStore(c.RecipeDBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("recipe store: sqlite")
	return s, nil
}

// ExtractInput is the request for one pipeline run.
type ExtractInput struct {
	URL     string `json:"url" jsonschema:"YouTube video URL (watch, youtu.be or embed). Any reference containing 'demo' returns a canned Korean kimchi stew result"`
	Publish bool   `json:"publish,omitempty" jsonschema:"Send the completed recipe to the Foody API server"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"Ignore cached results and run the pipeline again"`
}

// ExtractOutput wraps the result with delivery details.
type ExtractOutput struct {
	Recipe       *recipe.RecipeResult `json:"recipe"`
	Cached       bool                 `json:"cached,omitempty"`
	Published    bool                 `json:"published,omitempty"`
	PublishError string               `json:"publish_error,omitempty"`
}

// Extract runs the pipeline for in.URL, or answers from cache. The result is
// stored and counted whatever its outcome; the returned error mirrors a
// failed result.
func (s *Service) Extract(ctx context.Context, in ExtractInput) (*ExtractOutput, error) {
	key := s.cacheKey(in.URL)
	if key != "" && !in.Refresh {
		if r, ok := engine.CacheLoadJSON[recipe.RecipeResult](ctx, key); ok {
			slog.Info("recipe: cache hit", slog.String("id", r.ID), slog.String("video", r.VideoID))
			out := &ExtractOutput{Recipe: &r, Cached: true}
			s.publish(ctx, in, out)
			return out, nil
		}
	}

	r, runErr := s.pipeline.Run(ctx, in.URL)
	s.stats.Record(r)
	if s.store != nil {
		if err := s.store.Save(ctx, r); err != nil {
			slog.Warn("recipe: save failed", slog.String("id", r.ID), slog.Any("error", err))
		}
	}
	out := &ExtractOutput{Recipe: r}
	if runErr != nil {
		return out, runErr
	}
	if key != "" {
		engine.CacheStoreJSON(ctx, key, *r)
	}
	s.publish(ctx, in, out)
	return out, nil
}

// cacheKey is empty for references that must not be cached: demo and invalid ones.
func (s *Service) cacheKey(ref string) string {
	if recipe.IsDemoReference(ref) {
		return ""
	}
	id, err := sources.ExtractVideoID(ref)
	if err != nil {
		return ""
	}
	return engine.CacheKey("recipe", id, s.cacheTag)
}

func (s *Service) publish(ctx context.Context, in ExtractInput, out *ExtractOutput) {
	if !in.Publish {
		return
	}
	if s.publisher == nil {
		out.PublishError = "publishing is not configured"
		return
	}
	engine.IncrPublishRequests()
	if _, err := s.publisher.Submit(ctx, out.Recipe); err != nil {
		engine.IncrPublishErrors()
		slog.Warn("recipe: publish failed", slog.String("id", out.Recipe.ID), slog.Any("error", err))
		out.PublishError = err.Error()
		return
	}
	out.Published = true
}

// VideoInfo describes a video without running the pipeline.
type VideoInfo struct {
	VideoID             string                `json:"video_id"`
	Languages           []string              `json:"available_transcripts"`
	TranscriptAvailable bool                  `json:"has_transcript"`
	Metadata            *recipe.VideoMetadata `json:"metadata,omitempty"`
	Demo                bool                  `json:"demo,omitempty"`
	Warnings            []string              `json:"warnings,omitempty"`
}

// VideoInfo reports caption languages and metadata for ref. Only an invalid
// reference is an error; source failures are reported as warnings.
func (s *Service) VideoInfo(ctx context.Context, ref string) (*VideoInfo, error) {
	info := &VideoInfo{Demo: recipe.IsDemoReference(ref), Languages: []string{}}
	if info.Demo {
		info.VideoID = recipe.DemoMetadata().VideoID
	} else {
		id, err := sources.ExtractVideoID(ref)
		if err != nil {
			return nil, err
		}
		info.VideoID = id
	}

	langs, err := s.pipeline.Languages(ctx, ref)
	if err != nil {
		info.Warnings = append(info.Warnings, "transcripts: "+err.Error())
	} else if langs != nil {
		info.Languages = langs
	}
	info.TranscriptAvailable = len(info.Languages) > 0

	meta, err := s.pipeline.Metadata(ctx, ref)
	if err != nil {
		info.Warnings = append(info.Warnings, "metadata: "+err.Error())
	}
	info.Metadata = meta
	return info, nil
}

// ErrNoStore is returned by lookups when no store is configured.
var ErrNoStore = errors.New("recipe store is not configured")

// Get loads a stored result.
func (s *Service) Get(ctx context.Context, id string) (*recipe.RecipeResult, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Get(ctx, id)
}

// List returns stored results, newest first.
func (s *Service) List(ctx context.Context, f recipe.ListFilter) ([]*recipe.RecipeResult, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx, f)
}

// StatsOutput is the session summary.
type StatsOutput struct {
	Total            int            `json:"total"`
	Completed        int            `json:"completed"`
	Failed           int            `json:"failed"`
	Demo             int            `json:"demo"`
	SuccessRate      float64        `json:"success_rate"`
	ByCuisine        map[string]int `json:"by_cuisine"`
	PublisherEnabled bool           `json:"publisher_enabled"`
	PublisherOnline  bool           `json:"publisher_online,omitempty"`
}

// Stats summarizes the runs this Service has performed. Pass checkPublisher to
// ping the downstream API as well.
func (s *Service) Stats(ctx context.Context, checkPublisher bool) StatsOutput {
	snap := s.stats.Snapshot()
	out := StatsOutput{
		Total:            snap.Total,
		Completed:        snap.Completed,
		Failed:           snap.Failed,
		Demo:             snap.Demo,
		SuccessRate:      snap.SuccessRate(),
		ByCuisine:        make(map[string]int, len(snap.ByCuisine)),
		PublisherEnabled: s.publisher != nil,
	}
	for label, n := range snap.ByCuisine {
		out.ByCuisine[string(label)] = n
	}
	if checkPublisher && s.publisher != nil {
		out.PublisherOnline = s.publisher.Ping(ctx)
	}
	return out
}

// Close releases the store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
