package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_recipe/internal/engine"
	"github.com/anatolykoptev/go_recipe/internal/engine/sources"
)

// defaultConfidence is assigned to every ingredient on the normal path.
const defaultConfidence = 0.9

// TranscriptSource fetches caption text for a video ID.
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, videoID, preferredLang string) (string, error)
	ListLanguages(ctx context.Context, videoID string) ([]string, error)
}

// MetadataSource fetches descriptive metadata for a video reference.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, ref string) (*VideoMetadata, error)
}

// Options tunes a Pipeline.
type Options struct {
	Language          string        // preferred caption language
	TranscriptRetries int           // retries after the first transcript attempt
	RetryDelay        time.Duration // fixed wait between transcript attempts
	StageTimeout      time.Duration // per remote call; 0 = no limit
	TrackProvenance   bool
}

// OptionsFromConfig maps engine configuration onto pipeline options.
func OptionsFromConfig(c engine.Config) Options {
	return Options{
		Language:          c.TranscriptLanguage,
		TranscriptRetries: c.TranscriptRetries,
		RetryDelay:        c.TranscriptRetryDelay,
		StageTimeout:      c.StageTimeout,
		TrackProvenance:   c.TrackProvenance,
	}
}

// Pipeline turns a video reference into a RecipeResult. It holds no per-run
// state, so one Pipeline serves concurrent runs.
type Pipeline struct {
	transcripts TranscriptSource
	metadata    MetadataSource
	extractor   *Extractor
	normalizer  *Normalizer
	classifier  *Classifier
	opts        Options
}

// NewPipeline wires the stages around one model connection.
func NewPipeline(llm Completer, transcripts TranscriptSource, metadata MetadataSource, opts Options) *Pipeline {
	if opts.Language == "" {
		opts.Language = "ko"
	}
	return &Pipeline{
		transcripts: transcripts,
		metadata:    metadata,
		extractor:   NewExtractor(llm),
		normalizer:  NewNormalizer(llm),
		classifier:  NewClassifier(llm),
		opts:        opts,
	}
}

// Run executes the pipeline for ref. The returned result is never nil and is
// always terminal; err is non-nil exactly when the result is failed.
func (p *Pipeline) Run(ctx context.Context, ref string) (*RecipeResult, error) {
	engine.IncrPipelineRuns()
	r := newResult(ref)

	if IsDemoReference(ref) {
		engine.IncrDemoRuns()
		demoResult(r)
		slog.Info("pipeline: demo result", slog.String("id", r.ID), slog.String("ref", ref))
		return r, nil
	}

	r.transition(StatusProcessing)
	if err := p.run(ctx, r); err != nil {
		engine.IncrPipelineFailures()
		r.fail(err)
		slog.Warn("pipeline: failed", slog.String("id", r.ID), slog.String("ref", ref), slog.Any("error", err))
		return r, err
	}
	r.transition(StatusCompleted)
	slog.Info("pipeline: completed", slog.String("id", r.ID), slog.String("video", r.VideoID),
		slog.Int("ingredients", len(r.Ingredients)), slog.String("cuisine", string(r.Cuisine.Label)))
	return r, nil
}

func (p *Pipeline) run(ctx context.Context, r *RecipeResult) error {
	videoID, err := sources.ExtractVideoID(r.SourceReference)
	if err != nil {
		return err
	}
	r.VideoID = videoID

	r.Metadata = p.fetchMetadata(ctx, r.SourceReference)
	if r.Metadata != nil {
		r.Title = r.Metadata.Title
	}

	transcript, err := p.fetchTranscript(ctx, videoID)
	if err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	r.Transcript = transcript

	var ingredients []Ingredient
	if p.opts.TrackProvenance {
		ingredients, err = p.ingredientsTracked(ctx, transcript)
	} else {
		ingredients, err = p.ingredients(ctx, transcript)
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = ing.Name
	}

	// Classification never fails the run: the classifier degrades on its own,
	// and a stage cut short by its timeout is only logged.
	var initial, verified CuisineAssessment
	if err := p.stage(ctx, "classify", func(ctx context.Context) error {
		initial = p.classifier.Classify(ctx, transcript, names, r.Title)
		return ctx.Err()
	}); err != nil {
		slog.Warn("pipeline: classification cut short", slog.String("id", r.ID), slog.Any("error", err))
	}
	if err := p.stage(ctx, "verify", func(ctx context.Context) error {
		verified = p.classifier.Verify(ctx, initial, transcript, names)
		return ctx.Err()
	}); err != nil {
		slog.Warn("pipeline: verification cut short", slog.String("id", r.ID), slog.Any("error", err))
	}

	r.Ingredients = ingredients
	r.InitialCuisine = &initial
	r.Cuisine = &verified
	return nil
}

// fetchMetadata never fails the run: errors are logged and metadata is absent.
func (p *Pipeline) fetchMetadata(ctx context.Context, ref string) *VideoMetadata {
	if p.metadata == nil {
		return nil
	}
	var meta *VideoMetadata
	err := p.stage(ctx, "metadata", func(ctx context.Context) error {
		m, err := p.metadata.FetchMetadata(ctx, ref)
		meta = m
		return err
	})
	if err != nil {
		slog.Warn("pipeline: metadata unavailable", slog.String("ref", ref), slog.Any("error", err))
		return nil
	}
	return meta
}

// fetchTranscript retries transient failures with a fixed delay. Blocks and
// missing captions are permanent and end the loop on the first attempt.
func (p *Pipeline) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	rc := engine.FixedRetryConfig(p.opts.TranscriptRetries, p.opts.RetryDelay)
	return engine.RetryDo(ctx, rc, func() (string, error) {
		var text string
		err := p.stage(ctx, "transcript", func(ctx context.Context) error {
			t, err := p.transcripts.FetchTranscript(ctx, videoID, p.opts.Language)
			text = t
			return err
		})
		if errors.Is(err, sources.ErrSourceBlocked) || errors.Is(err, sources.ErrNoCaptions) {
			return "", engine.Permanent(err)
		}
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", engine.Permanent(fmt.Errorf("%w: empty transcript", sources.ErrNoCaptions))
		}
		return text, nil
	})
}

// ingredients runs extraction and both normalization passes.
func (p *Pipeline) ingredients(ctx context.Context, transcript string) ([]Ingredient, error) {
	var names []string
	err := p.stage(ctx, "extract", func(ctx context.Context) (err error) {
		names, err = p.extractor.Extract(ctx, transcript)
		return err
	})
	if err != nil {
		return nil, err
	}
	extracted := names
	var first []string
	for _, pass := range []Pass{PassFirst, PassSecond} {
		err := p.stage(ctx, fmt.Sprintf("normalize_%d", pass), func(ctx context.Context) (err error) {
			names, err = p.normalizer.Normalize(ctx, names, pass)
			return err
		})
		if err != nil {
			return nil, err
		}
		if pass == PassFirst {
			first = names
		}
	}
	names = dropReintroduced(names, removedKeys(extracted, first), first)

	out := make([]Ingredient, len(names))
	for i, n := range names {
		out[i] = NewIngredient(n, n, n, defaultConfidence)
	}
	return out, nil
}

// ingredientsTracked is ingredients with provenance carried through both passes,
// so OriginalName reports the first surface form seen in the transcript.
func (p *Pipeline) ingredientsTracked(ctx context.Context, transcript string) ([]Ingredient, error) {
	var names []string
	err := p.stage(ctx, "extract", func(ctx context.Context) (err error) {
		names, err = p.extractor.Extract(ctx, transcript)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := provenanceFromNames(names)
	var first []Provenance
	for _, pass := range []Pass{PassFirst, PassSecond} {
		err := p.stage(ctx, fmt.Sprintf("normalize_%d", pass), func(ctx context.Context) (err error) {
			items, err = p.normalizer.NormalizeTracked(ctx, items, pass)
			return err
		})
		if err != nil {
			return nil, err
		}
		if pass == PassFirst {
			first = items
		}
	}
	items = dropReintroducedTracked(items, removedKeys(names, provenanceNames(first)), first)

	out := make([]Ingredient, len(items))
	for i, it := range items {
		out[i] = NewIngredient(it.Name, it.Original(), it.Name, defaultConfidence)
	}
	return out, nil
}

// stage runs fn under the per-stage timeout and logs its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if p.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.StageTimeout)
		defer cancel()
	}
	start := time.Now()
	err := engine.TrackOperation(ctx, name, slowStage, fn)
	slog.Debug("pipeline: stage done", slog.String("stage", name),
		slog.Duration("elapsed", time.Since(start)), slog.Bool("ok", err == nil))
	return err
}

const slowStage = 30 * time.Second

// Languages lists caption languages for ref. Demo references answer without network.
func (p *Pipeline) Languages(ctx context.Context, ref string) ([]string, error) {
	if IsDemoReference(ref) {
		return append([]string(nil), DemoLanguages...), nil
	}
	videoID, err := sources.ExtractVideoID(ref)
	if err != nil {
		return nil, err
	}
	return p.transcripts.ListLanguages(ctx, videoID)
}

// Metadata fetches metadata for ref. Demo references answer without network.
func (p *Pipeline) Metadata(ctx context.Context, ref string) (*VideoMetadata, error) {
	if IsDemoReference(ref) {
		return DemoMetadata(), nil
	}
	if _, err := sources.ExtractVideoID(ref); err != nil {
		return nil, err
	}
	if p.metadata == nil {
		return nil, sources.ErrSourceUnavailable
	}
	return p.metadata.FetchMetadata(ctx, ref)
}
