// Package aiorchestrator dispatches image-analysis requests to one of three
// vision providers, parses their responses into a unified metadata record,
// and persists the result via a StorageProvider.
package aiorchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/deco-run/deco-core/internal/aiorchestrator/provider/anthropic"
	"github.com/deco-run/deco-core/internal/aiorchestrator/provider/ollama"
	"github.com/deco-run/deco-core/internal/aiorchestrator/provider/openaicompat"
	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/deco-run/deco-core/internal/events"
)

// Analysis is the unified structured result of analyzing one image,
// regardless of which provider produced it.
type Analysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Style       []string `json:"style"`
	Mood        []string `json:"mood"`
	Colors      []string `json:"colors"`
	Era         string   `json:"era"`
}

// BatchItemResult is one entry of a batch analyze run. Failure is captured
// here, never returned as an error — the batch always completes.
type BatchItemResult struct {
	ImagePath string
	Analysis  Analysis
	Err       error
}

// Provider is the capability every vision backend implements: encode an
// image once, send it with a prompt, return the raw response text.
type Provider interface {
	Analyze(ctx context.Context, imagePath, prompt string) (string, error)
}

// analysisTimeout bounds every single-image provider round trip.
const analysisTimeout = 30 * time.Second

// storageUpdater is the narrow slice of storage.Provider the orchestrator
// needs to persist a result; declared locally to avoid an import cycle with
// internal/storage, which itself does not need AI analysis.
type storageUpdater interface {
	UpdateImageMetadata(ctx context.Context, projectPath, filename string, patch domain.ImagePatch) (*domain.Image, error)
	GetAllTags(ctx context.Context, projectPath string) ([]domain.TagCount, error)
}

// Orchestrator dispatches to the configured provider and persists results.
type Orchestrator struct {
	provider Provider
	storage  storageUpdater
	emit     *events.Emitter
}

func New(provider Provider, storage storageUpdater, emit *events.Emitter) *Orchestrator {
	return &Orchestrator{provider: provider, storage: storage, emit: emit}
}

// NewProvider constructs the configured vision provider from app config.
// cfg.Provider selects one of "anthropic", "openai" (or any OpenAI-compatible
// endpoint), and "ollama".
func NewProvider(cfg appconfig.AIConfig, getSecret func(name string) (string, bool, error)) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		key, ok, err := getSecret("anthropic_api_key")
		if err != nil {
			return nil, apperr.New(apperr.CategoryExternalProvider, fmt.Errorf("read anthropic key: %w", err))
		}
		if !ok {
			return nil, apperr.Newf(apperr.CategoryValidation, "anthropic provider selected but no API key is configured")
		}
		return anthropic.New(key, cfg.Model, cfg.Endpoint), nil
	case "ollama":
		return ollama.New(cfg.Model, cfg.Endpoint), nil
	case "openai", "openai-compatible", "":
		key, _, err := getSecret("openai_api_key")
		if err != nil {
			return nil, apperr.New(apperr.CategoryExternalProvider, fmt.Errorf("read openai key: %w", err))
		}
		return openaicompat.New(key, cfg.Model, cfg.Endpoint), nil
	default:
		return nil, apperr.Newf(apperr.CategoryValidation, "unknown AI provider %q", cfg.Provider)
	}
}

// Analyze dispatches a single-image analysis, optionally persisting the
// result when projectPath and filename are both non-empty. It emits
// ai:analysis:{start,complete,error} around the call.
func (o *Orchestrator) Analyze(ctx context.Context, projectPath, imagePath, filename string, existingTags []string) (Analysis, error) {
	o.emit.Emit("ai:analysis:start", map[string]string{"imagePath": imagePath})

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	prompt := BuildPrompt(existingTags)
	raw, err := o.provider.Analyze(ctx, imagePath, prompt)
	if err != nil {
		wrapped := apperr.New(apperr.CategoryExternalProvider, fmt.Errorf("analyze %s: %w", imagePath, err))
		o.emit.Emit("ai:analysis:error", map[string]string{"imagePath": imagePath, "error": wrapped.Error()})
		return Analysis{}, wrapped
	}

	analysis := ParseResponse(raw)

	if projectPath != "" && filename != "" {
		patch := domain.ImagePatch{
			Description: &analysis.Description,
			Tags:        analysis.Tags,
			Style:       analysis.Style,
			Mood:        analysis.Mood,
			Era:         &analysis.Era,
		}
		if _, err := o.storage.UpdateImageMetadata(ctx, projectPath, filename, patch); err != nil {
			wrapped := apperr.New(apperr.CategoryStorage, fmt.Errorf("persist analysis for %s: %w", filename, err))
			o.emit.Emit("ai:analysis:error", map[string]string{"imagePath": imagePath, "error": wrapped.Error()})
			return analysis, wrapped
		}
	}

	o.emit.Emit("ai:analysis:complete", map[string]any{"imagePath": imagePath, "analysis": analysis})
	return analysis, nil
}

// BatchAnalyze runs Analyze sequentially over imagePaths, carrying a
// running tag vocabulary forward so later images converge on earlier
// tagging choices. Per-item failure is captured in the result, never
// raised — the batch always completes.
func (o *Orchestrator) BatchAnalyze(ctx context.Context, projectPath string, imagePaths, filenames []string, seedTags []string) []BatchItemResult {
	runningTags := dedupeTags(seedTags)
	results := make([]BatchItemResult, 0, len(imagePaths))

	for i, imagePath := range imagePaths {
		filename := ""
		if i < len(filenames) {
			filename = filenames[i]
		}
		o.emit.Emit("ai:batch:progress", map[string]any{"index": i, "total": len(imagePaths), "imagePath": imagePath})

		analysis, err := o.Analyze(ctx, projectPath, imagePath, filename, runningTags)
		results = append(results, BatchItemResult{ImagePath: imagePath, Analysis: analysis, Err: err})
		if err == nil {
			runningTags = dedupeTags(append(runningTags, analysis.Tags...))
		}
	}

	o.emit.Emit("ai:batch:complete", map[string]int{"count": len(results)})
	return results
}

// dedupeTags removes duplicates while preserving first-seen order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// DescribeForClustering summarizes the tag distribution of a project
// for the command surface's info subcommand.
func (o *Orchestrator) DescribeForClustering(ctx context.Context, projectPath string) (string, error) {
	tags, err := o.storage.GetAllTags(ctx, projectPath)
	if err != nil {
		return "", fmt.Errorf("describe project: %w", err)
	}
	if len(tags) == 0 {
		return "no tags recorded yet", nil
	}
	summary := fmt.Sprintf("%d distinct tags, most common: %s", len(tags), tags[0].Tag)
	return summary, nil
}
