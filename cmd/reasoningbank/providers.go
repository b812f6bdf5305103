package main

import (
	"context"
	"fmt"

	"github.com/w-h-a/reasoningbank/embedder"
	googleembedder "github.com/w-h-a/reasoningbank/embedder/google"
	"github.com/w-h-a/reasoningbank/embedder/hash"
	openaiembedder "github.com/w-h-a/reasoningbank/embedder/openai"
	"github.com/w-h-a/reasoningbank/generator"
	"github.com/w-h-a/reasoningbank/generator/anthropic"
	googlegenerator "github.com/w-h-a/reasoningbank/generator/google"
	openaigenerator "github.com/w-h-a/reasoningbank/generator/openai"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/storer/file"
	"github.com/w-h-a/reasoningbank/storer/postgres"
	"github.com/w-h-a/reasoningbank/strategy"
	"github.com/w-h-a/reasoningbank/strategy/cosine"
	"github.com/w-h-a/reasoningbank/strategy/hybrid"
)

const dashscopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

func newStorer(ctx context.Context, cfg *config) (storer.Storer, error) {
	opts := []storer.Option{
		storer.WithLocation(cfg.Location),
		storer.WithDimension(cfg.Dimension),
		storer.WithContext(ctx),
	}

	switch cfg.Storage {
	case "file":
		return file.NewStorer(opts...)
	case "postgres":
		return postgres.NewStorer(opts...)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", memory.ErrConfiguration, cfg.Storage)
	}
}

func newGenerator(cfg *config) (generator.Generator, error) {
	opts := []generator.Option{
		generator.WithApiKey(cfg.GeneratorApiKey),
		generator.WithModel(cfg.GeneratorModel),
		generator.WithMaxTokens(cfg.MaxTokens),
	}

	baseURL := cfg.GeneratorBaseUrl
	if len(baseURL) == 0 && cfg.Generator == "dashscope" {
		baseURL = dashscopeBaseURL
	}
	if len(baseURL) > 0 {
		opts = append(opts, generator.WithBaseURL(baseURL))
	}

	switch cfg.Generator {
	case "openai", "dashscope":
		return openaigenerator.NewGenerator(opts...), nil
	case "anthropic":
		return anthropic.NewGenerator(opts...), nil
	case "google":
		return googlegenerator.NewGenerator(opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown generator %q", memory.ErrConfiguration, cfg.Generator)
	}
}

func newEmbedder(cfg *config) (embedder.Embedder, error) {
	apiKey := cfg.EmbedderApiKey
	if len(apiKey) == 0 {
		apiKey = cfg.GeneratorApiKey
	}

	opts := []embedder.Option{
		embedder.WithApiKey(apiKey),
		embedder.WithModel(cfg.EmbedderModel),
	}

	if cfg.EmbedderDimensions > 0 {
		opts = append(opts, embedder.WithDimensions(cfg.EmbedderDimensions))
	}

	baseURL := cfg.EmbedderBaseUrl
	if len(baseURL) == 0 && cfg.Embedder == "dashscope" {
		baseURL = dashscopeBaseURL
	}
	if len(baseURL) > 0 {
		opts = append(opts, embedder.WithBaseURL(baseURL))
	}

	switch cfg.Embedder {
	case "openai", "dashscope":
		return openaiembedder.NewEmbedder(opts...), nil
	case "google":
		return googleembedder.NewEmbedder(opts...), nil
	case "hash":
		return hash.NewEmbedder(opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", memory.ErrConfiguration, cfg.Embedder)
	}
}

func newStrategy(cfg *config) (strategy.Strategy, error) {
	switch cfg.Strategy {
	case "cosine":
		return cosine.NewStrategy(), nil
	case "hybrid":
		return hybrid.NewStrategy(
			strategy.WithWeights(strategy.Weights{
				Semantic:   cfg.SemanticWeight,
				Confidence: cfg.ConfidenceWeight,
				Success:    cfg.SuccessWeight,
				Recency:    cfg.RecencyWeight,
			}),
			strategy.WithHalfLife(cfg.HalfLife),
			strategy.WithFailureValue(cfg.FailureValue),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", memory.ErrConfiguration, cfg.Strategy)
	}
}
