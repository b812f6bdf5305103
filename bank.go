package reasoningbank

import (
	"context"
	"errors"
	"fmt"

	"github.com/w-h-a/reasoningbank/embedder"
	"github.com/w-h-a/reasoningbank/extractor"
	"github.com/w-h-a/reasoningbank/generator"
	"github.com/w-h-a/reasoningbank/internal/service/engine"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/strategy"
	"github.com/w-h-a/reasoningbank/task"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
	memorytools "github.com/w-h-a/reasoningbank/tool_handler/memory_tools"
)

type (
	RetrieveRequest  = engine.RetrieveRequest
	RetrieveResponse = engine.RetrieveResponse
	RetrievedMemory  = engine.RetrievedMemory
	ExtractRequest   = engine.ExtractRequest
	ExtractResponse  = engine.ExtractResponse
	Stats            = engine.Stats
)

// Bank is the in-process entry point: retrieve memories before a task,
// extract them after it.
type Bank struct {
	engine *engine.Service
	store  storer.Storer
}

func (b *Bank) Retrieve(ctx context.Context, req RetrieveRequest) (RetrieveResponse, error) {
	return b.engine.Retrieve(ctx, req)
}

func (b *Bank) Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, error) {
	return b.engine.Extract(ctx, req)
}

func (b *Bank) TaskStatus(ctx context.Context, id string) (task.Task, error) {
	return b.engine.TaskStatus(ctx, id)
}

func (b *Bank) Stats(ctx context.Context, scope storer.Scope) (Stats, error) {
	return b.engine.Stats(ctx, scope)
}

// ToolHandlers exposes the bank as retrieve_memory, extract_memory,
// get_task_status and memory_stats.
func (b *Bank) ToolHandlers() []toolhandler.ToolHandler {
	return memorytools.NewToolHandlers(memorytools.WithEngine(b.engine))
}

// Close waits for queued extractions, bounded by ctx, then persists and
// closes the store.
func (b *Bank) Close(ctx context.Context) error {
	return errors.Join(
		b.engine.Close(ctx),
		b.store.Close(),
	)
}

func New(
	store storer.Storer,
	embed embedder.Embedder,
	generate generator.Generator,
	rank strategy.Strategy,
	opts ...Option,
) (*Bank, error) {
	if store == nil || embed == nil || generate == nil || rank == nil {
		return nil, fmt.Errorf("%w: a store, an embedder, a generator and a strategy are required", memory.ErrConfiguration)
	}

	options := NewOptions(opts...)

	extractOpts := append([]extractor.Option{
		extractor.WithGenerator(generate),
		extractor.WithEmbedder(embed),
		extractor.WithStorer(store),
	}, options.ExtractorOptions...)

	extract, err := extractor.NewExtractor(extractOpts...)
	if err != nil {
		return nil, err
	}

	registry := task.NewRegistry(options.TaskOptions...)

	return &Bank{
		engine: engine.New(store, embed, rank, extract, registry, options.EngineOptions...),
		store:  store,
	}, nil
}
