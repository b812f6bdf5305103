package memorytools

import (
	"context"

	"github.com/w-h-a/reasoningbank/internal/service/engine"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/task"
)

// Engine is the part of the memory engine the tools drive.
type Engine interface {
	Retrieve(ctx context.Context, req engine.RetrieveRequest) (engine.RetrieveResponse, error)
	Extract(ctx context.Context, req engine.ExtractRequest) (engine.ExtractResponse, error)
	TaskStatus(ctx context.Context, id string) (task.Task, error)
	Stats(ctx context.Context, scope storer.Scope) (engine.Stats, error)
}
