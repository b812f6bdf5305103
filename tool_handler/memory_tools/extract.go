package memorytools

import (
	"context"

	"github.com/w-h-a/reasoningbank/internal/service/engine"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

const ExtractMemory = "extract_memory"

type extractToolHandler struct {
	options toolhandler.Options
	engine  Engine
}

func (th *extractToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        ExtractMemory,
		Description: "Distills reasoning memories from a finished task trajectory and saves them for later retrieval. Call it once at the end of every task.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"trajectory": map[string]any{
					"type":        "array",
					"description": "Steps taken while working on the task.",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"step":     map[string]any{"type": "integer"},
							"role":     map[string]any{"type": "string", "enum": roles},
							"content":  map[string]any{"type": "string"},
							"metadata": map[string]any{"type": "object"},
						},
						"required": []any{"step", "role", "content"},
					},
				},
				"query": map[string]any{
					"type":        "string",
					"description": "Description of the task.",
				},
				"success_signal": map[string]any{
					"type":        "boolean",
					"description": "Whether the task succeeded. Omit to let the model judge.",
				},
				"async_mode": map[string]any{
					"type":        "boolean",
					"description": "Return a task id immediately and extract in the background.",
					"default":     true,
				},
				"agent_id": map[string]any{
					"type":        "string",
					"description": "Store the memories under this agent. Omit to store them globally.",
				},
			},
			"required": []any{"trajectory", "query"},
		},
	}
}

func (th *extractToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	steps, err := trajectory(req.Arguments)
	if err != nil {
		return invalid(ExtractMemory, "%v", err)
	}

	query, err := requiredString(req.Arguments, "query")
	if err != nil {
		return invalid(ExtractMemory, "%v", err)
	}

	signal, err := optionalBool(req.Arguments, "success_signal")
	if err != nil {
		return invalid(ExtractMemory, "%v", err)
	}

	async, err := optionalBool(req.Arguments, "async_mode")
	if err != nil {
		return invalid(ExtractMemory, "%v", err)
	}

	agentId, err := optionalString(req.Arguments, "agent_id")
	if err != nil {
		return invalid(ExtractMemory, "%v", err)
	}

	rsp, err := th.engine.Extract(ctx, engine.ExtractRequest{
		Trajectory:    steps,
		Query:         query,
		SuccessSignal: signal,
		AgentId:       agentId,
		Async:         async == nil || *async,
	})

	return respond(ExtractMemory, rsp, err)
}

func NewExtractToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &extractToolHandler{
		options: options,
	}

	if e, ok := EngineFrom(options.Context); ok {
		th.engine = e
	}

	return th
}
