package memorytools

import (
	"context"

	"github.com/w-h-a/reasoningbank/storer"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

const MemoryStats = "memory_stats"

type statsToolHandler struct {
	options toolhandler.Options
	engine  Engine
}

func (th *statsToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        MemoryStats,
		Description: "Counts stored memories by outcome and reports the extraction queue.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent_id": map[string]any{
					"type":        "string",
					"description": "Count this agent's memories. Omit for the global memories.",
				},
				"all": map[string]any{
					"type":        "boolean",
					"description": "Count every memory regardless of agent.",
					"default":     false,
				},
			},
		},
	}
}

func (th *statsToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	agentId, err := optionalString(req.Arguments, "agent_id")
	if err != nil {
		return invalid(MemoryStats, "%v", err)
	}

	all, err := optionalBool(req.Arguments, "all")
	if err != nil {
		return invalid(MemoryStats, "%v", err)
	}

	scope := storer.AgentScope(agentId)
	if all != nil && *all {
		scope = storer.AllScope()
	}

	stats, err := th.engine.Stats(ctx, scope)
	if err != nil {
		return fail(MemoryStats, err)
	}

	return respond(MemoryStats, stats, nil)
}

func NewStatsToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &statsToolHandler{
		options: options,
	}

	if e, ok := EngineFrom(options.Context); ok {
		th.engine = e
	}

	return th
}
