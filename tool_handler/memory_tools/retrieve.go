package memorytools

import (
	"context"

	"github.com/w-h-a/reasoningbank/internal/service/engine"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

const RetrieveMemory = "retrieve_memory"

type retrieveToolHandler struct {
	options toolhandler.Options
	engine  Engine
}

func (th *retrieveToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        RetrieveMemory,
		Description: "Retrieves reasoning memories from past tasks that are relevant to the current one. Call it before starting any non-trivial task such as writing code, analysing data or making a plan.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Description of the current task.",
				},
				"top_k": map[string]any{
					"type":        "integer",
					"description": "Number of memories to return.",
					"default":     1,
				},
				"agent_id": map[string]any{
					"type":        "string",
					"description": "Only search this agent's memories. Omit to search the global memories.",
				},
				"min_score": map[string]any{
					"type":        "number",
					"description": "Drop memories scoring below this. Omit to use the server setting; 0 disables.",
				},
			},
			"required": []any{"query"},
		},
		Examples: []map[string]any{
			{"query": "Find the cheapest flight from Berlin to Lisbon", "top_k": 2},
		},
	}
}

func (th *retrieveToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	query, err := requiredString(req.Arguments, "query")
	if err != nil {
		return invalid(RetrieveMemory, "%v", err)
	}

	topK, err := optionalInt(req.Arguments, "top_k")
	if err != nil {
		return invalid(RetrieveMemory, "%v", err)
	}

	agentId, err := optionalString(req.Arguments, "agent_id")
	if err != nil {
		return invalid(RetrieveMemory, "%v", err)
	}

	minScore, err := optionalFloat(req.Arguments, "min_score")
	if err != nil {
		return invalid(RetrieveMemory, "%v", err)
	}

	rsp, err := th.engine.Retrieve(ctx, engine.RetrieveRequest{
		Query:    query,
		TopK:     topK,
		AgentId:  agentId,
		MinScore: minScore,
	})
	if err != nil {
		rsp.Status = engine.StatusError
		if len(rsp.Message) == 0 {
			rsp.Message = err.Error()
		}
	}

	return respond(RetrieveMemory, rsp, err)
}

func NewRetrieveToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &retrieveToolHandler{
		options: options,
	}

	if e, ok := EngineFrom(options.Context); ok {
		th.engine = e
	}

	return th
}
