package memorytools

import (
	"context"

	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

const GetTaskStatus = "get_task_status"

type taskStatusToolHandler struct {
	options toolhandler.Options
	engine  Engine
}

func (th *taskStatusToolHandler) Spec() toolhandler.ToolSpec {
	return toolhandler.ToolSpec{
		Name:        GetTaskStatus,
		Description: "Reports the state of a background extraction started by extract_memory.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{
					"type":        "string",
					"description": "Task id returned by extract_memory.",
				},
			},
			"required": []any{"task_id"},
		},
	}
}

func (th *taskStatusToolHandler) Invoke(ctx context.Context, req toolhandler.ToolRequest) (toolhandler.ToolResponse, error) {
	id, err := requiredString(req.Arguments, "task_id")
	if err != nil {
		return invalid(GetTaskStatus, "%v", err)
	}

	t, err := th.engine.TaskStatus(ctx, id)
	if err != nil {
		return fail(GetTaskStatus, err)
	}

	return respond(GetTaskStatus, t, nil)
}

func NewTaskStatusToolHandler(opts ...toolhandler.Option) toolhandler.ToolHandler {
	options := toolhandler.NewOptions(opts...)

	th := &taskStatusToolHandler{
		options: options,
	}

	if e, ok := EngineFrom(options.Context); ok {
		th.engine = e
	}

	return th
}
