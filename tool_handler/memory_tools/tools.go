package memorytools

import toolhandler "github.com/w-h-a/reasoningbank/tool_handler"

// NewToolHandlers builds every memory tool around the same engine.
func NewToolHandlers(opts ...toolhandler.Option) []toolhandler.ToolHandler {
	return []toolhandler.ToolHandler{
		NewRetrieveToolHandler(opts...),
		NewExtractToolHandler(opts...),
		NewTaskStatusToolHandler(opts...),
		NewStatsToolHandler(opts...),
	}
}
