package memorytools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/w-h-a/reasoningbank/internal/service/engine"
	"github.com/w-h-a/reasoningbank/memory"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

type failure struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func respond(tool string, v any, err error) (toolhandler.ToolResponse, error) {
	raw, marshalErr := json.MarshalIndent(v, "", "  ")
	if marshalErr != nil {
		return toolhandler.ToolResponse{}, errors.Join(err, fmt.Errorf("encode %s response: %w", tool, marshalErr))
	}

	return toolhandler.ToolResponse{
		Content: string(raw),
		Metadata: map[string]string{
			"tool": tool,
		},
	}, err
}

func fail(tool string, err error) (toolhandler.ToolResponse, error) {
	return respond(tool, failure{Status: engine.StatusError, Message: err.Error()}, err)
}

func invalid(tool string, format string, args ...any) (toolhandler.ToolResponse, error) {
	return fail(tool, fmt.Errorf("%w: %s", memory.ErrInvalidRequest, fmt.Sprintf(format, args...)))
}
