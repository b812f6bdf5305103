package toolhandler

import "context"

type ToolHandler interface {
	Spec() ToolSpec
	// Invoke returns a JSON document in Content. When the operation itself
	// fails the document describes the failure and err is also set.
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

type ToolRequest struct {
	Arguments map[string]any `json:"arguments"`
}

type ToolResponse struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
