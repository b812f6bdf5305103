package memorytools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/reasoningbank/internal/service/engine"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/task"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

type fakeEngine struct {
	retrieveReq engine.RetrieveRequest
	retrieveRsp engine.RetrieveResponse
	retrieveErr error

	extractReq engine.ExtractRequest
	extractRsp engine.ExtractResponse
	extractErr error

	tasks map[string]task.Task

	statsScope storer.Scope
	stats      engine.Stats
}

func (f *fakeEngine) Retrieve(_ context.Context, req engine.RetrieveRequest) (engine.RetrieveResponse, error) {
	f.retrieveReq = req
	return f.retrieveRsp, f.retrieveErr
}

func (f *fakeEngine) Extract(_ context.Context, req engine.ExtractRequest) (engine.ExtractResponse, error) {
	f.extractReq = req
	return f.extractRsp, f.extractErr
}

func (f *fakeEngine) TaskStatus(_ context.Context, id string) (task.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return task.Task{}, task.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeEngine) Stats(_ context.Context, scope storer.Scope) (engine.Stats, error) {
	f.statsScope = scope
	return f.stats, nil
}

func decode(t *testing.T, rsp toolhandler.ToolResponse) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(rsp.Content), &doc))
	return doc
}

func steps() []any {
	return []any{
		map[string]any{"step": 2.0, "role": "assistant", "content": "opened the settings page"},
		map[string]any{"step": 1.0, "role": "user", "content": "change my password", "metadata": map[string]any{"tool_name": "browser"}},
	}
}

func TestNewToolHandlers(t *testing.T) {
	handlers := NewToolHandlers(WithEngine(&fakeEngine{}))

	names := []string{}
	for _, h := range handlers {
		spec := h.Spec()
		names = append(names, spec.Name)
		assert.NotEmpty(t, spec.Description)
		assert.Equal(t, "object", spec.InputSchema["type"])
	}

	assert.Equal(t, []string{RetrieveMemory, ExtractMemory, GetTaskStatus, MemoryStats}, names)
}

func TestRetrieve(t *testing.T) {
	fake := &fakeEngine{
		retrieveRsp: engine.RetrieveResponse{
			Status:          engine.StatusSuccess,
			Memories:        []engine.RetrievedMemory{{Id: "mem_1", Score: 0.9, Title: "t", Content: "c", Success: true}},
			FormattedPrompt: "prompt",
			Strategy:        "hybrid",
		},
	}
	th := NewRetrieveToolHandler(WithEngine(fake))

	rsp, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{
		"query":    "change a password",
		"top_k":     3.0,
		"agent_id":  "alice",
		"min_score": 0.5,
	}})
	require.NoError(t, err)

	assert.Equal(t, "change a password", fake.retrieveReq.Query)
	require.NotNil(t, fake.retrieveReq.TopK)
	assert.Equal(t, 3, *fake.retrieveReq.TopK)
	assert.Equal(t, "alice", fake.retrieveReq.AgentId)
	require.NotNil(t, fake.retrieveReq.MinScore)
	assert.Equal(t, 0.5, *fake.retrieveReq.MinScore)

	doc := decode(t, rsp)
	assert.Equal(t, "success", doc["status"])
	assert.Equal(t, "prompt", doc["formatted_prompt"])
	assert.Len(t, doc["memories"], 1)
	assert.Equal(t, RetrieveMemory, rsp.Metadata["tool"])
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	fake := &fakeEngine{retrieveRsp: engine.RetrieveResponse{Status: engine.StatusNoMemories}}
	th := NewRetrieveToolHandler(WithEngine(fake))

	_, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{
		"query": "anything",
		"top_k": nil,
	}})
	require.NoError(t, err)
	assert.Nil(t, fake.retrieveReq.TopK)
	assert.Nil(t, fake.retrieveReq.MinScore)
}

func TestRetrieve_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing query", args: map[string]any{}, want: "missing 'query' argument"},
		{name: "query not a string", args: map[string]any{"query": 3.0}, want: "argument 'query' has invalid type: expected string, got float64"},
		{name: "fractional top_k", args: map[string]any{"query": "q", "top_k": 1.5}, want: "argument 'top_k' has invalid type"},
		{name: "top_k beyond int range", args: map[string]any{"query": "q", "top_k": 1e19}, want: "argument 'top_k' has invalid type"},
		{name: "min_score not a number", args: map[string]any{"query": "q", "min_score": "high"}, want: "argument 'min_score' has invalid type"},
		{name: "agent_id not a string", args: map[string]any{"query": "q", "agent_id": true}, want: "argument 'agent_id' has invalid type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEngine{}
			th := NewRetrieveToolHandler(WithEngine(fake))

			rsp, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: tt.args})
			require.ErrorIs(t, err, memory.ErrInvalidRequest)
			assert.Empty(t, fake.retrieveReq.Query, "engine must not be called")
			assert.Contains(t, err.Error(), tt.want)

			doc := decode(t, rsp)
			assert.Equal(t, "error", doc["status"])
		})
	}
}

func TestRetrieve_EngineError(t *testing.T) {
	fake := &fakeEngine{retrieveErr: errors.New("embedding service unavailable")}
	th := NewRetrieveToolHandler(WithEngine(fake))

	rsp, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{"query": "q"}})
	require.Error(t, err)

	doc := decode(t, rsp)
	assert.Equal(t, "error", doc["status"])
	assert.Equal(t, "embedding service unavailable", doc["message"])
}

func TestExtract(t *testing.T) {
	fake := &fakeEngine{extractRsp: engine.ExtractResponse{Status: engine.StatusProcessing, TaskId: "extract_1", Message: "started"}}
	th := NewExtractToolHandler(WithEngine(fake))

	rsp, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{
		"trajectory":     steps(),
		"query":          "change my password",
		"success_signal": false,
		"agent_id":       "alice",
	}})
	require.NoError(t, err)

	req := fake.extractReq
	assert.True(t, req.Async, "async is the default")
	require.NotNil(t, req.SuccessSignal)
	assert.False(t, *req.SuccessSignal)
	assert.Equal(t, "alice", req.AgentId)
	require.Len(t, req.Trajectory, 2)
	assert.Equal(t, memory.Step{Step: 2, Role: "assistant", Content: "opened the settings page"}, req.Trajectory[0])
	assert.Equal(t, "browser", req.Trajectory[1].Metadata["tool_name"])

	doc := decode(t, rsp)
	assert.Equal(t, "processing", doc["status"])
	assert.Equal(t, "extract_1", doc["task_id"])
}

func TestExtract_SyncAndJudged(t *testing.T) {
	fake := &fakeEngine{extractRsp: engine.ExtractResponse{Status: engine.StatusSuccess}}
	th := NewExtractToolHandler(WithEngine(fake))

	_, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{
		"trajectory":     steps(),
		"query":          "change my password",
		"success_signal": nil,
		"async_mode":     false,
	}})
	require.NoError(t, err)

	assert.False(t, fake.extractReq.Async)
	assert.Nil(t, fake.extractReq.SuccessSignal)
}

func TestExtract_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing trajectory", args: map[string]any{"query": "q"}, want: "missing 'trajectory' argument"},
		{name: "trajectory not an array", args: map[string]any{"trajectory": "steps", "query": "q"}, want: "expected array, got string"},
		{name: "step not an object", args: map[string]any{"trajectory": []any{"x"}, "query": "q"}, want: "trajectory[0] has invalid type"},
		{
			name: "unknown role",
			args: map[string]any{"trajectory": []any{map[string]any{"step": 1.0, "role": "robot", "content": "c"}}, "query": "q"},
			want: "trajectory[0].role",
		},
		{
			name: "missing content",
			args: map[string]any{"trajectory": []any{map[string]any{"step": 1.0, "role": "user"}}, "query": "q"},
			want: "trajectory[0].content",
		},
		{
			name: "step beyond int range",
			args: map[string]any{"trajectory": []any{map[string]any{"step": 1e19, "role": "user", "content": "c"}}, "query": "q"},
			want: "trajectory[0].step must be an integer",
		},
		{name: "missing query", args: map[string]any{"trajectory": steps()}, want: "missing 'query' argument"},
		{name: "signal not a bool", args: map[string]any{"trajectory": steps(), "query": "q", "success_signal": "yes"}, want: "argument 'success_signal' has invalid type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEngine{}
			th := NewExtractToolHandler(WithEngine(fake))

			_, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: tt.args})
			require.ErrorIs(t, err, memory.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, fake.extractReq.Query, "engine must not be called")
		})
	}
}

func TestTaskStatus(t *testing.T) {
	fake := &fakeEngine{tasks: map[string]task.Task{
		"extract_1": {Id: "extract_1", State: task.StateCompleted, MemoryIds: []string{"mem_1"}},
	}}
	th := NewTaskStatusToolHandler(WithEngine(fake))

	rsp, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{"task_id": "extract_1"}})
	require.NoError(t, err)

	doc := decode(t, rsp)
	assert.Equal(t, "completed", doc["state"])
	assert.Equal(t, []any{"mem_1"}, doc["memory_ids"])

	rsp, err = th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{"task_id": "extract_2"}})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
	assert.Equal(t, "error", decode(t, rsp)["status"])
}

func TestStats(t *testing.T) {
	fake := &fakeEngine{stats: engine.Stats{Total: 3, Success: 2, Failure: 1}}
	th := NewStatsToolHandler(WithEngine(fake))

	rsp, err := th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{"agent_id": "alice"}})
	require.NoError(t, err)
	assert.Equal(t, storer.AgentScope("alice"), fake.statsScope)
	assert.Equal(t, 3.0, decode(t, rsp)["total"])

	_, err = th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, storer.GlobalScope(), fake.statsScope)

	_, err = th.Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{"agent_id": "alice", "all": true}})
	require.NoError(t, err)
	assert.Equal(t, storer.AllScope(), fake.statsScope)
}
